// Package config provides configuration loading and management for sinspect.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sinspect/internal/models"
	"sinspect/pkg/export"
	"sinspect/pkg/normalization"
)

// RegionSelection overrides the channel selection of one region
type RegionSelection struct {
	// Group and Region name the region after de-duplication
	Group  string `yaml:"group"`
	Region string `yaml:"region"`

	// Counts switches the aggregate counts (and so the export of the region)
	Counts *bool `yaml:"counts,omitempty"`

	// Channels lists the channel_counts indices summed into counts; nil keeps all
	Channels []int `yaml:"channels,omitempty"`

	// Extended lists the extended channel indices to export
	Extended []int `yaml:"extended,omitempty"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Export parameters
	Export struct {
		// Delimiter is one of tab, space or comma
		Delimiter string `yaml:"delimiter"`

		// IncludeHeader writes the two descriptive header lines
		IncludeHeader bool `yaml:"includeHeader"`

		// OutputDir is the directory receiving one subdirectory per group
		OutputDir string `yaml:"outputDir"`

		// Workers is how many regions are written concurrently
		Workers int `yaml:"workers"`
	} `yaml:"export"`

	// Normalisation parameters
	Normalization struct {
		// SingleReference is the extended channel (1-9) used for single
		// normalisation; 0 disables it
		SingleReference int `yaml:"singleReference"`

		// Reference names the double normalisation reference region; empty
		// disables double normalisation
		Reference struct {
			Group  string `yaml:"group"`
			Region string `yaml:"region"`
		} `yaml:"reference"`

		// Numerator is "Counts" or an extended channel 1-9
		Numerator string `yaml:"numerator"`

		// Denominator is the extended channel 1-9 dividing both regions
		Denominator int `yaml:"denominator"`
	} `yaml:"normalization"`

	// Selections override the default selection of individual regions
	Selections []RegionSelection `yaml:"selections,omitempty"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Export.Delimiter = string(export.Tab)
	cfg.Export.IncludeHeader = true
	cfg.Export.OutputDir = "export"
	cfg.Export.Workers = 1

	cfg.Normalization.SingleReference = 0
	cfg.Normalization.Numerator = "2"
	cfg.Normalization.Denominator = 3

	cfg.Output.Verbose = true

	return cfg
}

// MaxWorkers bounds Export.Workers.
const MaxWorkers = 32

// Validate checks value ranges
func (c *Config) Validate() error {
	if _, err := export.ParseDelimiter(c.Export.Delimiter); err != nil {
		return err
	}
	if c.Export.Workers < 1 || c.Export.Workers > MaxWorkers {
		return fmt.Errorf("export.workers must be between 1 and %d, got %d", MaxWorkers, c.Export.Workers)
	}
	if r := c.Normalization.SingleReference; r < 0 || r > models.MaxChannels {
		return fmt.Errorf("normalization.singleReference must be between 0 and %d, got %d", models.MaxChannels, r)
	}
	if _, err := normalization.ParseSelector(c.Normalization.Numerator); err != nil {
		return err
	}
	if d := c.Normalization.Denominator; d < 1 || d > models.MaxChannels {
		return fmt.Errorf("normalization.denominator must be between 1 and %d, got %d", models.MaxChannels, d)
	}
	ref := c.Normalization.Reference
	if (ref.Group == "") != (ref.Region == "") {
		return fmt.Errorf("normalization.reference needs both group and region")
	}
	for i, s := range c.Selections {
		if s.Group == "" || s.Region == "" {
			return fmt.Errorf("selections[%d] needs both group and region", i)
		}
		for _, n := range append(append([]int(nil), s.Channels...), s.Extended...) {
			if n < 1 || n > models.MaxChannels {
				return fmt.Errorf("selections[%d] channel %d out of range 1-%d", i, n, models.MaxChannels)
			}
		}
	}
	return nil
}

// ExportOptions converts the export section into export.Options
func (c *Config) ExportOptions() (export.Options, error) {
	d, err := export.ParseDelimiter(c.Export.Delimiter)
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{
		Delimiter:     d,
		IncludeHeader: c.Export.IncludeHeader,
		Workers:       c.Export.Workers,
	}, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
