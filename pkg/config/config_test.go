package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sinspect/pkg/export"
)

// TestDefaultConfig verifies the defaults pass validation
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Export.Delimiter != "tab" || !cfg.Export.IncludeHeader {
		t.Errorf("unexpected export defaults: %+v", cfg.Export)
	}
	if cfg.Normalization.Numerator != "2" || cfg.Normalization.Denominator != 3 {
		t.Errorf("unexpected normalization defaults: %+v", cfg.Normalization)
	}
}

// TestLoadConfigMissingFile verifies a missing file yields the defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Export.OutputDir != "export" {
		t.Errorf("expected default output dir, got %q", cfg.Export.OutputDir)
	}
}

// TestSaveLoadRoundTrip verifies a saved configuration loads back unchanged
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sinspect.yaml")

	cfg := DefaultConfig()
	cfg.Export.Delimiter = "comma"
	cfg.Export.Workers = 4
	cfg.Normalization.Reference.Group = "Group1"
	cfg.Normalization.Reference.Region = "Survey"
	cfg.Normalization.Numerator = "Counts"
	on := false
	cfg.Selections = []RegionSelection{{Group: "Group1", Region: "Survey", Counts: &on, Extended: []int{1, 2}}}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if got.Export.Delimiter != "comma" || got.Export.Workers != 4 {
		t.Errorf("export section not restored: %+v", got.Export)
	}
	if got.Normalization.Reference.Region != "Survey" || got.Normalization.Numerator != "Counts" {
		t.Errorf("normalization section not restored: %+v", got.Normalization)
	}
	if len(got.Selections) != 1 || got.Selections[0].Counts == nil || *got.Selections[0].Counts {
		t.Fatalf("selections not restored: %+v", got.Selections)
	}
	if got.Selections[0].Channels != nil {
		t.Errorf("expected nil channels, got %v", got.Selections[0].Channels)
	}
}

// TestLoadConfigPartialFile verifies unset keys keep their defaults
func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sinspect.yaml")
	data := "export:\n  delimiter: space\nnormalization:\n  singleReference: 4\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Export.Delimiter != "space" || cfg.Normalization.SingleReference != 4 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Normalization.Denominator != 3 || cfg.Export.Workers != 1 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

// TestValidate checks that out of range values are rejected
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"delimiter", func(c *Config) { c.Export.Delimiter = "pipe" }, "unknown delimiter"},
		{"workers", func(c *Config) { c.Export.Workers = 0 }, "export.workers"},
		{"too many workers", func(c *Config) { c.Export.Workers = MaxWorkers + 1 }, "export.workers"},
		{"single reference", func(c *Config) { c.Normalization.SingleReference = 10 }, "singleReference"},
		{"numerator", func(c *Config) { c.Normalization.Numerator = "0" }, "numerator"},
		{"denominator", func(c *Config) { c.Normalization.Denominator = 0 }, "denominator"},
		{"half reference", func(c *Config) { c.Normalization.Reference.Group = "g" }, "both group and region"},
		{"selection name", func(c *Config) { c.Selections = []RegionSelection{{Group: "g"}} }, "selections[0]"},
		{"selection channel", func(c *Config) {
			c.Selections = []RegionSelection{{Group: "g", Region: "r", Extended: []int{10}}}
		}, "channel 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

// TestExportOptions verifies the export section maps onto export.Options
func TestExportOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Export.Delimiter = "space"
	cfg.Export.IncludeHeader = false
	cfg.Export.Workers = 3

	opts, err := cfg.ExportOptions()
	if err != nil {
		t.Fatal(err)
	}
	want := export.Options{Delimiter: export.Space, IncludeHeader: false, Workers: 3}
	if opts != want {
		t.Errorf("expected %+v, got %+v", want, opts)
	}
}

// TestCreateDefaultConfigFile verifies the written file loads as the defaults
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sinspect.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Normalization.Numerator != "2" {
		t.Errorf("unexpected numerator %q", cfg.Normalization.Numerator)
	}
}
