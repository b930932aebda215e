package store

import (
	"gopkg.in/yaml.v3"
)

// RawFile is the on-disk YAML form of a measurement file.
type RawFile struct {
	Name   string     `yaml:"name,omitempty"`
	Groups []RawGroup `yaml:"groups"`
}

// RawGroup is a named list of regions as stored on disk
type RawGroup struct {
	Name    string      `yaml:"name"`
	Regions []RawRegion `yaml:"regions"`
}

// RawRegion is one scan as stored on disk. Channel matrices are row-major, one
// row per sample and one value per channel.
type RawRegion struct {
	Name     string `yaml:"name"`
	ScanMode string `yaml:"scan_mode"`

	BindingAxis    []float64 `yaml:"binding_axis,omitempty"`
	ExcitationAxis []float64 `yaml:"excitation_axis,omitempty"`
	KineticAxis    []float64 `yaml:"kinetic_axis,omitempty"`
	TimeAxis       []float64 `yaml:"time_axis,omitempty"`

	Counts           []float64 `yaml:"counts,omitempty"`
	ChannelCounts    Matrix    `yaml:"channel_counts,omitempty"`
	ExtendedChannels Matrix    `yaml:"extended_channels,omitempty"`

	DwellTime        float64 `yaml:"dwell_time"`
	PassEnergy       float64 `yaml:"pass_energy"`
	AnalyzerLens     string  `yaml:"analyzer_lens"`
	ExcitationEnergy float64 `yaml:"excitation_energy"`
	KineticEnergy    float64 `yaml:"kinetic_energy"`
}

// Matrix is a channel matrix that remembers whether it was present in the
// source. An absent or null matrix has Present unset; an empty sequence is
// present with no rows.
type Matrix struct {
	Rows    [][]float64
	Present bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Matrix) UnmarshalYAML(n *yaml.Node) error {
	if n.ShortTag() == "!!null" {
		*m = Matrix{}
		return nil
	}
	var rows [][]float64
	if err := n.Decode(&rows); err != nil {
		return err
	}
	*m = Matrix{Rows: rows, Present: true}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Matrix) MarshalYAML() (interface{}, error) {
	if !m.Present {
		return nil, nil
	}
	if m.Rows == nil {
		return [][]float64{}, nil
	}
	return m.Rows, nil
}

// IsZero lets omitempty drop absent matrices.
func (m Matrix) IsZero() bool { return !m.Present }
