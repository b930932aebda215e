// Package store loads measurement files into the region model. Files are YAML
// documents listing groups of regions with their axes, counts and channel
// matrices.
package store

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"sinspect/internal/models"
)

// Open reads and builds the measurement file at path.
func Open(path string) (*models.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening data file: %w", err)
	}
	defer f.Close()

	raw, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing data file %s: %w", path, err)
	}
	if raw.Name == "" {
		raw.Name = path
	}
	return Build(raw)
}

// Decode parses a YAML measurement file.
func Decode(r io.Reader) (*RawFile, error) {
	var raw RawFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// Encode writes a measurement file as YAML.
func Encode(w io.Writer, raw *RawFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return err
	}
	return enc.Close()
}

// Build converts a raw file into the region model. Repeated group names, and
// repeated region names within a group, get -1, -2, ... suffixes in first-seen
// order. Missing channel matrices become zero matrices.
func Build(raw *RawFile) (*models.File, error) {
	file := &models.File{Name: raw.Name}

	groupNames := make([]string, len(raw.Groups))
	for i, g := range raw.Groups {
		groupNames[i] = g.Name
	}
	groupNames = UniquifyNames(groupNames)

	for gi, rg := range raw.Groups {
		group := &models.Group{ID: gi, Name: groupNames[gi]}

		regionNames := make([]string, len(rg.Regions))
		for i, r := range rg.Regions {
			regionNames[i] = r.Name
		}
		regionNames = UniquifyNames(regionNames)

		for ri, rr := range rg.Regions {
			region, err := buildRegion(rr)
			if err != nil {
				return nil, fmt.Errorf("group %q region %q: %w", group.Name, rr.Name, err)
			}
			region.Name = regionNames[ri]
			region.GroupID = gi
			group.Regions = append(group.Regions, region)
		}
		file.Groups = append(file.Groups, group)
	}
	return file, nil
}

func buildRegion(rr RawRegion) (*models.Region, error) {
	r := &models.Region{
		ScanMode:         models.ScanMode(rr.ScanMode),
		BindingAxis:      rr.BindingAxis,
		ExcitationAxis:   rr.ExcitationAxis,
		KineticAxis:      rr.KineticAxis,
		TimeAxis:         rr.TimeAxis,
		DwellTime:        rr.DwellTime,
		PassEnergy:       rr.PassEnergy,
		AnalyzerLens:     rr.AnalyzerLens,
		ExcitationEnergy: rr.ExcitationEnergy,
		KineticEnergy:    rr.KineticEnergy,
	}

	xs := r.XAxis()
	n := len(xs)
	if n < 2 {
		return nil, fmt.Errorf("%s axis needs at least 2 samples, got %d", r.Axis().Label, n)
	}
	for name, axis := range map[string][]float64{
		"binding_axis":    rr.BindingAxis,
		"excitation_axis": rr.ExcitationAxis,
		"kinetic_axis":    rr.KineticAxis,
		"time_axis":       rr.TimeAxis,
	} {
		if axis != nil && len(axis) != n {
			return nil, fmt.Errorf("%s has %d samples, want %d", name, len(axis), n)
		}
	}

	var err error
	if r.ChannelCounts, err = buildChannels("channel_counts", rr.ChannelCounts, n); err != nil {
		return nil, err
	}
	if r.ExtendedChannels, err = buildChannels("extended_channels", rr.ExtendedChannels, n); err != nil {
		return nil, err
	}

	switch {
	case rr.Counts != nil:
		if len(rr.Counts) != n {
			return nil, fmt.Errorf("counts has %d samples, want %d", len(rr.Counts), n)
		}
		r.Counts = append([]float64(nil), rr.Counts...)
	default:
		r.Counts = sumColumns(r.ChannelCounts, n)
	}
	return r, nil
}

// buildChannels converts a row-major matrix into Channels. An absent matrix is
// zero filled; a present matrix without columns is zero filled and marked empty.
func buildChannels(name string, m Matrix, n int) (models.Channels, error) {
	if !m.Present {
		return models.ZeroChannels(n, false), nil
	}
	if len(m.Rows) == 0 || len(m.Rows[0]) == 0 {
		return models.ZeroChannels(n, true), nil
	}
	if len(m.Rows) != n {
		return models.Channels{}, fmt.Errorf("%s has %d rows, want %d", name, len(m.Rows), n)
	}
	cols := len(m.Rows[0])
	if cols > models.MaxChannels {
		return models.Channels{}, fmt.Errorf("%s has %d columns, at most %d allowed", name, cols, models.MaxChannels)
	}
	data := mat.NewDense(n, cols, nil)
	for i, row := range m.Rows {
		if len(row) != cols {
			return models.Channels{}, fmt.Errorf("%s row %d has %d values, want %d", name, i, len(row), cols)
		}
		data.SetRow(i, row)
	}
	return models.Channels{Data: data}, nil
}

func sumColumns(c models.Channels, n int) []float64 {
	sum := make([]float64, n)
	col := make([]float64, n)
	for i := 0; i < c.Count(); i++ {
		mat.Col(col, i, c.Data)
		floats.Add(sum, col)
	}
	return sum
}

// UniquifyNames appends -1, -2, ... to repeated names in first-seen order, e.g.
// [a b c a b a] becomes [a b c a-1 b-1 a-2]. A generated name that collides
// with an existing one moves on to the next suffix.
func UniquifyNames(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}

	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	used := make(map[string]bool, len(names))
	for i, name := range names {
		seen[name]++
		if seen[name] == 1 {
			out[i] = name
			used[name] = true
			continue
		}
		k := seen[name] - 1
		candidate := name + "-" + strconv.Itoa(k)
		for used[candidate] || taken[candidate] {
			k++
			candidate = name + "-" + strconv.Itoa(k)
		}
		seen[name] = k + 1
		out[i] = candidate
		used[candidate] = true
	}
	return out
}
