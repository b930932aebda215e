package models

import (
	"gonum.org/v1/gonum/mat"
)

// MaxChannels is the number of channel_counts and extended_channels columns a
// region can carry.
const MaxChannels = 9

// ScanMode is the analyzer scan mode recorded for a region
type ScanMode string

const (
	FixedAnalyzerTransmission ScanMode = "FixedAnalyzerTransmission"
	ConstantFinalState        ScanMode = "ConstantFinalState"
	FixedEnergies             ScanMode = "FixedEnergies"
)

// Orientation of the x-axis when a region is drawn
type Orientation string

const (
	Normal   Orientation = "normal"
	Reversed Orientation = "reversed"
)

// AxisKind names which of the four axis arrays of a region is used as its x-axis
type AxisKind int

const (
	KineticAxis AxisKind = iota
	BindingAxis
	ExcitationAxis
	TimeAxis
)

// AxisInfo describes how a scan mode is presented
type AxisInfo struct {
	// Axis is the axis array used as x-axis
	Axis AxisKind

	// Label is the x-axis title, also used as the first export column title
	Label string

	// Orientation is the plot direction of the x-axis
	Orientation Orientation
}

// LookupAxis returns the axis information for a scan mode. Unknown modes use the
// kinetic energy axis.
func LookupAxis(mode ScanMode) AxisInfo {
	switch mode {
	case FixedAnalyzerTransmission:
		return AxisInfo{Axis: BindingAxis, Label: "Binding energy (eV)", Orientation: Reversed}
	case ConstantFinalState:
		return AxisInfo{Axis: ExcitationAxis, Label: "Excitation energy (eV)", Orientation: Normal}
	case FixedEnergies:
		return AxisInfo{Axis: TimeAxis, Label: "Time (s)", Orientation: Normal}
	default:
		return AxisInfo{Axis: KineticAxis, Label: "Kinetic energy (eV)", Orientation: Normal}
	}
}

// Channels holds one N x k channel matrix of a region. Missing data is stored as
// an all-zero matrix; a source matrix with no columns is stored as a zero matrix
// with Empty set, and then has no usable columns.
type Channels struct {
	// Data is the N x k matrix, one column per channel
	Data *mat.Dense

	// Empty is set when the source carried a zero-column matrix
	Empty bool
}

// ZeroChannels returns an N x MaxChannels zero matrix.
func ZeroChannels(n int, empty bool) Channels {
	return Channels{Data: mat.NewDense(n, MaxChannels, nil), Empty: empty}
}

// Count returns the number of usable channel columns.
func (c Channels) Count() int {
	if c.Empty || c.Data == nil {
		return 0
	}
	_, cols := c.Data.Dims()
	if cols > MaxChannels {
		return MaxChannels
	}
	return cols
}

// Column returns a copy of the 1-based channel column i. Columns beyond the
// stored width read as zeros.
func (c Channels) Column(i int) []float64 {
	if c.Data == nil {
		return nil
	}
	rows, cols := c.Data.Dims()
	if i < 1 || i > cols {
		return make([]float64, rows)
	}
	return mat.Col(nil, i-1, c.Data)
}

// Region is one scan: an x-axis, aggregate counts and the raw and extended
// channel signals sharing that axis.
type Region struct {
	// Name is unique within the owning group
	Name string

	// GroupID is the index of the owning group within its file
	GroupID int

	ScanMode ScanMode

	BindingAxis    []float64
	ExcitationAxis []float64
	KineticAxis    []float64
	TimeAxis       []float64

	// Counts is the aggregate signal, recomputed from the selected channel_counts
	Counts []float64

	ChannelCounts    Channels
	ExtendedChannels Channels

	// Acquisition metadata reported in export headers
	DwellTime        float64
	PassEnergy       float64
	AnalyzerLens     string
	ExcitationEnergy float64
	KineticEnergy    float64
}

// Axis returns the axis information for the region's scan mode
func (r *Region) Axis() AxisInfo {
	return LookupAxis(r.ScanMode)
}

// XAxis returns the x-axis array selected by the scan mode.
func (r *Region) XAxis() []float64 {
	switch r.Axis().Axis {
	case BindingAxis:
		return r.BindingAxis
	case ExcitationAxis:
		return r.ExcitationAxis
	case TimeAxis:
		return r.TimeAxis
	default:
		return r.KineticAxis
	}
}

// Len returns the number of samples N.
func (r *Region) Len() int {
	return len(r.Counts)
}

// Group is a named ordered sequence of regions
type Group struct {
	ID      int
	Name    string
	Regions []*Region
}

// File is an ordered sequence of groups loaded by one open operation
type File struct {
	Name   string
	Groups []*Group
}

// RegionRef addresses a region within a file by group and region index.
type RegionRef struct {
	Group  int
	Region int
}

// Region resolves a reference, returning nil when it is out of range.
func (f *File) Region(ref RegionRef) *Region {
	if f == nil || ref.Group < 0 || ref.Group >= len(f.Groups) {
		return nil
	}
	g := f.Groups[ref.Group]
	if ref.Region < 0 || ref.Region >= len(g.Regions) {
		return nil
	}
	return g.Regions[ref.Region]
}

// Refs returns references to every region in file order.
func (f *File) Refs() []RegionRef {
	if f == nil {
		return nil
	}
	var refs []RegionRef
	for gi, g := range f.Groups {
		for ri := range g.Regions {
			refs = append(refs, RegionRef{Group: gi, Region: ri})
		}
	}
	return refs
}

// Find returns the reference of the region with the given group and region names.
func (f *File) Find(group, region string) (RegionRef, bool) {
	if f == nil {
		return RegionRef{}, false
	}
	for gi, g := range f.Groups {
		if g.Name != group {
			continue
		}
		for ri, r := range g.Regions {
			if r.Name == region {
				return RegionRef{Group: gi, Region: ri}, true
			}
		}
	}
	return RegionRef{}, false
}
