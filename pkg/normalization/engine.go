// Package normalization divides region signals by reference channels, either of
// the same region (single mode) or relative to a reference region (double mode).
//
// Division follows IEEE semantics: a zero in a reference channel yields inf or
// NaN in the result. Those values are returned as data and cleaned up by the
// export layer.
package normalization

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"sinspect/internal/models"
	"sinspect/pkg/axis"
	"sinspect/pkg/selection"
)

// Mode selects how signals are normalised
type Mode int

const (
	None Mode = iota
	Single
	Double
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Single:
		return "self"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Selector chooses the numerator signal M^R on the reference region: either its
// aggregate counts or one extended channel.
type Selector struct {
	Counts  bool
	Channel int
}

// CountsSelector selects the reference region's aggregate counts.
var CountsSelector = Selector{Counts: true}

// ChannelSelector selects extended channel i of the reference region.
func ChannelSelector(i int) Selector { return Selector{Channel: i} }

// String returns "Counts" or the channel index.
func (s Selector) String() string {
	if s.Counts {
		return "Counts"
	}
	return strconv.Itoa(s.Channel)
}

// ParseSelector parses "Counts" or an index 1-9.
func ParseSelector(v string) (Selector, error) {
	if v == "Counts" || v == "counts" {
		return CountsSelector, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid numerator selector %q", v)
	}
	if n < 1 || n > models.MaxChannels {
		return Selector{}, fmt.Errorf("numerator selector %d out of range 1-%d", n, models.MaxChannels)
	}
	return ChannelSelector(n), nil
}

// Reference is the double normalisation reference: a region, its current
// selection, the numerator selector and the denominator extended channel index.
type Reference struct {
	Region      *models.Region
	Selection   *selection.State
	Numerator   Selector
	Denominator int
}

// Context is the normalisation configuration in force for one computation.
type Context struct {
	Mode Mode

	// SingleRef is the extended channel index 1-9 used in single mode
	SingleRef int

	// Double is the reference used in double mode
	Double *Reference

	// RTol is the axis tolerance; zero means axis.DefaultRTol
	RTol float64
}

func (c Context) rtol() float64 {
	if c.RTol > 0 {
		return c.RTol
	}
	return axis.DefaultRTol
}

// Normalize returns the normalised values of series ys belonging to region.
// The input slice is never modified.
func Normalize(ctx Context, region *models.Region, ys []float64, series selection.ID) ([]float64, error) {
	switch ctx.Mode {
	case Single:
		return normalizeSingle(ctx, region, ys, series)
	case Double:
		return normalizeDouble(ctx, region, ys, series)
	default:
		return clone(ys), nil
	}
}

func normalizeSingle(ctx Context, region *models.Region, ys []float64, series selection.ID) ([]float64, error) {
	ref := ctx.SingleRef
	if ref < 1 || ref > models.MaxChannels {
		return nil, fmt.Errorf("single normalisation reference channel %d out of range", ref)
	}
	// The reference channel itself stays as is rather than flattening to 1.
	if series == selection.Extended(ref) {
		return clone(ys), nil
	}
	return divide(series.String(), ys, region.ExtendedChannels.Column(ref))
}

func normalizeDouble(ctx Context, region *models.Region, ys []float64, series selection.ID) ([]float64, error) {
	ref := ctx.Double
	if ref == nil || ref.Region == nil {
		return nil, ErrNoReference
	}
	if !axis.Compatible(region, ref.Region, ctx.rtol()) {
		return nil, &MismatchedAxesError{Region: region.Name, Reference: ref.Region.Name}
	}
	r := ref.Denominator
	if r < 1 || r > models.MaxChannels {
		return nil, fmt.Errorf("double normalisation denominator channel %d out of range", r)
	}
	if series == selection.Extended(r) {
		return clone(ys), nil
	}

	numer, err := divide(series.String(), ys, region.ExtendedChannels.Column(r))
	if err != nil {
		return nil, err
	}
	denom, err := Denominator(ctx)
	if err != nil {
		return nil, err
	}
	return divide(series.String(), numer, denom)
}

// Denominator returns the double normalisation denominator M^R / e^R_r of the
// reference region. When the numerator selector is Counts, M^R is the
// reference region's current aggregate counts, so it follows that region's
// channel selection.
func Denominator(ctx Context) ([]float64, error) {
	ref := ctx.Double
	if ref == nil || ref.Region == nil {
		return nil, ErrNoReference
	}

	var mr []float64
	switch {
	case ref.Numerator.Counts && ref.Selection != nil:
		mr = ref.Selection.Counts()
	case ref.Numerator.Counts:
		mr = ref.Region.Counts
	default:
		if ref.Numerator.Channel < 1 || ref.Numerator.Channel > models.MaxChannels {
			return nil, fmt.Errorf("double normalisation numerator channel %d out of range", ref.Numerator.Channel)
		}
		mr = ref.Region.ExtendedChannels.Column(ref.Numerator.Channel)
	}
	return divide("reference "+ref.Region.Name, mr, ref.Region.ExtendedChannels.Column(ref.Denominator))
}

// divide returns s / t elementwise.
func divide(series string, s, t []float64) ([]float64, error) {
	if len(s) != len(t) {
		return nil, &NumericError{
			Series: series,
			Reason: fmt.Sprintf("length %d does not match reference length %d", len(s), len(t)),
		}
	}
	dst := make([]float64, len(s))
	floats.DivTo(dst, s, t)
	return dst, nil
}

func clone(ys []float64) []float64 {
	return append([]float64(nil), ys...)
}
