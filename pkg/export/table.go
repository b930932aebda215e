package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"sinspect/internal/models"
	"sinspect/pkg/normalization"
	"sinspect/pkg/selection"
)

// ErrorValue replaces inf and NaN produced while normalising.
const ErrorValue = -1

// Table is the column data of one region ready to be written.
type Table struct {
	// Metadata is the free text of the first header line
	Metadata string

	// Titles holds one title per column, in column order
	Titles []string

	// Columns holds the column data; all columns have the same length
	Columns [][]float64
}

func (t *Table) add(title string, ys []float64) {
	t.Titles = append(t.Titles, title)
	t.Columns = append(t.Columns, ys)
}

// Matrix returns the table as an N x columns matrix.
func (t *Table) Matrix() *mat.Dense {
	if len(t.Columns) == 0 || len(t.Columns[0]) == 0 {
		return nil
	}
	n := len(t.Columns[0])
	m := mat.NewDense(n, len(t.Columns), nil)
	for j, col := range t.Columns {
		m.SetCol(j, col)
	}
	return m
}

// Sanitize replaces every inf and NaN in m by ErrorValue and returns how many
// values were replaced.
func Sanitize(m *mat.Dense) int {
	if m == nil {
		return 0
	}
	replaced := 0
	m.Apply(func(_, _ int, v float64) float64 {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			replaced++
			return ErrorValue
		}
		return v
	}, m)
	return replaced
}

// BuildTable assembles the x-axis, counts, selected channel and extended
// channel columns of a region, each normalised under ctx, plus the denominator
// column in double mode. Metadata is filled in even when an error is returned.
func BuildTable(region *models.Region, sel *selection.State, ctx normalization.Context) (*Table, error) {
	t := &Table{Metadata: Metadata(region, ctx)}
	t.add(region.Axis().Label, append([]float64(nil), region.XAxis()...))

	if sel.CountsEnabled() {
		ys, err := normalization.Normalize(ctx, region, sel.Counts(), selection.CountsID)
		if err != nil {
			return t, err
		}
		t.add("Counts "+sel.CountsLabel(), ys)
	}

	for _, i := range sel.SelectedChannels() {
		ys, err := normalization.Normalize(ctx, region, region.ChannelCounts.Column(i), selection.Channel(i))
		if err != nil {
			return t, err
		}
		t.add(fmt.Sprintf("Channel %d counts", i), ys)
	}

	for _, i := range sel.SelectedExtended() {
		ys, err := normalization.Normalize(ctx, region, region.ExtendedChannels.Column(i), selection.Extended(i))
		if err != nil {
			return t, err
		}
		t.add(fmt.Sprintf("Extended channel %d", i), ys)
	}

	if ctx.Mode == normalization.Double {
		ys, err := normalization.Denominator(ctx)
		if err != nil {
			return t, err
		}
		t.add(referenceLabel(ctx.Double), ys)
	}
	return t, nil
}

// Metadata builds the free text of the first header line.
func Metadata(region *models.Region, ctx normalization.Context) string {
	var b strings.Builder
	switch ctx.Mode {
	case normalization.Single:
		fmt.Fprintf(&b, "Normalised to extended channel %d, ", ctx.SingleRef)
	case normalization.Double:
		if ctx.Double != nil && ctx.Double.Region != nil {
			fmt.Fprintf(&b, "Double normalised %d to %s, ", ctx.Double.Denominator, referenceLabel(ctx.Double))
		}
	}
	fmt.Fprintf(&b, "Analyzer mode:%s", region.ScanMode)
	fmt.Fprintf(&b, ", Dwell time:%s", formatMeta(region.DwellTime))
	fmt.Fprintf(&b, ", Pass energy:%s", formatMeta(region.PassEnergy))
	fmt.Fprintf(&b, ", Lens mode:%s", region.AnalyzerLens)
	switch region.ScanMode {
	case models.FixedAnalyzerTransmission:
		fmt.Fprintf(&b, ", Excitation energy:%s", formatMeta(region.ExcitationEnergy))
	case models.ConstantFinalState:
		fmt.Fprintf(&b, ", Kinetic energy:%s", formatMeta(region.KineticEnergy))
	}
	return b.String()
}

// referenceLabel names the double normalisation reference as
// <region>:<selector>/<denominator>, e.g. "Au4f:Counts 1+2/3".
func referenceLabel(ref *normalization.Reference) string {
	if ref == nil || ref.Region == nil {
		return ""
	}
	s := ref.Numerator.String()
	if ref.Numerator.Counts && ref.Selection != nil {
		s = "Counts " + ref.Selection.CountsLabel()
	}
	return fmt.Sprintf("%s:%s/%d", ref.Region.Name, s, ref.Denominator)
}

func formatMeta(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}
