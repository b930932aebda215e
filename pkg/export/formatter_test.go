package export

import (
	"bufio"
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"sinspect/internal/models"
	"sinspect/pkg/normalization"
	"sinspect/pkg/selection"
)

// cfsRegion is a ConstantFinalState region with two channel_counts columns and
// two extended channels; extended channel 2 has a zero at sample 1.
func cfsRegion(name string) *models.Region {
	return &models.Region{
		Name:           name,
		ScanMode:       models.ConstantFinalState,
		ExcitationAxis: []float64{280, 280.5, 281},
		KineticAxis:    []float64{10, 10, 10},
		Counts:         []float64{5, 7, 9},
		ChannelCounts: models.Channels{Data: mat.NewDense(3, 2, []float64{
			1, 4,
			2, 5,
			3, 6,
		})},
		ExtendedChannels: models.Channels{Data: mat.NewDense(3, 2, []float64{
			1, 2,
			1, 0,
			1, 4,
		})},
		DwellTime:     0.1,
		PassEnergy:    20,
		AnalyzerLens:  "LargeArea",
		KineticEnergy: 10,
	}
}

// countsOnlyRegion carries aggregate counts but no channel columns.
func countsOnlyRegion() *models.Region {
	return &models.Region{
		Name:             "Survey",
		ScanMode:         models.FixedEnergies,
		TimeAxis:         []float64{0, 1, 2},
		Counts:           []float64{5, 4, 3},
		ChannelCounts:    models.ZeroChannels(3, true),
		ExtendedChannels: models.ZeroChannels(3, false),
		DwellTime:        0.5,
		PassEnergy:       100,
		AnalyzerLens:     "WideAngle",
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestExportRegion_CountsOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Group1")
	r := countsOnlyRegion()

	res := ExportRegion(r, selection.New(r), normalization.Context{}, DefaultOptions(), dir)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, filepath.Join(dir, "Survey.xy"), res.Path)

	assert.Equal(t, []string{
		`#"Analyzer mode:FixedEnergies, Dwell time:0.5, Pass energy:100, Lens mode:WideAngle"`,
		"#\"Time (s)\"\t\"Counts \"",
		"0\t5",
		"1\t4",
		"2\t3",
	}, readLines(t, res.Path))
}

func TestExportRegion_ConstantFinalStateHeader(t *testing.T) {
	dir := t.TempDir()
	r := cfsRegion("Carbon")
	sel := selection.New(r)
	require.NoError(t, sel.Toggle(selection.Extended(1)))

	opts := DefaultOptions()
	opts.Delimiter = Comma
	res := ExportRegion(r, sel, normalization.Context{}, opts, dir)
	require.True(t, res.OK, res.Message)

	lines := readLines(t, res.Path)
	require.Len(t, lines, 5)
	assert.Equal(t, `#"Analyzer mode:ConstantFinalState, Dwell time:0.1, Pass energy:20, Lens mode:LargeArea, Kinetic energy:10"`, lines[0])
	assert.Equal(t, `#"Excitation energy (eV)","Counts 1+2","Channel 1 counts","Channel 2 counts","Extended channel 1"`, lines[1])
	assert.Equal(t, "280,5,1,4,1", lines[2])
	assert.Equal(t, "280.5,7,2,5,1", lines[3])
}

func TestExportRegion_ZeroReferenceWritesErrorFile(t *testing.T) {
	dir := t.TempDir()
	r := cfsRegion("Carbon")
	ctx := normalization.Context{Mode: normalization.Single, SingleRef: 2}

	res := ExportRegion(r, selection.New(r), ctx, DefaultOptions(), dir)
	assert.False(t, res.OK)
	assert.Equal(t, "Errors generated while normalising have been set to -1", res.Message)
	assert.Equal(t, filepath.Join(dir, "ERRORS_Carbon.xy"), res.Path)

	_, err := os.Stat(filepath.Join(dir, "Carbon.xy"))
	assert.True(t, os.IsNotExist(err))

	lines := readLines(t, res.Path)
	require.Len(t, lines, 6)
	assert.Equal(t, "# ERRORS: Errors generated while normalising have been set to -1", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `#"Normalised to extended channel 2, Analyzer mode:ConstantFinalState`))
	assert.Equal(t, "280\t2.5\t0.5\t2", lines[3])
	assert.Equal(t, "280.5\t-1\t-1\t-1", lines[4])
	assert.Equal(t, "281\t2.25\t0.75\t1.5", lines[5])
}

func TestExportRegion_MismatchedAxesWritesErrorOnlyFile(t *testing.T) {
	dir := t.TempDir()
	r := cfsRegion("Carbon")
	ref := cfsRegion("Reference")
	ref.ExcitationAxis = []float64{290, 290.5, 291}

	ctx := normalization.Context{
		Mode: normalization.Double,
		Double: &normalization.Reference{
			Region:      ref,
			Numerator:   normalization.ChannelSelector(1),
			Denominator: 2,
		},
	}
	res := ExportRegion(r, selection.New(r), ctx, DefaultOptions(), dir)
	assert.False(t, res.OK)
	assert.Equal(t, "Energy ranges differ in double normalisation reference Reference:1/2", res.Message)

	lines := readLines(t, res.Path)
	assert.Equal(t, []string{
		"# ERRORS: Energy ranges differ in double normalisation reference Reference:1/2",
		`#"Double normalised 2 to Reference:1/2, Analyzer mode:ConstantFinalState, Dwell time:0.1, Pass energy:20, Lens mode:LargeArea, Kinetic energy:10"`,
	}, lines)
}

func TestExportRegion_DoubleAddsDenominatorColumn(t *testing.T) {
	dir := t.TempDir()
	r := cfsRegion("Carbon")
	ref := cfsRegion("Reference")
	ref.ExtendedChannels = models.Channels{Data: mat.NewDense(3, 2, []float64{
		4, 2,
		6, 3,
		8, 4,
	})}
	refSel := selection.New(ref)

	ctx := normalization.Context{
		Mode: normalization.Double,
		Double: &normalization.Reference{
			Region:      ref,
			Selection:   refSel,
			Numerator:   normalization.CountsSelector,
			Denominator: 1,
		},
	}
	sel := selection.New(r)
	sel.SetAll(false, func(id selection.ID) bool { return id.Kind != selection.Counts })

	res := ExportRegion(r, sel, ctx, DefaultOptions(), dir)
	require.True(t, res.OK, res.Message)

	lines := readLines(t, res.Path)
	require.Len(t, lines, 5)
	assert.Equal(t, "#\"Excitation energy (eV)\"\t\"Counts \"\t\"Reference:Counts 1+2/1\"", lines[1])
	// Counts of r are zero once every channel is off.
	assert.Equal(t, "280\t0\t1.25", lines[2])
}

func TestExportRegion_NoHeader(t *testing.T) {
	dir := t.TempDir()
	r := countsOnlyRegion()
	opts := DefaultOptions()
	opts.IncludeHeader = false
	opts.Delimiter = Space

	res := ExportRegion(r, selection.New(r), normalization.Context{}, opts, dir)
	require.True(t, res.OK)
	assert.Equal(t, []string{"0 5", "1 4", "2 3"}, readLines(t, res.Path))
}

func TestExportRegion_ExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := countsOnlyRegion()
	for i := 0; i < 2; i++ {
		res := ExportRegion(r, selection.New(r), normalization.Context{}, DefaultOptions(), dir)
		require.True(t, res.OK, res.Message)
	}
}

func TestExportRegion_UnwritableDirectory(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	r := countsOnlyRegion()
	res := ExportRegion(r, selection.New(r), normalization.Context{}, DefaultOptions(), filepath.Join(blocker, "sub"))
	assert.False(t, res.OK)
	assert.Empty(t, res.Path)
	assert.Contains(t, res.Message, "error creating directory")
}

func TestFileNameReplacesSeparators(t *testing.T) {
	assert.Equal(t, "C 1s_fine.xy", fileName("C 1s/fine"))
}

func TestWrite_FormatsEightSignificantDigits(t *testing.T) {
	table := &Table{Metadata: "m", Titles: []string{"x", "y"}}
	data := mat.NewDense(1, 2, []float64{1.0 / 3, 123456789.0})

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, Write(w, table, data, "", DefaultOptions()))
	require.NoError(t, w.Flush())

	assert.Equal(t, "#\"m\"\n#\"x\"\t\"y\"\n0.33333333\t1.2345679e+08\n", buf.String())
}

func TestSanitize(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, math.Inf(1), math.NaN(), 4})
	assert.Equal(t, 2, Sanitize(m))
	assert.Equal(t, []float64{1, -1, -1, 4}, m.RawMatrix().Data)
	assert.Equal(t, 0, Sanitize(nil))
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]Delimiter{"": Tab, "tab": Tab, "space": Space, "comma": Comma} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDelimiter("pipe")
	assert.Error(t, err)
}

func TestFailureMessage(t *testing.T) {
	single := normalization.Context{Mode: normalization.Single, SingleRef: 4}
	tests := []struct {
		name string
		ctx  normalization.Context
		err  error
		want string
	}{
		{
			name: "missing reference",
			ctx:  normalization.Context{Mode: normalization.Double},
			err:  normalization.ErrNoReference,
			want: "Double normalisation requested without a reference region",
		},
		{
			name: "length mismatch",
			ctx:  single,
			err:  &normalization.NumericError{Series: "counts", Reason: "length 2 does not match reference length 3"},
			want: "Normalisation failed: cannot normalise counts: length 2 does not match reference length 3",
		},
		{
			name: "other",
			ctx:  single,
			err:  errors.New("boom"),
			want: "Unexpected floating point errors normalising to Extended channel 4: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureMessage(tt.ctx, tt.err))
		})
	}
}

func TestExportRegion_DoubleWithoutReference(t *testing.T) {
	dir := t.TempDir()
	r := cfsRegion("Carbon")
	res := ExportRegion(r, selection.New(r), normalization.Context{Mode: normalization.Double}, DefaultOptions(), dir)

	assert.False(t, res.OK)
	assert.Equal(t, "Double normalisation requested without a reference region", res.Message)
	assert.FileExists(t, filepath.Join(dir, "ERRORS_Carbon.xy"))
}
