// Package export writes regions to delimited .xy text files, one file per
// region under a directory per group.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"sinspect/internal/models"
	"sinspect/pkg/normalization"
	"sinspect/pkg/selection"
)

const (
	// Extension of exported files
	Extension = ".xy"

	// ErrorPrefix is prepended to the filename of regions exported with errors
	ErrorPrefix = "ERRORS_"

	msgInvalidValues = "Errors generated while normalising have been set to -1"
)

// Result is the outcome of exporting one region.
type Result struct {
	Group  string
	Region string

	// Path is the file written, empty if nothing could be written
	Path string

	// OK is false when normalising produced errors or the file could not be written
	OK bool

	// Message describes the failure when OK is false
	Message string
}

// ExportRegion writes region to dir as <name>.xy, or ERRORS_<name>.xy when
// normalising produced invalid values or failed. The directory is created if
// needed. Failures are reported in the Result, never as a panic or error.
func ExportRegion(region *models.Region, sel *selection.State, ctx normalization.Context, opts Options, dir string) Result {
	res := Result{Region: region.Name, OK: true}

	table, err := BuildTable(region, sel, ctx)
	var data *mat.Dense
	if err != nil {
		res.OK = false
		res.Message = failureMessage(ctx, err)
	} else {
		data = table.Matrix()
		if Sanitize(data) > 0 {
			res.OK = false
			res.Message = msgInvalidValues
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		res.OK = false
		res.Message = fmt.Sprintf("error creating directory %s: %v", dir, err)
		return res
	}

	name := fileName(region.Name)
	if !res.OK {
		name = ErrorPrefix + name
	}
	path := filepath.Join(dir, name)

	if err := writeFile(path, table, data, res.Message, opts); err != nil {
		res.OK = false
		res.Message = fmt.Sprintf("error writing %s: %v", path, err)
		return res
	}
	res.Path = path
	opts.logf("%s written", path)
	return res
}

// failureMessage describes an error that stopped column building.
func failureMessage(ctx normalization.Context, err error) string {
	switch {
	case normalization.IsMismatchedAxes(err):
		return fmt.Sprintf("Energy ranges differ in double normalisation reference %s", referenceLabel(ctx.Double))
	case errors.Is(err, normalization.ErrNoReference):
		return "Double normalisation requested without a reference region"
	case normalization.IsNumeric(err):
		return fmt.Sprintf("Normalisation failed: %v", err)
	}
	ref := ctx.SingleRef
	if ctx.Mode == normalization.Double && ctx.Double != nil {
		ref = ctx.Double.Denominator
	}
	return fmt.Sprintf("Unexpected floating point errors normalising to Extended channel %d: %v", ref, err)
}

// fileName keeps region names from escaping the group directory.
func fileName(region string) string {
	return separators.Replace(region) + Extension
}

var separators = strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_")

func writeFile(path string, table *Table, data *mat.Dense, errMsg string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Write(w, table, data, errMsg, opts); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write renders an optional "# ERRORS:" line, the optional header and the data
// rows. A nil data matrix writes no rows.
func Write(w *bufio.Writer, table *Table, data *mat.Dense, errMsg string, opts Options) error {
	sep := opts.Delimiter.Sep()
	if errMsg != "" {
		fmt.Fprintf(w, "# ERRORS: %s\n", errMsg)
	}
	if opts.IncludeHeader && table != nil {
		fmt.Fprintf(w, "#\"%s\"\n", table.Metadata)
		if data != nil {
			titles := make([]string, len(table.Titles))
			for i, t := range table.Titles {
				titles[i] = `"` + t + `"`
			}
			fmt.Fprintf(w, "#%s\n", strings.Join(titles, sep))
		}
	}
	if data == nil {
		return nil
	}

	rows, cols := data.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if j > 0 {
				w.WriteString(sep)
			}
			w.WriteString(formatValue(data.At(i, j)))
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	return nil
}
