package export

import (
	"fmt"
	"log"
)

// Delimiter is the column separator of exported files
type Delimiter string

const (
	Tab   Delimiter = "tab"
	Space Delimiter = "space"
	Comma Delimiter = "comma"
)

// Sep returns the separator string. Unknown delimiters fall back to a tab.
func (d Delimiter) Sep() string {
	switch d {
	case Space:
		return " "
	case Comma:
		return ","
	default:
		return "\t"
	}
}

// ParseDelimiter accepts tab, space or comma.
func ParseDelimiter(s string) (Delimiter, error) {
	switch d := Delimiter(s); d {
	case Tab, Space, Comma:
		return d, nil
	case "":
		return Tab, nil
	default:
		return "", fmt.Errorf("unknown delimiter %q (want tab, space or comma)", s)
	}
}

// Options controls how regions are written
type Options struct {
	// Delimiter separates columns in header and data rows
	Delimiter Delimiter

	// IncludeHeader writes the two descriptive header lines
	IncludeHeader bool

	// Workers is the number of regions written concurrently by ExportAll
	Workers int

	// Logger receives one line per written file; nil disables logging
	Logger *log.Logger
}

// DefaultOptions returns tab-delimited output with a header.
func DefaultOptions() Options {
	return Options{Delimiter: Tab, IncludeHeader: true, Workers: 1}
}

func (o Options) logf(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
