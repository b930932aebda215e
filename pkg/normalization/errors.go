package normalization

import (
	"errors"
	"fmt"
)

// MismatchedAxesError is returned in double mode when the target region and the
// reference region do not share a compatible x-axis.
type MismatchedAxesError struct {
	Region    string
	Reference string
}

func (e *MismatchedAxesError) Error() string {
	return fmt.Sprintf("x-axis of region %q does not match normalisation reference %q", e.Region, e.Reference)
}

// IsMismatchedAxes reports whether err is or wraps a *MismatchedAxesError.
func IsMismatchedAxes(err error) bool {
	var e *MismatchedAxesError
	return errors.As(err, &e)
}

// NumericError reports arrays that cannot be divided elementwise, such as a
// series whose length differs from its reference channel.
type NumericError struct {
	Series string
	Reason string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("cannot normalise %s: %s", e.Series, e.Reason)
}

// IsNumeric reports whether err is or wraps a *NumericError.
func IsNumeric(err error) bool {
	var e *NumericError
	return errors.As(err, &e)
}

// ErrNoReference is returned in double mode when no reference region is set.
var ErrNoReference = errors.New("no double normalisation reference region set")
