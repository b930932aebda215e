// Package axis checks whether two regions share a compatible x-axis, which is
// required before one region can serve as a normalization reference for another.
package axis

import (
	"math"

	"sinspect/internal/models"
)

// DefaultRTol is the fraction of one sample spacing within which the endpoints
// of two axes must agree.
const DefaultRTol = 1e-6

// Endpoints returns the first and last x-axis values of a region and the number
// of samples.
func Endpoints(r *models.Region) (x0, xn float64, n int) {
	xs := r.XAxis()
	n = len(xs)
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	return xs[0], xs[n-1], n
}

// spacing returns the absolute sample spacing of an axis.
func spacing(x0, xn float64, n int) float64 {
	if n < 2 {
		return 0
	}
	return math.Abs(xn-x0) / float64(n-1)
}

// Compatible reports whether the x-axes of a and b have the same number of
// samples and matching endpoints within rtol of one sample spacing. The smaller
// spacing of the two axes sets the tolerance so the check is symmetric.
//
// The result is never cached: either axis may change when a file is reloaded.
func Compatible(a, b *models.Region, rtol float64) bool {
	if a == nil || b == nil {
		return false
	}
	a0, an, na := Endpoints(a)
	b0, bn, nb := Endpoints(b)
	if na == 0 || na != nb {
		return false
	}

	atol := math.Min(spacing(a0, an, na), spacing(b0, bn, nb)) * rtol
	return withinTol(a0, b0, atol) && withinTol(an, bn, atol)
}

func withinTol(a, b, atol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= atol
}
