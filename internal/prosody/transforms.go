package prosody

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultLegendreOrder is the number of coefficients returned when callers
// do not choose an order.
const DefaultLegendreOrder = 3

var (
	// ErrTooShort is returned when a statistic needs at least two samples.
	ErrTooShort = errors.New("contour has fewer than 2 values")
	// ErrNonPositive is returned when a semitone conversion meets a value or
	// reference frequency that is not strictly positive.
	ErrNonPositive = errors.New("semitone conversion requires positive values")
)

// HzToSemitones converts each frequency to semitones relative to ref:
// 12*log2(v/ref). NaN values pass through unchanged.
func HzToSemitones(contour []float64, ref float64) ([]float64, error) {
	if !(ref > 0) {
		return nil, fmt.Errorf("reference %v: %w", ref, ErrNonPositive)
	}
	out := make([]float64, len(contour))
	for i, v := range contour {
		if math.IsNaN(v) {
			out[i] = v
			continue
		}
		if v <= 0 {
			return nil, fmt.Errorf("value %v at index %d: %w", v, i, ErrNonPositive)
		}
		out[i] = 12 * math.Log2(v/ref)
	}
	return out, nil
}

// ZScore standardizes the contour with its mean and population standard
// deviation (ddof 0). A contour with zero spread yields NaN values.
func ZScore(contour []float64) ([]float64, error) {
	if len(contour) < 2 {
		return nil, ErrTooShort
	}
	mean, variance := stat.PopMeanVariance(contour, nil)
	return Standardize(contour, mean, math.Sqrt(variance)), nil
}

// Standardize returns (v-mean)/sd for every value. It is the building block
// for z-scoring against statistics pooled over more than one contour.
func Standardize(contour []float64, mean, sd float64) []float64 {
	out := make([]float64, len(contour))
	for i, v := range contour {
		out[i] = (v - mean) / sd
	}
	return out
}

// Mean returns the arithmetic mean.
func Mean(contour []float64) (float64, error) {
	if len(contour) < 2 {
		return math.NaN(), ErrTooShort
	}
	return stat.Mean(contour, nil), nil
}

// Range returns max - min. Any NaN makes the result NaN.
func Range(contour []float64) (float64, error) {
	if len(contour) < 2 {
		return math.NaN(), ErrTooShort
	}
	if floats.HasNaN(contour) {
		return math.NaN(), nil
	}
	return floats.Max(contour) - floats.Min(contour), nil
}

// StdDev returns the sample standard deviation (N-1 denominator).
func StdDev(contour []float64) (float64, error) {
	if len(contour) < 2 {
		return math.NaN(), ErrTooShort
	}
	return stat.StdDev(contour, nil), nil
}

// Legendre projects the contour onto the first order Legendre polynomials.
// The samples are placed at N evenly spaced points on [-1, 1] (endpoints
// included) and coefficient k is (2/N) * sum f(x_i) P_k(x_i).
func Legendre(contour []float64, order int) ([]float64, error) {
	if order < 1 {
		return nil, fmt.Errorf("legendre order %d: must be at least 1", order)
	}
	n := len(contour)
	if n < 2 {
		return nil, ErrTooShort
	}

	x := make([]float64, n)
	floats.Span(x, -1, 1)

	coeffs := make([]float64, order)
	basis := make([]float64, n)
	scale := 2 / float64(n)
	for k := range coeffs {
		for i, xi := range x {
			basis[i] = LegendrePolynomial(k, xi)
		}
		coeffs[k] = scale * floats.Dot(contour, basis)
	}
	return coeffs, nil
}

// LegendrePolynomial evaluates P_k at x with Bonnet's recurrence,
// k P_k = (2k-1) x P_{k-1} - (k-1) P_{k-2}.
func LegendrePolynomial(k int, x float64) float64 {
	switch {
	case k <= 0:
		return 1
	case k == 1:
		return x
	}
	p0, p1 := 1.0, x
	for j := 2; j <= k; j++ {
		p0, p1 = p1, (float64(2*j-1)*x*p1-float64(j-1)*p0)/float64(j)
	}
	return p1
}

// Sentinel returns the two-value missing contour used when a measurement is
// unavailable.
func Sentinel() []float64 {
	return []float64{math.NaN(), math.NaN()}
}

// IsSentinel reports whether every value in the contour is NaN.
func IsSentinel(contour []float64) bool {
	if len(contour) == 0 {
		return false
	}
	for _, v := range contour {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
