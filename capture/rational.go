package capture

import (
	"fmt"
	"math"
)

// DefaultDenominator is the denominator used when converting floats to
// rationals.
const DefaultDenominator = 128

// Rational is a fixed-point fraction as used in capture requests and results.
// Denominator must be > 0.
type Rational struct {
	Numerator   int64 `json:"numerator"`
	Denominator int64 `json:"denominator"`
}

// FloatToRational converts f to a rational with the given denominator,
// rounding half up. A denom <= 0 selects DefaultDenominator.
func FloatToRational(f float64, denom int64) Rational {
	if denom <= 0 {
		denom = DefaultDenominator
	}
	return Rational{int64(math.Floor(f*float64(denom) + 0.5)), denom}
}

// FloatsToRationals converts each element with FloatToRational.
func FloatsToRationals(l []float64, denom int64) []Rational {
	r := make([]Rational, len(l))
	for i, f := range l {
		r[i] = FloatToRational(f, denom)
	}
	return r
}

// IntToRational returns i as a rational with denominator 1.
func IntToRational(i int64) Rational {
	return Rational{i, 1}
}

// IntsToRationals converts each element with IntToRational.
func IntsToRationals(l []int64) []Rational {
	r := make([]Rational, len(l))
	for i, v := range l {
		r[i] = IntToRational(v)
	}
	return r
}

// Float64 returns the value of the rational.
func (r Rational) Float64() float64 {
	return float64(r.Numerator) / float64(r.Denominator)
}

// String returns the rational as "n/d".
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// RationalsToFloats converts each element with Rational.Float64.
func RationalsToFloats(l []Rational) []float64 {
	r := make([]float64, len(l))
	for i, v := range l {
		r[i] = v.Float64()
	}
	return r
}
