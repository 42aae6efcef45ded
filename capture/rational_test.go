package capture_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/camerasuite/its-go/capture"
)

func TestFloatToRational(t *testing.T) {
	testCases := []struct {
		f     float64
		denom int64
		exp   capture.Rational
	}{
		{1.0, 128, capture.Rational{128, 128}},
		{0.5, 128, capture.Rational{64, 128}},
		{-0.25, 128, capture.Rational{-32, 128}},
		{1.0 / 3, 128, capture.Rational{43, 128}},
		// Exactly half rounds up.
		{0.5, 1, capture.Rational{1, 1}},
		{-0.5, 1, capture.Rational{0, 1}},
		{2.7, 10, capture.Rational{27, 10}},
		{0.1, 0, capture.Rational{13, 128}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.exp, capture.FloatToRational(tc.f, tc.denom), "FloatToRational(%v, %d)", tc.f, tc.denom)
	}
}

func TestRationalRoundTrip(t *testing.T) {
	for _, denom := range []int64{1, 10, 128, 1000} {
		for _, f := range []float64{0, 0.001, 0.3, 1.7, -2.45, 100.123, math.Pi} {
			r := capture.FloatToRational(f, denom)
			assert.InDelta(t, f, r.Float64(), 1/float64(denom), "round trip of %v with denominator %d", f, denom)
		}
	}
}

func TestRationalLists(t *testing.T) {
	fl := []float64{0.5, 1, 1.5}
	rl := capture.FloatsToRationals(fl, 2)
	assert.Equal(t, []capture.Rational{{1, 2}, {2, 2}, {3, 2}}, rl)
	assert.Equal(t, fl, capture.RationalsToFloats(rl))

	il := capture.IntsToRationals([]int64{-3, 0, 7})
	assert.Equal(t, []capture.Rational{{-3, 1}, {0, 1}, {7, 1}}, il)
	for i, v := range []int64{-3, 0, 7} {
		assert.Equal(t, float64(v), il[i].Float64())
	}
	assert.Empty(t, capture.RationalsToFloats(nil))
}

func TestIntToRational(t *testing.T) {
	for _, i := range []int64{math.MinInt32, -1, 0, 1, 1 << 40} {
		r := capture.IntToRational(i)
		assert.Equal(t, int64(1), r.Denominator)
		assert.Equal(t, float64(i), r.Float64())
	}
	assert.Equal(t, "5/1", capture.IntToRational(5).String())
}
