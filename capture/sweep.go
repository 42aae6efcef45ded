package capture

import (
	"fmt"
	"math"
)

const (
	// Exposures below this many nanoseconds use the short step.
	sweepLongThreshold = 1e6

	sweepTailRatio = 0.99
)

var (
	sweepShortStep = math.Pow(2, 1.0/3)  // 3 steps per doubling.
	sweepLongStep  = math.Pow(10, 1.0/3) // 3 steps per decade.
)

// ExposureSweep returns exposure times in nanoseconds from eMin up to eMax,
// growing geometrically: 3 steps per doubling below 1ms, 3 steps per decade
// above. If the last step falls more than 1% short of eMax, eMax is appended.
// The result is strictly increasing.
func ExposureSweep(eMin, eMax int64) ([]int64, error) {
	if eMin <= 0 || eMin > eMax {
		return nil, fmt.Errorf("invalid exposure range [%d, %d]", eMin, eMax)
	}

	var l []int64
	mult := 1.0
	for {
		e := float64(eMin) * mult
		if e >= float64(eMax) {
			break
		}
		v := int64(e)
		if len(l) == 0 || v > l[len(l)-1] {
			l = append(l, v)
		}
		if e < sweepLongThreshold {
			mult *= sweepShortStep
		} else {
			mult *= sweepLongStep
		}
	}
	if len(l) == 0 || float64(l[len(l)-1]) < float64(eMax)*sweepTailRatio {
		l = append(l, eMax)
	}
	return l, nil
}
