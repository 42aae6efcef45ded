package image

import (
	"errors"
	"fmt"

	"github.com/camerasuite/its-go/capture"
)

// ErrUnsupportedCFA is returned for color filter arrangements that are not a
// 2x2 Bayer pattern.
var ErrUnsupportedCFA = errors.New("unsupported color filter arrangement")

// Bayer channels, in canonical order.
const (
	ChannelR = iota
	ChannelGr
	ChannelGb
	ChannelB
)

// BayerChannels names the channels in canonical order.
var BayerChannels = []string{"R", "Gr", "Gb", "B"}

// CanonicalCFAOrder returns, for R, Gr, Gb and B, the position in the
// top-left 2x2 Bayer grid, numbered 0-3 in row major order.
func CanonicalCFAOrder(props *capture.Properties) ([4]int, error) {
	if props == nil || props.ColorFilterArrangement == nil {
		return [4]int{}, fmt.Errorf("%w: not declared", ErrUnsupportedCFA)
	}
	switch cfa := *props.ColorFilterArrangement; cfa {
	case capture.CFARGGB:
		return [4]int{0, 1, 2, 3}, nil
	case capture.CFAGRBG:
		return [4]int{1, 0, 3, 2}, nil
	case capture.CFAGBRG:
		return [4]int{2, 3, 0, 1}, nil
	case capture.CFABGGR:
		return [4]int{3, 2, 1, 0}, nil
	default:
		return [4]int{}, fmt.Errorf("%w: %d", ErrUnsupportedCFA, cfa)
	}
}

// BlackLevels returns the black level of each channel in canonical order.
// The dynamic black level from a capture result is used if it has four
// values, otherwise the static black level pattern of the device.
func BlackLevels(props *capture.Properties, dynamic []float64) ([4]float64, error) {
	var r [4]float64
	order, err := CanonicalCFAOrder(props)
	if err != nil {
		return r, err
	}
	var levels []float64
	switch {
	case len(dynamic) == 4:
		levels = dynamic
	case len(props.BlackLevelPattern) == 4:
		for _, v := range props.BlackLevelPattern {
			levels = append(levels, float64(v))
		}
	default:
		return r, fmt.Errorf("%w: no black level pattern", capture.ErrUnsupportedCapability)
	}
	for ch, i := range order {
		r[ch] = levels[i]
	}
	return r, nil
}

// BlackLevel returns the black level for one channel, see BlackLevels.
func BlackLevel(ch int, props *capture.Properties, dynamic []float64) (float64, error) {
	if ch < ChannelR || ch > ChannelB {
		return 0, fmt.Errorf("invalid channel %d", ch)
	}
	levels, err := BlackLevels(props, dynamic)
	if err != nil {
		return 0, err
	}
	return levels[ch], nil
}
