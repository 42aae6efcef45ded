// Package rawexposure checks that RAW pixel values increase with exposure
// time, at several sensitivities.
package rawexposure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/camerasuite/its-go/capture"
	"github.com/camerasuite/its-go/check"
	"github.com/camerasuite/its-go/image"
)

// Name of the check.
const Name = "raw_exposure"

const (
	blackLevelRelTol  = 0.1
	saturationRelTol  = 0.01
	increaseThreshold = 0.99
)

// Opts are options for the check.
type Opts struct {
	// Requests per capture burst. Default 10.
	BurstLength int

	// Number of sensitivities tested, from the minimum sensitivity up to
	// the maximum analog sensitivity. Default 5.
	SensitivitySteps int

	// The statistics grid is Grid x Grid cells over the active array, the
	// center cell is measured. Default 9.
	Grid int
}

// Check is the raw exposure check.
type Check struct {
	opts Opts
}

// Ensure that Check implements interface check.Check.
var _ check.Check = (*Check)(nil)

// New returns a new raw exposure check.
func New(opts *Opts) *Check {
	c := &Check{}
	if opts != nil {
		c.opts = *opts
	}
	if c.opts.BurstLength <= 0 {
		c.opts.BurstLength = 10
	}
	if c.opts.SensitivitySteps <= 0 {
		c.opts.SensitivitySteps = 5
	}
	if c.opts.Grid <= 0 {
		c.opts.Grid = 9
	}
	return c
}

// Name returns the name of the check.
func (c *Check) Name() string {
	return Name
}

// Sensitivities returns the sensitivities to test: from the minimum declared
// sensitivity, in steps of (maxAnalog-min)/steps, below maxAnalog. If the
// step rounds to zero, consecutive values are tested. If maxAnalog is not
// above the minimum, only the minimum is tested.
func Sensitivities(props *capture.Properties, steps int) ([]int, error) {
	smin, err := props.MinSensitivity()
	if err != nil {
		return nil, err
	}
	smax := props.MaxAnalogSensitivity
	if smax <= smin {
		return []int{smin}, nil
	}
	step := max((smax-smin)/max(steps, 1), 1)
	var l []int
	for s := smin; s < smax; s += step {
		l = append(l, s)
	}
	return l, nil
}

func isClose(a, b, rtol float64) bool {
	return math.Abs(a-b) <= rtol*math.Max(math.Abs(a), math.Abs(b))
}

// AssertIncreasingMeans checks that each channel mean increases with
// exposure. means[0] holds the black levels, means[i] the image taken with
// exposure exps[i-1] in milliseconds. Checking stops at the first image
// with a channel within 1% of the white level. Images are skipped until all
// channels are 10% above black level. From then on, each channel must exceed
// 0.99 times its previous value.
func AssertIncreasingMeans(means [][4]float64, exps []float64, sens int, blackLevels [4]float64, whiteLevel float64) error {
	if len(exps) < len(means)-1 {
		return fmt.Errorf("got %d exposures for %d images", len(exps), len(means)-1)
	}
	var lower [4]float64
	for ch, b := range blackLevels {
		lower[ch] = b * (1 + blackLevelRelTol)
	}

	allowUnderSaturated := true
	for i := 1; i < len(means); i++ {
		prev, mean := means[i-1], means[i]

		maxMean := math.Max(math.Max(mean[0], mean[1]), math.Max(mean[2], mean[3]))
		if isClose(maxMean, whiteLevel, saturationRelTol) {
			break
		}

		if allowUnderSaturated {
			under := false
			for ch := range mean {
				if mean[ch] < lower[ch] {
					under = true
				}
			}
			if under {
				continue
			}
		}
		allowUnderSaturated = false

		for ch, color := range image.BayerChannels {
			if mean[ch] > prev[ch]*increaseThreshold {
				continue
			}
			msg := fmt.Sprintf("%s not increasing with exposure time, sensitivity %d, ", color, sens)
			if i == 1 {
				msg += fmt.Sprintf("black level %.2f, ", blackLevels[ch])
			} else {
				msg += fmt.Sprintf("previous exposure %.3fms mean %.2f, ", exps[i-2], prev[ch])
			}
			msg += fmt.Sprintf("exposure %.3fms mean %.2f, threshold %v", exps[i-1], mean[ch], increaseThreshold)
			return errors.New(msg)
		}
	}
	return nil
}

type measurement struct {
	Sensitivity  int          `json:"sensitivity"`
	ExposuresMs  []float64    `json:"exposuresMs"`
	BlackLevels  [4]float64   `json:"blackLevels"`
	WhiteLevel   float64      `json:"whiteLevel"`
	ChannelMeans [][4]float64 `json:"channelMeans"`
}

// Run captures RAW statistics over the exposure sweep at each sensitivity
// and verifies the center cell means increase.
func (c *Check) Run(ctx context.Context, env *check.Env) error {
	props := env.Props
	if !props.Raw16() || !props.ManualSensor() || !props.PerFrameControl() || props.MonoCamera() {
		return check.Skipf("needs raw16, manual sensor and per-frame control on a color camera")
	}

	emin, err := props.MinExposureTime()
	if err != nil {
		return err
	}
	exps, err := capture.ExposureSweep(emin, props.ExposureTimeRange[1])
	if err != nil {
		return err
	}
	expsMs := make([]float64, len(exps))
	for i, e := range exps {
		expsMs[i] = float64(e) * 1e-6
	}

	out, err := capture.RawStatsFormat(props, c.opts.Grid)
	if err != nil {
		return err
	}
	sens, err := Sensitivities(props, c.opts.SensitivitySteps)
	if err != nil {
		return err
	}
	blackLevels, err := image.BlackLevels(props, nil)
	if err != nil {
		return err
	}
	whiteLevel := float64(props.WhiteLevel)

	for _, s := range sens {
		var reqs []capture.Request
		for _, e := range exps {
			req, err := capture.ManualRequest(s, e, &capture.ManualOpts{FocusDistance: 0})
			if err != nil {
				return err
			}
			reqs = append(reqs, req)
		}

		means := [][4]float64{blackLevels}
		for _, burst := range capture.Bursts(reqs, c.opts.BurstLength) {
			caps, err := env.Session.DoCapture(ctx, burst, out)
			if err != nil {
				return fmt.Errorf("capturing at sensitivity %d: %w", s, err)
			}
			for _, cp := range caps {
				m, _, err := image.UnpackRawStats(cp)
				if err != nil {
					return err
				}
				x, y := c.opts.Grid/2, c.opts.Grid/2
				if x >= m.Width || y >= m.Height {
					return fmt.Errorf("rawStats grid %dx%d, expected %dx%d", m.Width, m.Height, c.opts.Grid, c.opts.Grid)
				}
				mean := m.At(x, y)
				if env.Verbose {
					log.Printf("sensitivity %d, exposure %.3fms, means %v", s, expsMs[len(means)-1], mean)
				}
				means = append(means, mean)
			}
		}

		if env.LogDir != "" {
			m := measurement{s, expsMs, blackLevels, whiteLevel, means[1:]}
			if err := writeJSON(filepath.Join(env.LogDir, fmt.Sprintf("%s_s=%d.json", Name, s)), m); err != nil {
				log.Printf("%s: %v", Name, err)
			}
		}

		if err := AssertIncreasingMeans(means, expsMs, s, blackLevels, whiteLevel); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("encoding measurements: %v", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing measurements: %v", err)
	}
	return nil
}
