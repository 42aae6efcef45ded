// Package gyrobias checks that the gyroscope output is stable while the
// device is stationary.
package gyrobias

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/capture"
	"github.com/camerasuite/its-go/check"
)

// Name of the check.
const Name = "gyro_bias"

// Opts are options for the check.
type Opts struct {
	// How long to record gyro events. Default 5s.
	Duration time.Duration

	// Number of consecutive events averaged into one sample. Default 20.
	Window int

	// The check fails if the mean or variance of the samples of any axis
	// reaches these. Defaults 0.01 and 0.001.
	MeanThreshold     float64
	VarianceThreshold float64
}

// Check is the gyro bias check.
type Check struct {
	opts Opts
}

// Ensure that Check implements interface check.Check.
var _ check.Check = (*Check)(nil)

// New returns a new gyro bias check.
func New(opts *Opts) *Check {
	c := &Check{}
	if opts != nil {
		c.opts = *opts
	}
	if c.opts.Duration <= 0 {
		c.opts.Duration = 5 * time.Second
	}
	if c.opts.Window <= 0 {
		c.opts.Window = 20
	}
	if c.opts.MeanThreshold <= 0 {
		c.opts.MeanThreshold = 0.01
	}
	if c.opts.VarianceThreshold <= 0 {
		c.opts.VarianceThreshold = 0.001
	}
	return c
}

// Name returns the name of the check.
func (c *Check) Name() string {
	return Name
}

// Samples are gyro readings averaged over windows of events.
type Samples struct {
	Times []float64 // Seconds since the first event, at the middle of each window.
	X     []float64
	Y     []float64
	Z     []float64
}

// Average returns the average per axis of each window of n consecutive
// events. Events that do not fill a whole window at the end are dropped.
func Average(events []its.SensorEvent, n int) (Samples, error) {
	var s Samples
	if n <= 0 {
		return s, fmt.Errorf("window must be > 0")
	}
	nwin := len(events) / n
	if nwin == 0 {
		return s, fmt.Errorf("got %d gyro events, need at least %d", len(events), n)
	}
	t0 := events[0].Time
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	for w := 0; w < nwin; w++ {
		for i, e := range events[w*n : (w+1)*n] {
			xs[i], ys[i], zs[i] = e.X, e.Y, e.Z
		}
		mid := events[w*n+n/2].Time
		s.Times = append(s.Times, float64(mid-t0)/float64(time.Second))
		s.X = append(s.X, stat.Mean(xs, nil))
		s.Y = append(s.Y, stat.Mean(ys, nil))
		s.Z = append(s.Z, stat.Mean(zs, nil))
	}
	return s, nil
}

// Verify checks the mean and population variance of each axis against the
// thresholds.
func (c *Check) Verify(s Samples, verbose bool) error {
	axes := []struct {
		name    string
		samples []float64
	}{
		{"x", s.X},
		{"y", s.Y},
		{"z", s.Z},
	}
	for _, a := range axes {
		mean, variance := stat.PopMeanVariance(a.samples, nil)
		if verbose {
			log.Printf("gyro %s: mean %.3e, variance %.3e, range [%.3e, %.3e]", a.name, mean, variance, floats.Min(a.samples), floats.Max(a.samples))
		}
		if mean >= c.opts.MeanThreshold {
			return fmt.Errorf("gyro %s mean %.3e, threshold %.3e", a.name, mean, c.opts.MeanThreshold)
		}
		if variance >= c.opts.VarianceThreshold {
			return fmt.Errorf("gyro %s variance %.3e, threshold %.3e", a.name, variance, c.opts.VarianceThreshold)
		}
	}
	return nil
}

// Run records gyro events while the device is stationary and verifies their
// averages.
func (c *Check) Run(ctx context.Context, env *check.Env) error {
	if env.Props == nil {
		return capture.ErrNoProperties
	}
	if !env.Props.SensorFusion() {
		return check.Skipf("camera timestamps not in sensor timebase")
	}
	sensors, err := env.Session.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("listing sensors: %w", err)
	}
	if !sensors["gyro"] {
		return check.Skipf("no gyro")
	}

	if env.Verbose {
		log.Printf("collecting gyro events for %v", c.opts.Duration)
	}
	if err := env.Session.StartSensorEvents(ctx); err != nil {
		return fmt.Errorf("starting sensor events: %w", err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.opts.Duration):
	}
	events, err := env.Session.SensorEvents(ctx)
	if err != nil {
		return fmt.Errorf("getting sensor events: %w", err)
	}

	samples, err := Average(events["gyro"], c.opts.Window)
	if err != nil {
		return err
	}
	if env.LogDir != "" {
		if err := writeCSV(filepath.Join(env.LogDir, Name+".csv"), samples); err != nil {
			log.Printf("%s: %v", Name, err)
		}
	}
	return c.Verify(samples, env.Verbose)
}

func writeCSV(path string, s Samples) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("closing csv: %v", err)
		}
	}()

	w := csv.NewWriter(f)
	w.Write([]string{"time", "x", "y", "z"})
	ff := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	for i := range s.Times {
		w.Write([]string{ff(s.Times[i]), ff(s.X[i]), ff(s.Y[i]), ff(s.Z[i])})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing csv: %v", err)
	}
	return nil
}
