// Package check runs camera conformance checks against a session.
package check

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/capture"
)

// ErrSkipped is returned by a check that does not apply to the camera.
var ErrSkipped = errors.New("skipped")

// Skipf returns an error wrapping ErrSkipped.
func Skipf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSkipped, fmt.Sprintf(format, args...))
}

// Env is what a check runs against.
type Env struct {
	Session its.Session
	Props   *capture.Properties

	// If not empty, directory checks write their measurements to.
	LogDir string

	Verbose bool
}

// Check is a single conformance check.
type Check interface {
	Name() string

	// Run returns nil if the camera passes, an error wrapping ErrSkipped if
	// the check does not apply, and any other error on failure.
	Run(ctx context.Context, env *Env) error
}

// Result is the outcome of running one check.
type Result struct {
	Name     string
	Passed   bool
	Skipped  bool
	Err      error // Reason for failing or skipping.
	Duration time.Duration
}

// String returns a one-line summary.
func (r Result) String() string {
	switch {
	case r.Passed:
		return fmt.Sprintf("PASS %s (%v)", r.Name, r.Duration.Round(time.Millisecond))
	case r.Skipped:
		return fmt.Sprintf("SKIP %s: %v", r.Name, r.Err)
	default:
		return fmt.Sprintf("FAIL %s: %v", r.Name, r.Err)
	}
}

// Run runs the checks in order. Running stops early only if ctx is done.
func Run(ctx context.Context, env *Env, checks []Check) []Result {
	var results []Result
	for _, c := range checks {
		if ctx.Err() != nil {
			break
		}
		if env.Verbose {
			log.Printf("running %s", c.Name())
		}
		t0 := time.Now()
		err := c.Run(ctx, env)
		r := Result{
			Name:     c.Name(),
			Passed:   err == nil,
			Skipped:  errors.Is(err, ErrSkipped),
			Err:      err,
			Duration: time.Since(t0),
		}
		if env.Verbose {
			log.Printf("%s", r)
		}
		results = append(results, r)
	}
	return results
}
