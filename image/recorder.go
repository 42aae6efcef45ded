package image

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/capture"
)

// Recorder is a source of images, for example repeated captures from a
// session.
type Recorder interface {
	// Events returns a channel from which Events can be read, each containing an image.
	Events() chan Event

	// Close shuts down the recorder. No further Events will be sent.
	Close() error
}

// Event is a single image (or error) coming from a Recorder.
type Event struct {
	// If set, an error occurred.
	Err error

	// Decoded image and the capture it came from. If Err is set, these are
	// not valid.
	Image   image.Image
	Capture its.Capture

	// How long the capture took.
	Capturing time.Duration
}

// SessionRecorderOpts are options for a SessionRecorder.
type SessionRecorderOpts struct {
	// Number of captures. Zero means capture until Close is called.
	Count int

	// If not empty, directory to write each decoded image to as PNG.
	TraceDir string

	Verbose bool
}

// SessionRecorder captures with the same request repeatedly and sends the
// decoded images on its Events channel. The channel is closed after the last
// capture, or after a capture error.
type SessionRecorder struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

// Ensure that SessionRecorder implements interface Recorder.
var _ Recorder = (*SessionRecorder)(nil)

// NewSessionRecorder starts capturing. Callers must call Close to stop the
// recorder, and separately close the session.
func NewSessionRecorder(ctx context.Context, session its.Session, req capture.Request, out capture.OutputSpec, opts *SessionRecorderOpts) (*SessionRecorder, error) {
	var xopts SessionRecorderOpts
	if opts != nil {
		xopts = *opts
	}
	if xopts.Count < 0 {
		return nil, fmt.Errorf("count must be >= 0")
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &SessionRecorder{
		make(chan Event, 1),
		cancel,
		make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		defer close(r.events)

		send := func(ev Event) bool {
			select {
			case r.events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for seq := 0; xopts.Count == 0 || seq < xopts.Count; seq++ {
			t0 := time.Now()
			caps, err := session.DoCapture(ctx, []capture.Request{req}, out)
			if err != nil {
				if ctx.Err() == nil {
					send(Event{Err: fmt.Errorf("capture %d: %w", seq, err)})
				}
				return
			}
			elapsed := time.Since(t0)
			if xopts.Verbose {
				log.Printf("capture %d: %s %dx%d in %v", seq, caps[0].Format, caps[0].Width, caps[0].Height, elapsed)
			}

			img, err := DecodeCapture(caps[0])
			if err != nil {
				send(Event{Err: fmt.Errorf("capture %d: %w", seq, err)})
				return
			}

			if xopts.TraceDir != "" {
				pngPath := fmt.Sprintf("%s/capture-%d.png", xopts.TraceDir, seq)
				if err := WriteImage(img, pngPath); err != nil {
					log.Printf("trace, %v", err)
				} else if xopts.Verbose {
					log.Printf("trace %s", pngPath)
				}
			}

			if !send(Event{Image: img, Capture: caps[0], Capturing: elapsed}) {
				return
			}
		}
	}()

	return r, nil
}

// Events returns the channel on which captured images are sent.
func (r *SessionRecorder) Events() chan Event {
	return r.events
}

// Close stops capturing and waits for the pending capture to finish.
func (r *SessionRecorder) Close() error {
	r.cancel()
	<-r.done
	return nil
}
