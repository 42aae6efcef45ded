// Package itstest provides an in-memory Session for testing code that talks
// to a camera.
package itstest

import (
	"context"
	"fmt"
	"sync"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/capture"
)

// Session is an its.Session that answers from its fields. Captures are
// produced by CaptureFunc, one call per request.
type Session struct {
	Props         *capture.Properties
	SensorsByName map[string]bool
	Events        map[string][]its.SensorEvent

	// CaptureFunc returns the capture for one request. If nil, an empty
	// capture of the output format and size is returned.
	CaptureFunc func(req capture.Request, out capture.OutputSpec) (its.Capture, error)

	// If set, returned by the corresponding method.
	PropertiesErr error
	CaptureErr    error

	mutex    sync.Mutex
	bursts   [][]capture.Request
	started  bool
	closed   bool
	flashSeq *capture.FlashSequence
}

// Ensure that Session implements interface its.Session.
var _ its.Session = (*Session)(nil)

// Properties returns Props.
func (s *Session) Properties(ctx context.Context) (*capture.Properties, error) {
	if s.PropertiesErr != nil {
		return nil, s.PropertiesErr
	}
	if s.Props == nil {
		return nil, capture.ErrNoProperties
	}
	return s.Props, nil
}

// Sensors returns SensorsByName.
func (s *Session) Sensors(ctx context.Context) (map[string]bool, error) {
	return s.SensorsByName, nil
}

// DoCapture records the burst and calls CaptureFunc for each request.
func (s *Session) DoCapture(ctx context.Context, reqs []capture.Request, out capture.OutputSpec) ([]its.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.CaptureErr != nil {
		return nil, s.CaptureErr
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no capture requests")
	}
	s.mutex.Lock()
	s.bursts = append(s.bursts, reqs)
	s.mutex.Unlock()

	var caps []its.Capture
	for _, req := range reqs {
		c, err := s.capture(req, out)
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	return caps, nil
}

func (s *Session) capture(req capture.Request, out capture.OutputSpec) (its.Capture, error) {
	if s.CaptureFunc != nil {
		return s.CaptureFunc(req, out)
	}
	return its.Capture{Format: out.Format, Width: out.Width, Height: out.Height}, nil
}

// DoCaptureWithFlash records the sequence and captures its still request.
func (s *Session) DoCaptureWithFlash(ctx context.Context, seq capture.FlashSequence, out capture.OutputSpec) (its.Capture, error) {
	if s.CaptureErr != nil {
		return its.Capture{}, s.CaptureErr
	}
	s.mutex.Lock()
	s.flashSeq = &seq
	s.mutex.Unlock()
	return s.capture(seq.StillCapture, out)
}

// StartSensorEvents marks sensor events as started.
func (s *Session) StartSensorEvents(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.started = true
	return nil
}

// SensorEvents returns Events, or an error if StartSensorEvents was not
// called.
func (s *Session) SensorEvents(ctx context.Context) (map[string][]its.SensorEvent, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started {
		return nil, fmt.Errorf("sensor events not started")
	}
	return s.Events, nil
}

// Close marks the session closed.
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	return nil
}

// Bursts returns the request bursts passed to DoCapture, in order.
func (s *Session) Bursts() [][]capture.Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([][]capture.Request{}, s.bursts...)
}

// FlashSequence returns the sequence passed to the last DoCaptureWithFlash.
func (s *Session) FlashSequence() *capture.FlashSequence {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.flashSeq
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.closed
}
