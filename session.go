// Package its connects to the camera test service on a device, reads camera
// properties, runs captures and collects sensor events.
package its

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/camerasuite/its-go/capture"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y adb")

// Session is an open connection to a camera on a device.
type Session interface {
	// Properties returns the static properties of the camera.
	Properties(ctx context.Context) (*capture.Properties, error)

	// Sensors returns which motion sensors the device has, eg "gyro".
	Sensors(ctx context.Context) (map[string]bool, error)

	// DoCapture submits the requests, in order, and returns one capture per
	// request.
	DoCapture(ctx context.Context, reqs []capture.Request, out capture.OutputSpec) ([]Capture, error)

	// DoCaptureWithFlash runs the precapture sequence and returns the still
	// capture. The session repeats PreviewIdle until auto exposure has
	// converged.
	DoCaptureWithFlash(ctx context.Context, seq capture.FlashSequence, out capture.OutputSpec) (Capture, error)

	// StartSensorEvents starts recording motion sensor events on the device.
	StartSensorEvents(ctx context.Context) error

	// SensorEvents returns the events recorded since StartSensorEvents, by
	// sensor name.
	SensorEvents(ctx context.Context) (map[string][]SensorEvent, error)

	Close() error
}

// CaptureMetadata is the subset of the capture result used by the checks.
type CaptureMetadata struct {
	ExposureTime      int64     `json:"android.sensor.exposureTime,omitempty"`
	Sensitivity       int       `json:"android.sensor.sensitivity,omitempty"`
	DynamicBlackLevel []float64 `json:"android.sensor.dynamicBlackLevel,omitempty"`
	AEState           *int      `json:"android.control.aeState,omitempty"`
}

// Capture is a single captured frame with its result metadata.
type Capture struct {
	Format   capture.FormatKind `json:"format"`
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Data     []byte             `json:"data"`
	Metadata CaptureMetadata    `json:"metadata"`
}

// SensorEvent is one sample from a motion sensor.
type SensorEvent struct {
	Time int64   `json:"time"` // Nanoseconds.
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

// Response represents the basic status of a response from the device.
type Response struct {
	ID      int64  `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	responser
}

type responser interface {
	response() Response
}

func (r Response) response() Response {
	return r
}

// ResponseError is returned when the device reports a failed command.
type ResponseError struct {
	Cmd     string
	Message string
}

// Error returns a human-readable description of the failed command.
func (e ResponseError) Error() string {
	return fmt.Sprintf("device error for %s: %s", e.Cmd, e.Message)
}

// Ensure ResponseError implements the error interface.
var _ error = ResponseError{}

type command struct {
	ID       int64  `json:"id"`
	CmdName  string `json:"cmdName"`
	CameraID string `json:"cameraId,omitempty"`

	CaptureRequests []capture.Request      `json:"captureRequests,omitempty"`
	OutputSurfaces  []capture.OutputSpec   `json:"outputSurfaces,omitempty"`
	Flash           *capture.FlashSequence `json:"flash,omitempty"`
}

type propertiesResponse struct {
	Response
	Properties json.RawMessage `json:"objValue"`
}

type sensorsResponse struct {
	Response
	Sensors map[string]bool `json:"objValue"`
}

type capturesResponse struct {
	Response
	Captures []Capture `json:"captures"`
}

type sensorEventsResponse struct {
	Response
	Events map[string][]SensorEvent `json:"objValue"`
}

// SessionOpts contains options for opening a session.
type SessionOpts struct {
	// Network for Dial, "tcp" (default) or "unix".
	Network string

	// If set, "adb -s DeviceSerial forward" is run for the tcp port before
	// connecting, to RemotePort on the device.
	DeviceSerial string
	RemotePort   int

	// Timeout for each transaction when the context has no deadline.
	// Default 10s.
	Timeout time.Duration

	// If not empty, the JSON-encoded requests and responses are written to
	// this directory.
	TraceDir string

	Verbose bool
}

// DefaultRemotePort is the port the test service listens on, on the device.
const DefaultRemotePort = 6000

// SocketSession is a session with the test service over a stream socket.
type SocketSession struct {
	opts     SessionOpts
	cameraID string
	conn     net.Conn
	enc      *json.Encoder
	dec      *json.Decoder
	mutex    sync.Mutex // Serializing transactions.
	lastID   int64
}

// Ensure that SocketSession implements interface Session.
var _ Session = (*SocketSession)(nil)

// NewSocketSession connects to the test service at addr and opens camera
// cameraID. Always call Close on a session, to release the camera.
func NewSocketSession(ctx context.Context, addr, cameraID string, opts *SessionOpts) (session *SocketSession, rerr error) {
	s := &SocketSession{cameraID: cameraID}
	if opts != nil {
		s.opts = *opts
	}
	if s.opts.Network == "" {
		s.opts.Network = "tcp"
	}
	if s.opts.Timeout == 0 {
		s.opts.Timeout = 10 * time.Second
	}
	if s.opts.RemotePort == 0 {
		s.opts.RemotePort = DefaultRemotePort
	}

	// Make sure we cleanup on failure.
	defer func() {
		if rerr != nil {
			s.Close()
		}
	}()

	if s.opts.DeviceSerial != "" && s.opts.Network == "tcp" {
		if err := s.forward(ctx, addr); err != nil {
			return nil, err
		}
	}

	var d net.Dialer
	for i := 0; ; i++ {
		conn, err := d.DialContext(ctx, s.opts.Network, addr)
		if err == nil {
			s.conn = conn
			break
		}
		if !errors.Is(err, syscall.ECONNREFUSED) && !errors.Is(err, syscall.ENOENT) {
			return nil, fmt.Errorf("connecting to test service: %v", err)
		}
		if i == 100 {
			return nil, fmt.Errorf("test service not listening at %s", addr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	s.enc = json.NewEncoder(s.conn)
	s.dec = json.NewDecoder(s.conn)

	cmd := command{CmdName: "open", CameraID: cameraID}
	var resp Response
	if err := s.transact(ctx, cmd, &resp); err != nil {
		return nil, fmt.Errorf("opening camera %q: %w", cameraID, err)
	}
	return s, nil
}

func (s *SocketSession) forward(ctx context.Context, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("parsing address %q: %v", addr, err)
	}
	args := []string{"-s", s.opts.DeviceSerial, "forward", "tcp:" + port, fmt.Sprintf("tcp:%d", s.opts.RemotePort)}
	if s.opts.Verbose {
		log.Printf("running adb %s", args)
	}
	cmd := exec.CommandContext(ctx, "adb", args...)
	if s.opts.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return fmt.Errorf("forwarding port with adb: %v", err)
	}
	return nil
}

// Do a single request/response transaction. Must be called with mutex held,
// or before the session is returned to the caller.
func (s *SocketSession) transact(ctx context.Context, cmd command, resp responser) error {
	if s.conn == nil {
		return fmt.Errorf("session closed")
	}
	s.lastID++
	cmd.ID = s.lastID

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.opts.Timeout)
	}
	s.conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		// Unblock pending reads and writes.
		s.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if s.opts.Verbose {
		log.Printf("session, sending %s (id %d)", cmd.CmdName, cmd.ID)
	}
	if err := s.enc.Encode(cmd); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("writing json to device: %v", err)
	}
	s.writeTrace(fmt.Sprintf("%s/session-%d-request.json", s.opts.TraceDir, cmd.ID), cmd)

	if err := s.dec.Decode(resp); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("reading json from device: %v", err)
	}
	s.writeTrace(fmt.Sprintf("%s/session-%d-response.json", s.opts.TraceDir, cmd.ID), resp)

	r := resp.response()
	if r.ID != cmd.ID {
		return fmt.Errorf("response id %d does not match request id %d", r.ID, cmd.ID)
	}
	if !r.Success {
		return ResponseError{cmd.CmdName, r.Error}
	}
	return nil
}

func (s *SocketSession) writeTrace(filename string, data interface{}) {
	if s.opts.TraceDir == "" {
		return
	}

	f, err := os.Create(filename)
	if err != nil {
		log.Printf("trace, creating %s: %v", filename, err)
		return
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(data); err != nil {
		log.Printf("trace, writing data: %v", err)
	}
	if s.opts.Verbose {
		log.Printf("trace %s", filename)
	}
}

// Properties returns the validated camera properties.
func (s *SocketSession) Properties(ctx context.Context) (*capture.Properties, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var resp propertiesResponse
	if err := s.transact(ctx, command{CmdName: "getCameraProperties"}, &resp); err != nil {
		return nil, err
	}
	return capture.ParseProperties(resp.Properties)
}

// Sensors returns the motion sensors available on the device.
func (s *SocketSession) Sensors(ctx context.Context) (map[string]bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var resp sensorsResponse
	if err := s.transact(ctx, command{CmdName: "getSensors"}, &resp); err != nil {
		return nil, err
	}
	return resp.Sensors, nil
}

// DoCapture submits a burst of requests with one output surface.
func (s *SocketSession) DoCapture(ctx context.Context, reqs []capture.Request, out capture.OutputSpec) ([]Capture, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no capture requests")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cmd := command{
		CmdName:         "doCapture",
		CaptureRequests: reqs,
		OutputSurfaces:  []capture.OutputSpec{out},
	}
	var resp capturesResponse
	if err := s.transact(ctx, cmd, &resp); err != nil {
		return nil, err
	}
	if len(resp.Captures) != len(reqs) {
		return nil, fmt.Errorf("got %d captures for %d requests", len(resp.Captures), len(reqs))
	}
	return resp.Captures, nil
}

// DoCaptureWithFlash runs a flash-assisted still capture.
func (s *SocketSession) DoCaptureWithFlash(ctx context.Context, seq capture.FlashSequence, out capture.OutputSpec) (Capture, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cmd := command{
		CmdName:        "doCaptureWithFlash",
		Flash:          &seq,
		OutputSurfaces: []capture.OutputSpec{out},
	}
	var resp capturesResponse
	if err := s.transact(ctx, cmd, &resp); err != nil {
		return Capture{}, err
	}
	if len(resp.Captures) != 1 {
		return Capture{}, fmt.Errorf("got %d captures for flash capture, expected 1", len(resp.Captures))
	}
	return resp.Captures[0], nil
}

// StartSensorEvents starts recording sensor events on the device.
func (s *SocketSession) StartSensorEvents(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var resp Response
	return s.transact(ctx, command{CmdName: "startSensorEvents"}, &resp)
}

// SensorEvents returns the sensor events recorded so far.
func (s *SocketSession) SensorEvents(ctx context.Context) (map[string][]SensorEvent, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var resp sensorEventsResponse
	if err := s.transact(ctx, command{CmdName: "getSensorEvents"}, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Close releases the camera and closes the connection.
func (s *SocketSession) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var resp Response
	if err := s.transact(ctx, command{CmdName: "close"}, &resp); err != nil && s.opts.Verbose {
		log.Printf("closing camera: %v", err)
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
