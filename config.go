package its

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for a test run, typically read from a YAML
// file and overridden by command-line flags.
type Config struct {
	// Address of the test service. For tcp, "host:port"; for unix, a
	// socket path.
	Address string `yaml:"address"`
	Network string `yaml:"network"`

	// DeviceSerial selects the device for adb port forwarding. Empty
	// means no forwarding is done.
	DeviceSerial string `yaml:"device_serial"`
	RemotePort   int    `yaml:"remote_port"`

	CameraID string `yaml:"camera_id"`

	Timeout time.Duration `yaml:"timeout"`

	// TraceDir receives the JSON session transactions. LogDir receives
	// per-run check output; a temporary directory is used if empty.
	TraceDir string `yaml:"trace_dir"`
	LogDir   string `yaml:"log_dir"`

	Verbose bool `yaml:"verbose"`

	// Checks to run, by name. Empty means all.
	Checks []string `yaml:"checks"`

	Gyro GyroConfig `yaml:"gyro"`
	Raw  RawConfig  `yaml:"raw"`
}

// GyroConfig holds the gyro bias check thresholds.
type GyroConfig struct {
	Duration          time.Duration `yaml:"duration"`
	Window            int           `yaml:"window"`
	MeanThreshold     float64       `yaml:"mean_threshold"`
	VarianceThreshold float64       `yaml:"variance_threshold"`
}

// RawConfig holds the raw exposure check parameters.
type RawConfig struct {
	BurstLength      int `yaml:"burst_length"`
	SensitivitySteps int `yaml:"sensitivity_steps"`
	Grid             int `yaml:"grid"`
}

// DefaultConfig returns a Config with the defaults used by the checks.
func DefaultConfig() Config {
	return Config{
		Address:    "localhost:6000",
		Network:    "tcp",
		RemotePort: DefaultRemotePort,
		CameraID:   "0",
		Timeout:    10 * time.Second,
		Gyro: GyroConfig{
			Duration:          5 * time.Second,
			Window:            20,
			MeanThreshold:     0.01,
			VarianceThreshold: 0.001,
		},
		Raw: RawConfig{
			BurstLength:      10,
			SensitivitySteps: 5,
			Grid:             9,
		},
	}
}

// LoadConfig reads a YAML config file. Fields not in the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	buf, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %v", err)
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %v", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %v", path, err)
	}
	return c, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Network {
	case "tcp":
		if _, _, err := net.SplitHostPort(c.Address); err != nil {
			return fmt.Errorf("address must be host:port for tcp, got %q", c.Address)
		}
	case "unix":
		if c.Address == "" {
			return fmt.Errorf("address is required")
		}
		if c.DeviceSerial != "" {
			return fmt.Errorf("device_serial requires network tcp")
		}
	default:
		return fmt.Errorf("network must be 'tcp' or 'unix', got '%s'", c.Network)
	}
	if strings.TrimSpace(c.CameraID) == "" {
		return fmt.Errorf("camera_id is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if c.Gyro.Window <= 0 {
		return fmt.Errorf("gyro window must be > 0")
	}
	if c.Gyro.MeanThreshold <= 0 || c.Gyro.VarianceThreshold <= 0 {
		return fmt.Errorf("gyro thresholds must be > 0")
	}
	if c.Raw.BurstLength <= 0 || c.Raw.SensitivitySteps <= 0 || c.Raw.Grid <= 0 {
		return fmt.Errorf("raw burst_length, sensitivity_steps and grid must be > 0")
	}
	return nil
}

// SessionOpts returns the options for opening a session with this config.
func (c *Config) SessionOpts() *SessionOpts {
	return &SessionOpts{
		Network:      c.Network,
		DeviceSerial: c.DeviceSerial,
		RemotePort:   c.RemotePort,
		Timeout:      c.Timeout,
		TraceDir:     c.TraceDir,
		Verbose:      c.Verbose,
	}
}

// OpenSession connects to the test service and opens the configured camera.
func (c *Config) OpenSession(ctx context.Context) (*SocketSession, error) {
	return NewSocketSession(ctx, c.Address, c.CameraID, c.SessionOpts())
}
