// Package capture builds capture requests and output format specs from the
// static properties a camera device declares.
//
// All functions are pure: they read Properties, never modify them, and return
// fresh Requests that can be handed to a device session.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
)

// StreamConfig is one entry of the stream configuration map declared by a
// device.
type StreamConfig struct {
	Format int  `json:"format"`
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Input  bool `json:"input"`
}

// StreamConfigurationMap holds the declared stream configurations.
type StreamConfigurationMap struct {
	AvailableStreamConfigurations []StreamConfig `json:"availableStreamConfigurations"`
}

// Rect is a rectangle in sensor pixel coordinates.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the width of the rectangle.
func (r Rect) Width() int {
	return r.Right - r.Left
}

// Height returns the height of the rectangle.
func (r Rect) Height() int {
	return r.Bottom - r.Top
}

// Properties are the static characteristics of a camera device, as returned
// by a device session. Only the keys used by this module are decoded.
//
// A nil list means the device did not declare the key. An empty, non-nil list
// means the key was declared without entries.
type Properties struct {
	StreamConfigurationMap StreamConfigurationMap `json:"android.scaler.streamConfigurationMap"`
	MaxDigitalZoom         *float64               `json:"android.scaler.availableMaxDigitalZoom,omitempty"`

	AvailableCapabilities []int `json:"android.request.availableCapabilities,omitempty"`
	SyncMaxLatency        *int  `json:"android.sync.maxLatency,omitempty"`

	SensitivityRange             []int   `json:"android.sensor.info.sensitivityRange,omitempty"`
	ExposureTimeRange            []int64 `json:"android.sensor.info.exposureTimeRange,omitempty"`
	MaxAnalogSensitivity         int     `json:"android.sensor.maxAnalogSensitivity,omitempty"`
	WhiteLevel                   int     `json:"android.sensor.info.whiteLevel,omitempty"`
	BlackLevelPattern            []int   `json:"android.sensor.blackLevelPattern,omitempty"`
	ColorFilterArrangement       *int    `json:"android.sensor.info.colorFilterArrangement,omitempty"`
	PreCorrectionActiveArraySize *Rect   `json:"android.sensor.info.preCorrectionActiveArraySize,omitempty"`
	TimestampSource              int     `json:"android.sensor.info.timestampSource,omitempty"`

	AvailableToneMapModes        []int `json:"android.tonemap.availableToneMapModes,omitempty"`
	AvailableNoiseReductionModes []int `json:"android.noiseReduction.availableNoiseReductionModes,omitempty"`
	AvailableAberrationModes     []int `json:"android.colorCorrection.availableAberrationModes,omitempty"`
	AvailableHotPixelModes       []int `json:"android.hotPixel.availableHotPixelModes,omitempty"`
	AvailableEdgeModes           []int `json:"android.edge.availableEdgeModes,omitempty"`

	// Names of the characteristics and the per-request settable keys the
	// device lists.
	CharacteristicsKeys []string `json:"camera.characteristics.keys,omitempty"`
	RequestKeys         []string `json:"camera.characteristics.requestKeys,omitempty"`
}

// Keys of characteristics and request fields referenced when gating filters.
const (
	KeyAvailableHotPixelModes = "android.hotPixel.availableHotPixelModes"
	KeyAvailableEdgeModes     = "android.edge.availableEdgeModes"
	KeyHotPixelMode           = "android.hotPixel.mode"
	KeyEdgeMode               = "android.edge.mode"
)

// Values of android.request.availableCapabilities.
const (
	CapabilityManualSensor = 1
	CapabilityRaw          = 3
)

// Values of android.sensor.info.colorFilterArrangement.
const (
	CFARGGB = 0
	CFAGRBG = 1
	CFAGBRG = 2
	CFABGGR = 3
	CFARGB  = 4
	CFAMono = 5
	CFANIR  = 6
)

const (
	syncMaxLatencyPerFrameControl = 0
	timestampSourceRealtime       = 1
)

// ParseProperties decodes properties from the JSON returned by a device
// session and validates them.
func ParseProperties(buf []byte) (*Properties, error) {
	var p Properties
	if err := json.Unmarshal(buf, &p); err != nil {
		return nil, fmt.Errorf("parsing properties: %v", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReadProperties reads and validates a properties JSON file.
func ReadProperties(path string) (*Properties, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading properties: %v", err)
	}
	return ParseProperties(buf)
}

// Validate checks the properties for inconsistencies that would make request
// construction fail in confusing ways later on.
func (p *Properties) Validate() error {
	for i, c := range p.StreamConfigurationMap.AvailableStreamConfigurations {
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("stream configuration %d: invalid size %dx%d", i, c.Width, c.Height)
		}
	}
	if p.SensitivityRange != nil {
		if len(p.SensitivityRange) != 2 {
			return fmt.Errorf("sensitivity range must have 2 values, got %d", len(p.SensitivityRange))
		}
		if p.SensitivityRange[0] > p.SensitivityRange[1] {
			return fmt.Errorf("sensitivity range %v is inverted", p.SensitivityRange)
		}
	}
	if p.ExposureTimeRange != nil {
		if len(p.ExposureTimeRange) != 2 {
			return fmt.Errorf("exposure time range must have 2 values, got %d", len(p.ExposureTimeRange))
		}
		if p.ExposureTimeRange[0] <= 0 || p.ExposureTimeRange[0] > p.ExposureTimeRange[1] {
			return fmt.Errorf("invalid exposure time range %v", p.ExposureTimeRange)
		}
	}
	if p.BlackLevelPattern != nil && len(p.BlackLevelPattern) != 4 {
		return fmt.Errorf("black level pattern must have 4 values, got %d", len(p.BlackLevelPattern))
	}
	if r := p.PreCorrectionActiveArraySize; r != nil && (r.Width() <= 0 || r.Height() <= 0) {
		return fmt.Errorf("invalid pre-correction active array %+v", *r)
	}
	return nil
}

// MinSensitivity returns the lowest declared sensitivity.
func (p *Properties) MinSensitivity() (int, error) {
	if len(p.SensitivityRange) != 2 {
		return 0, fmt.Errorf("%w: no sensitivity range", ErrUnsupportedCapability)
	}
	return min(p.SensitivityRange[0], p.SensitivityRange[1]), nil
}

// MinExposureTime returns the shortest declared exposure time in nanoseconds.
func (p *Properties) MinExposureTime() (int64, error) {
	if len(p.ExposureTimeRange) != 2 {
		return 0, fmt.Errorf("%w: no exposure time range", ErrUnsupportedCapability)
	}
	return min(p.ExposureTimeRange[0], p.ExposureTimeRange[1]), nil
}

// ManualSensor reports whether the device declares the MANUAL_SENSOR capability.
func (p *Properties) ManualSensor() bool {
	return contains(p.AvailableCapabilities, CapabilityManualSensor)
}

// Raw16 reports whether the device can output RAW16 images.
func (p *Properties) Raw16() bool {
	sizes, err := AvailableOutputSizes(FormatRaw, p, nil)
	return err == nil && len(sizes) > 0
}

// PerFrameControl reports whether settings apply to the exact frame they are
// requested for.
func (p *Properties) PerFrameControl() bool {
	return p.SyncMaxLatency != nil && *p.SyncMaxLatency == syncMaxLatencyPerFrameControl
}

// MonoCamera reports whether the sensor has no color filter.
func (p *Properties) MonoCamera() bool {
	if p.ColorFilterArrangement == nil {
		return false
	}
	cfa := *p.ColorFilterArrangement
	return cfa == CFAMono || cfa == CFANIR
}

// SensorFusion reports whether camera timestamps share a timebase with other
// sensors, which is needed to correlate gyro events with frames.
func (p *Properties) SensorFusion() bool {
	return p.TimestampSource == timestampSourceRealtime
}

func contains[T comparable](l []T, v T) bool {
	for _, e := range l {
		if e == v {
			return true
		}
	}
	return false
}
