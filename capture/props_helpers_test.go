package capture_test

import (
	"github.com/camerasuite/its-go/capture"
)

const (
	codeYUV  = 0x23
	codeJPEG = 0x100
	codeRaw  = 0x20
)

func intp(v int) *int {
	return &v
}

// newProps returns properties for a typical device with yuv, jpeg and raw
// outputs.
func newProps() *capture.Properties {
	return &capture.Properties{
		StreamConfigurationMap: capture.StreamConfigurationMap{
			AvailableStreamConfigurations: []capture.StreamConfig{
				{Format: codeYUV, Width: 640, Height: 480},
				{Format: codeYUV, Width: 1920, Height: 1080},
				{Format: codeYUV, Width: 320, Height: 240},
				{Format: codeYUV, Width: 4000, Height: 3000, Input: true},
				{Format: codeJPEG, Width: 4000, Height: 3000},
				{Format: codeJPEG, Width: 1920, Height: 1080},
				{Format: codeRaw, Width: 4032, Height: 3024},
			},
		},
		AvailableCapabilities:        []int{0, capture.CapabilityManualSensor, capture.CapabilityRaw},
		SyncMaxLatency:               intp(0),
		SensitivityRange:             []int{100, 1600},
		ExposureTimeRange:            []int64{100, 100_000_000},
		MaxAnalogSensitivity:         800,
		WhiteLevel:                   1023,
		BlackLevelPattern:            []int{64, 64, 64, 64},
		ColorFilterArrangement:       intp(capture.CFARGGB),
		PreCorrectionActiveArraySize: &capture.Rect{Left: 0, Top: 0, Right: 4032, Bottom: 3024},
		TimestampSource:              1,
		AvailableToneMapModes:        []int{0, 1, 2},
	}
}
