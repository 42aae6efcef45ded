package capture

import (
	"fmt"
)

// Values for request fields. Names follow the camera control enums.
const (
	ModeOff  = 0
	ModeFast = 1

	ControlModeOff  = 0
	ControlModeAuto = 1

	AEModeOn          = 1
	AEModeOnAutoFlash = 2
	AWBModeAuto       = 1
	AFModeAuto        = 1
	EffectModeOff     = 0
	AutoframingOn     = 1

	AEPrecaptureTriggerIdle  = 0
	AEPrecaptureTriggerStart = 1

	CaptureIntentPreview      = 1
	CaptureIntentStillCapture = 2
	CaptureIntentManual       = 6

	ColorCorrectionModeTransform = 0
	ColorCorrectionModeFast      = 1
	ShadingModeFast              = 1
	OpticalStabilizationOff      = 0
	VideoStabilizationOff        = 0

	TonemapModeContrastCurve = 0
	TonemapModeFast          = 1
	TonemapModeGammaValue    = 3
)

// FocusDistanceInfinity is the focus distance, in diopters, for infinity.
const FocusDistanceInfinity = 0.0

// TonemapCurve maps input to output intensity per channel, as a flat list of
// (in, out) pairs.
type TonemapCurve struct {
	Red   []float64 `json:"red"`
	Green []float64 `json:"green"`
	Blue  []float64 `json:"blue"`
}

var linearCurve = []float64{0, 0, 1, 1}

// Request holds the settings for a single capture. Unset (nil) fields are
// left out when encoding, so the device uses its defaults for them.
type Request struct {
	ControlMode            *int     `json:"android.control.mode,omitempty"`
	CaptureIntent          *int     `json:"android.control.captureIntent,omitempty"`
	AEMode                 *int     `json:"android.control.aeMode,omitempty"`
	AEPrecaptureTrigger    *int     `json:"android.control.aePrecaptureTrigger,omitempty"`
	AWBMode                *int     `json:"android.control.awbMode,omitempty"`
	AFMode                 *int     `json:"android.control.afMode,omitempty"`
	EffectMode             *int     `json:"android.control.effectMode,omitempty"`
	Autoframing            *int     `json:"android.control.autoframing,omitempty"`
	ZoomRatio              *float64 `json:"android.control.zoomRatio,omitempty"`
	VideoStabilizationMode *int     `json:"android.control.videoStabilizationMode,omitempty"`

	Sensitivity  *int   `json:"android.sensor.sensitivity,omitempty"`
	ExposureTime *int64 `json:"android.sensor.exposureTime,omitempty"`

	FocusDistance            *float64 `json:"android.lens.focusDistance,omitempty"`
	OpticalStabilizationMode *int     `json:"android.lens.opticalStabilizationMode,omitempty"`

	ColorCorrectionMode      *int       `json:"android.colorCorrection.mode,omitempty"`
	ColorCorrectionTransform []Rational `json:"android.colorCorrection.transform,omitempty"`
	ColorCorrectionGains     []float64  `json:"android.colorCorrection.gains,omitempty"`
	AberrationMode           *int       `json:"android.colorCorrection.aberrationMode,omitempty"`

	ShadingMode        *int `json:"android.shading.mode,omitempty"`
	NoiseReductionMode *int `json:"android.noiseReduction.mode,omitempty"`
	HotPixelMode       *int `json:"android.hotPixel.mode,omitempty"`
	EdgeMode           *int `json:"android.edge.mode,omitempty"`

	TonemapMode  *int          `json:"android.tonemap.mode,omitempty"`
	TonemapCurve *TonemapCurve `json:"android.tonemap.curve,omitempty"`
	TonemapGamma *float64      `json:"android.tonemap.gamma,omitempty"`
}

func ptr[T any](v T) *T {
	return &v
}

// AutoOpts are options for AutoRequest.
type AutoOpts struct {
	// Use a linear tonemap. Requires Props.
	LinearTonemap bool
	Props         *Properties

	// Disable autofocus, fixing focus at infinity.
	DisableAutofocus bool

	Autoframing bool

	// If > 0, the zoom ratio to set.
	ZoomRatio float64
}

// AutoRequest returns a request with 3A and processing set to auto.
func AutoRequest(opts *AutoOpts) (Request, error) {
	var xopts AutoOpts
	if opts != nil {
		xopts = *opts
	}

	afMode := AFModeAuto
	if xopts.DisableAutofocus {
		afMode = ModeOff
	}
	req := Request{
		ControlMode:              ptr(ControlModeAuto),
		AEMode:                   ptr(AEModeOn),
		AWBMode:                  ptr(AWBModeAuto),
		AFMode:                   ptr(afMode),
		ColorCorrectionMode:      ptr(ColorCorrectionModeFast),
		ShadingMode:              ptr(ShadingModeFast),
		TonemapMode:              ptr(TonemapModeFast),
		OpticalStabilizationMode: ptr(OpticalStabilizationOff),
		VideoStabilizationMode:   ptr(VideoStabilizationOff),
	}
	if xopts.Autoframing {
		req.Autoframing = ptr(AutoframingOn)
	}
	if xopts.DisableAutofocus {
		req.FocusDistance = ptr(FocusDistanceInfinity)
	}
	if xopts.ZoomRatio > 0 {
		req.ZoomRatio = ptr(xopts.ZoomRatio)
	}
	if xopts.LinearTonemap {
		if err := setLinearTonemap(&req, xopts.Props); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

// ManualOpts are options for ManualRequest.
type ManualOpts struct {
	FocusDistance float64

	// Use a linear tonemap. Requires Props.
	LinearTonemap bool
	Props         *Properties
}

// ManualRequest returns a request with everything set to manual: the given
// sensitivity and exposure time in nanoseconds, identity color correction
// and unit gains.
func ManualRequest(sensitivity int, exposureTime int64, opts *ManualOpts) (Request, error) {
	var xopts ManualOpts
	if opts != nil {
		xopts = *opts
	}

	req := Request{
		CaptureIntent:            ptr(CaptureIntentManual),
		ControlMode:              ptr(ControlModeOff),
		AEMode:                   ptr(ModeOff),
		AWBMode:                  ptr(ModeOff),
		AFMode:                   ptr(ModeOff),
		EffectMode:               ptr(EffectModeOff),
		Sensitivity:              ptr(sensitivity),
		ExposureTime:             ptr(exposureTime),
		ColorCorrectionMode:      ptr(ColorCorrectionModeTransform),
		ColorCorrectionTransform: IntsToRationals([]int64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
		ColorCorrectionGains:     []float64{1, 1, 1, 1},
		FocusDistance:            ptr(xopts.FocusDistance),
		TonemapMode:              ptr(TonemapModeFast),
		ShadingMode:              ptr(ShadingModeFast),
		OpticalStabilizationMode: ptr(OpticalStabilizationOff),
		VideoStabilizationMode:   ptr(VideoStabilizationOff),
	}
	if xopts.LinearTonemap {
		if err := setLinearTonemap(&req, xopts.Props); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

// setLinearTonemap prefers an identity contrast curve and falls back to a
// gamma of 1.
func setLinearTonemap(req *Request, props *Properties) error {
	if props == nil {
		return fmt.Errorf("linear tonemap: %w", ErrNoProperties)
	}
	switch {
	case contains(props.AvailableToneMapModes, TonemapModeContrastCurve):
		req.TonemapMode = ptr(TonemapModeContrastCurve)
		req.TonemapCurve = &TonemapCurve{
			Red:   append([]float64{}, linearCurve...),
			Green: append([]float64{}, linearCurve...),
			Blue:  append([]float64{}, linearCurve...),
		}
	case contains(props.AvailableToneMapModes, TonemapModeGammaValue):
		req.TonemapMode = ptr(TonemapModeGammaValue)
		req.TonemapGamma = ptr(1.0)
	default:
		return fmt.Errorf("%w: linear tonemap, device tonemap modes %v", ErrUnsupportedCapability, props.AvailableToneMapModes)
	}
	return nil
}

// FastestManualSettings returns a manual request and output spec for the
// fastest capture the device can do: smallest yuv size, minimum sensitivity
// and exposure time, and slow filters turned down.
func FastestManualSettings(props *Properties) (Request, OutputSpec, error) {
	out, err := SmallestYUVFormat(props, nil)
	if err != nil {
		return Request{}, OutputSpec{}, err
	}
	s, err := props.MinSensitivity()
	if err != nil {
		return Request{}, OutputSpec{}, err
	}
	e, err := props.MinExposureTime()
	if err != nil {
		return Request{}, OutputSpec{}, err
	}
	req, err := ManualRequest(s, e, nil)
	if err != nil {
		return Request{}, OutputSpec{}, err
	}
	DowngradeSlowFilters(props, &req)
	return req, out, nil
}

// FastestAutoSettings returns an auto request and output spec for the fastest
// capture the device can do, at the smallest yuv size.
func FastestAutoSettings(props *Properties) (Request, OutputSpec, error) {
	out, err := SmallestYUVFormat(props, nil)
	if err != nil {
		return Request{}, OutputSpec{}, err
	}
	req, err := FastestAutoRequest(props)
	if err != nil {
		return Request{}, OutputSpec{}, err
	}
	return req, out, nil
}

// FastestAutoRequest returns an auto request with slow filters turned down.
func FastestAutoRequest(props *Properties) (Request, error) {
	if props == nil {
		return Request{}, ErrNoProperties
	}
	req, err := AutoRequest(nil)
	if err != nil {
		return Request{}, err
	}
	DowngradeSlowFilters(props, &req)
	return req, nil
}

// FlashSequence is the set of requests for a flash-assisted still capture.
// PreviewStart is submitted once, PreviewIdle is repeated until auto exposure
// has converged, then StillCapture is submitted.
type FlashSequence struct {
	PreviewStart Request `json:"previewRequestStart"`
	PreviewIdle  Request `json:"previewRequestIdle"`
	StillCapture Request `json:"stillCaptureRequest"`
}

// FlashCaptureSequence returns the requests for a capture with auto flash.
func FlashCaptureSequence() FlashSequence {
	mk := func(intent, trigger int) Request {
		// AutoRequest without options cannot fail.
		req, _ := AutoRequest(nil)
		req.AEMode = ptr(AEModeOnAutoFlash)
		req.CaptureIntent = ptr(intent)
		req.AEPrecaptureTrigger = ptr(trigger)
		return req
	}
	return FlashSequence{
		PreviewStart: mk(CaptureIntentPreview, AEPrecaptureTriggerStart),
		PreviewIdle:  mk(CaptureIntentPreview, AEPrecaptureTriggerIdle),
		StillCapture: mk(CaptureIntentStillCapture, AEPrecaptureTriggerIdle),
	}
}

// Bursts splits reqs into consecutive bursts of at most n requests, keeping
// order. A trailing burst of a single request is avoided by shrinking n, as
// some sessions reject single-request bursts.
func Bursts(reqs []Request, n int) [][]Request {
	if n <= 0 {
		n = 1
	}
	for n > 1 && len(reqs)%n == 1 {
		n--
	}
	var r [][]Request
	for len(reqs) > 0 {
		k := min(n, len(reqs))
		r = append(r, reqs[:k:k])
		reqs = reqs[k:]
	}
	return r
}
