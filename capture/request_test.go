package capture_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camerasuite/its-go/capture"
)

func TestAutoRequest(t *testing.T) {
	req, err := capture.AutoRequest(nil)
	require.NoError(t, err)
	assert.Equal(t, capture.ControlModeAuto, *req.ControlMode)
	assert.Equal(t, capture.AEModeOn, *req.AEMode)
	assert.Equal(t, capture.AFModeAuto, *req.AFMode)
	assert.Equal(t, capture.TonemapModeFast, *req.TonemapMode)
	assert.Nil(t, req.FocusDistance)
	assert.Nil(t, req.ZoomRatio)
	assert.Nil(t, req.Autoframing)

	req, err = capture.AutoRequest(&capture.AutoOpts{DisableAutofocus: true, Autoframing: true, ZoomRatio: 2})
	require.NoError(t, err)
	assert.Equal(t, capture.ModeOff, *req.AFMode)
	assert.Equal(t, 0.0, *req.FocusDistance)
	assert.Equal(t, capture.AutoframingOn, *req.Autoframing)
	assert.Equal(t, 2.0, *req.ZoomRatio)
}

func TestLinearTonemap(t *testing.T) {
	props := newProps()

	req, err := capture.AutoRequest(&capture.AutoOpts{LinearTonemap: true, Props: props})
	require.NoError(t, err)
	assert.Equal(t, capture.TonemapModeContrastCurve, *req.TonemapMode)
	require.NotNil(t, req.TonemapCurve)
	assert.Equal(t, []float64{0, 0, 1, 1}, req.TonemapCurve.Green)
	assert.Nil(t, req.TonemapGamma)

	props.AvailableToneMapModes = []int{1, 2, 3}
	req, err = capture.ManualRequest(100, 1000, &capture.ManualOpts{LinearTonemap: true, Props: props})
	require.NoError(t, err)
	assert.Equal(t, capture.TonemapModeGammaValue, *req.TonemapMode)
	assert.Equal(t, 1.0, *req.TonemapGamma)
	assert.Nil(t, req.TonemapCurve)

	props.AvailableToneMapModes = []int{1, 2}
	_, err = capture.AutoRequest(&capture.AutoOpts{LinearTonemap: true, Props: props})
	assert.ErrorIs(t, err, capture.ErrUnsupportedCapability)
	_, err = capture.ManualRequest(100, 1000, &capture.ManualOpts{LinearTonemap: true, Props: props})
	assert.ErrorIs(t, err, capture.ErrUnsupportedCapability)

	_, err = capture.AutoRequest(&capture.AutoOpts{LinearTonemap: true})
	assert.ErrorIs(t, err, capture.ErrNoProperties)
}

func TestManualRequest(t *testing.T) {
	req, err := capture.ManualRequest(400, 33_000_000, &capture.ManualOpts{FocusDistance: 2.5})
	require.NoError(t, err)
	assert.Equal(t, 400, *req.Sensitivity)
	assert.Equal(t, int64(33_000_000), *req.ExposureTime)
	assert.Equal(t, 2.5, *req.FocusDistance)
	assert.Equal(t, capture.CaptureIntentManual, *req.CaptureIntent)
	assert.Equal(t, []float64{1, 1, 1, 1}, req.ColorCorrectionGains)
	require.Len(t, req.ColorCorrectionTransform, 9)
	for i, r := range req.ColorCorrectionTransform {
		exp := 0.0
		if i%4 == 0 {
			exp = 1
		}
		assert.Equal(t, exp, r.Float64(), "transform element %d", i)
	}

	buf, err := json.Marshal(req)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf, &m))
	assert.Equal(t, 33e6, m["android.sensor.exposureTime"])
	assert.Equal(t, 0.0, m["android.control.aeMode"])
	assert.Contains(t, m, "android.colorCorrection.transform")
	assert.NotContains(t, m, "android.tonemap.curve")
	assert.NotContains(t, m, "android.noiseReduction.mode")
}

func TestFastestSettings(t *testing.T) {
	props := newProps()
	props.AvailableNoiseReductionModes = []int{1, 2}

	req, out, err := capture.FastestManualSettings(props)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatYUV, Width: 320, Height: 240}, out)
	assert.Equal(t, 100, *req.Sensitivity)
	assert.Equal(t, int64(100), *req.ExposureTime)
	assert.Equal(t, capture.ModeFast, *req.NoiseReductionMode)

	req, out, err = capture.FastestAutoSettings(props)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatYUV, Width: 320, Height: 240}, out)
	assert.Equal(t, capture.AEModeOn, *req.AEMode)
	assert.Equal(t, capture.ModeFast, *req.NoiseReductionMode)

	props.SensitivityRange = nil
	_, _, err = capture.FastestManualSettings(props)
	assert.ErrorIs(t, err, capture.ErrUnsupportedCapability)

	_, err = capture.FastestAutoRequest(nil)
	assert.ErrorIs(t, err, capture.ErrNoProperties)
}

func TestFlashCaptureSequence(t *testing.T) {
	seq := capture.FlashCaptureSequence()
	for _, req := range []capture.Request{seq.PreviewStart, seq.PreviewIdle, seq.StillCapture} {
		assert.Equal(t, capture.AEModeOnAutoFlash, *req.AEMode)
		assert.Equal(t, capture.ControlModeAuto, *req.ControlMode)
	}
	assert.Equal(t, capture.CaptureIntentPreview, *seq.PreviewStart.CaptureIntent)
	assert.Equal(t, capture.AEPrecaptureTriggerStart, *seq.PreviewStart.AEPrecaptureTrigger)
	assert.Equal(t, capture.CaptureIntentPreview, *seq.PreviewIdle.CaptureIntent)
	assert.Equal(t, capture.AEPrecaptureTriggerIdle, *seq.PreviewIdle.AEPrecaptureTrigger)
	assert.Equal(t, capture.CaptureIntentStillCapture, *seq.StillCapture.CaptureIntent)
	assert.Equal(t, capture.AEPrecaptureTriggerIdle, *seq.StillCapture.AEPrecaptureTrigger)

	// Requests must not share state.
	*seq.PreviewIdle.AEMode = 0
	assert.Equal(t, capture.AEModeOnAutoFlash, *seq.PreviewStart.AEMode)
}

func TestBursts(t *testing.T) {
	mk := func(n int) []capture.Request {
		l := make([]capture.Request, n)
		for i := range l {
			e := int64(i)
			l[i].ExposureTime = &e
		}
		return l
	}
	lens := func(b [][]capture.Request) []int {
		var r []int
		for _, x := range b {
			r = append(r, len(x))
		}
		return r
	}

	testCases := []struct {
		n, burst int
		exp      []int
	}{
		{20, 10, []int{10, 10}},
		{25, 10, []int{10, 10, 5}},
		{21, 10, []int{9, 9, 3}},
		{11, 10, []int{9, 2}},
		{1, 10, []int{1}},
		{0, 10, nil},
		{3, 0, []int{1, 1, 1}},
	}
	for _, tc := range testCases {
		reqs := mk(tc.n)
		b := capture.Bursts(reqs, tc.burst)
		assert.Equal(t, tc.exp, lens(b), "bursts of %d requests, burst length %d", tc.n, tc.burst)

		var i int64
		for _, burst := range b {
			for _, req := range burst {
				assert.Equal(t, i, *req.ExposureTime, "order must be preserved")
				i++
			}
		}
	}
}
