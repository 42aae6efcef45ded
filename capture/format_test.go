package capture_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camerasuite/its-go/capture"
)

func TestAvailableOutputSizes(t *testing.T) {
	props := newProps()

	sizes, err := capture.AvailableOutputSizes(capture.FormatYUV, props, nil)
	require.NoError(t, err)
	assert.Equal(t, []capture.Size{{1920, 1080}, {640, 480}, {320, 240}}, sizes, "input configuration must be excluded")

	sizes, err = capture.AvailableOutputSizes(capture.FormatYUV, props, &capture.SizeOpts{MaxSize: &capture.Size{1280, 720}})
	require.NoError(t, err)
	assert.Equal(t, []capture.Size{{640, 480}, {320, 240}}, sizes)

	sizes, err = capture.AvailableOutputSizes(capture.FormatYUV, props, &capture.SizeOpts{MatchAspectRatio: &capture.Size{1280, 720}})
	require.NoError(t, err)
	assert.Equal(t, []capture.Size{{1920, 1080}}, sizes)

	sizes, err = capture.AvailableOutputSizes(capture.FormatPriv, props, nil)
	require.NoError(t, err)
	assert.Empty(t, sizes)

	_, err = capture.AvailableOutputSizes("bogus", props, nil)
	assert.True(t, errors.Is(err, capture.ErrInvalidFormatKind), "got %v", err)

	_, err = capture.AvailableOutputSizes(capture.FormatYUV, nil, nil)
	assert.ErrorIs(t, err, capture.ErrNoProperties)
}

func TestAvailableOutputSizesOrder(t *testing.T) {
	props := &capture.Properties{}
	for _, s := range []capture.Size{{100, 400}, {400, 100}, {200, 200}, {300, 300}, {50, 50}, {800, 50}} {
		props.StreamConfigurationMap.AvailableStreamConfigurations = append(props.StreamConfigurationMap.AvailableStreamConfigurations,
			capture.StreamConfig{Format: codeJPEG, Width: s.Width, Height: s.Height})
	}
	sizes, err := capture.AvailableOutputSizes(capture.FormatJPEG, props, nil)
	require.NoError(t, err)

	exp := []capture.Size{{300, 300}, {800, 50}, {400, 100}, {200, 200}, {100, 400}, {50, 50}}
	assert.Equal(t, exp, sizes)
	for i := 1; i < len(sizes); i++ {
		a, b := sizes[i-1], sizes[i]
		assert.GreaterOrEqual(t, a.Area(), b.Area())
		if a.Area() == b.Area() {
			assert.GreaterOrEqual(t, a.Width, b.Width)
		}
	}
}

func TestParseFormatKind(t *testing.T) {
	k, err := capture.ParseFormatKind("jpg")
	require.NoError(t, err)
	assert.Equal(t, capture.FormatJPEG, k)

	for _, kind := range capture.FormatKinds {
		k, err := capture.ParseFormatKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, k)
	}

	_, err = capture.ParseFormatKind("rawStats")
	assert.ErrorIs(t, err, capture.ErrInvalidFormatKind)

	code, err := capture.FormatY8.Code()
	require.NoError(t, err)
	assert.Equal(t, 0x20203859, code)
}

func TestIsCommonAspectRatio(t *testing.T) {
	testCases := []struct {
		size capture.Size
		exp  bool
	}{
		{capture.Size{1280, 960}, true},
		{capture.Size{1920, 1080}, true},
		{capture.Size{1440, 1080}, true},
		{capture.Size{1920, 1088}, false},
		{capture.Size{1000, 300}, false},
		{capture.Size{1000, 1000}, false},
		{capture.Size{720, 480}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.size.String(), func(t *testing.T) {
			assert.Equal(t, tc.exp, capture.IsCommonAspectRatio(tc.size))
		})
	}
}

func TestYUVFormats(t *testing.T) {
	props := newProps()

	f, err := capture.SmallestYUVFormat(props, nil)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatYUV, Width: 320, Height: 240}, f)

	f, err = capture.LargestYUVFormat(props, nil)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatYUV, Width: 1920, Height: 1080}, f)

	f, err = capture.LargestYUVFormat(props, &capture.Size{4, 3})
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatYUV, Width: 640, Height: 480}, f)

	f, err = capture.LargestJPEGFormat(props, nil)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatJPEG, Width: 4000, Height: 3000}, f)

	_, err = capture.SmallestYUVFormat(props, &capture.Size{1, 1})
	assert.ErrorIs(t, err, capture.ErrNoOutputSize)
	_, err = capture.LargestYUVFormat(&capture.Properties{}, nil)
	assert.ErrorIs(t, err, capture.ErrNoOutputSize)
}

func TestNearVGAYUVFormat(t *testing.T) {
	props := newProps()
	f, err := capture.NearVGAYUVFormat(props, nil)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatYUV, Width: 640, Height: 480}, f)

	// Only sizes out of range: fall back to VGA.
	props.StreamConfigurationMap.AvailableStreamConfigurations = []capture.StreamConfig{
		{Format: codeYUV, Width: 4000, Height: 3000},
		{Format: codeYUV, Width: 176, Height: 144},
	}
	f, err = capture.NearVGAYUVFormat(props, nil)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatYUV, Width: 640, Height: 480}, f)

	props.StreamConfigurationMap.AvailableStreamConfigurations = []capture.StreamConfig{
		{Format: codeYUV, Width: 1920, Height: 1080},
		{Format: codeYUV, Width: 1280, Height: 720},
		{Format: codeYUV, Width: 320, Height: 240},
	}
	f, err = capture.NearVGAYUVFormat(props, nil)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatYUV, Width: 1280, Height: 720}, f)
}

func TestMaxDigitalZoom(t *testing.T) {
	props := newProps()
	assert.Equal(t, 1.0, capture.MaxDigitalZoom(props))
	z := 8.0
	props.MaxDigitalZoom = &z
	assert.Equal(t, 8.0, capture.MaxDigitalZoom(props))
	assert.Equal(t, 1.0, capture.MaxDigitalZoom(nil))
}

func TestRawStatsFormat(t *testing.T) {
	props := newProps()
	f, err := capture.RawStatsFormat(props, 9)
	require.NoError(t, err)
	assert.Equal(t, capture.OutputSpec{Format: capture.FormatRawStats, GridWidth: 448, GridHeight: 336}, f)
	assert.Equal(t, "rawStats grid 448x336", f.String())

	props.PreCorrectionActiveArraySize = nil
	_, err = capture.RawStatsFormat(props, 9)
	assert.ErrorIs(t, err, capture.ErrUnsupportedCapability)
}
