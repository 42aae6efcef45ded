package image_test

import (
	"bytes"
	stdimage "image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/capture"
	"github.com/camerasuite/its-go/image"
)

func yuvCapture(w, h int, y, cb, cr byte) its.Capture {
	data := bytes.Repeat([]byte{y}, w*h)
	data = append(data, bytes.Repeat([]byte{cb}, w*h/4)...)
	data = append(data, bytes.Repeat([]byte{cr}, w*h/4)...)
	return its.Capture{Format: capture.FormatYUV, Width: w, Height: h, Data: data}
}

func TestDecodeCapture(t *testing.T) {
	img, err := image.DecodeCapture(yuvCapture(8, 4, 200, 128, 128))
	require.NoError(t, err)
	assert.Equal(t, stdimage.Rect(0, 0, 8, 4), img.Bounds())
	means := image.ChannelMeans(img)
	for _, m := range means {
		assert.InDelta(t, 200.0/255, m, 1e-9)
	}

	img, err = image.DecodeCapture(its.Capture{Format: capture.FormatY8, Width: 2, Height: 2, Data: []byte{0, 255, 0, 255}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, image.ChannelMeans(img), 1e-9)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, imaging.New(16, 8, color.NRGBA{0, 0, 0, 255}), nil))
	img, err = image.DecodeCapture(its.Capture{Format: capture.FormatJPEG, Width: 16, Height: 8, Data: buf.Bytes()})
	require.NoError(t, err)
	assert.Equal(t, stdimage.Rect(0, 0, 16, 8), img.Bounds())

	_, err = image.DecodeCapture(its.Capture{Format: capture.FormatRaw, Width: 2, Height: 2})
	assert.ErrorIs(t, err, image.ErrUnsupportedFormat)

	short := yuvCapture(8, 4, 0, 0, 0)
	short.Data = short.Data[:10]
	_, err = image.DecodeCapture(short)
	assert.Error(t, err)

	_, err = image.DecodeCapture(its.Capture{Format: capture.FormatJPEG, Data: []byte("not a jpeg")})
	assert.Error(t, err)
}

func TestChannelStats(t *testing.T) {
	img := imaging.New(4, 4, color.NRGBA{255, 0, 51, 255})
	assert.InDeltaSlice(t, []float64{1, 0, 0.2}, image.ChannelMeans(img), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, image.ChannelVariances(img), 1e-9)

	// Left half black, right half red.
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.NRGBA{0, 0, 51, 255})
		}
	}
	assert.InDeltaSlice(t, []float64{0.5, 0, 0.2}, image.ChannelMeans(img), 1e-9)
	assert.InDeltaSlice(t, []float64{0.25, 0, 0}, image.ChannelVariances(img), 1e-9)
}

func TestPatch(t *testing.T) {
	img := imaging.New(10, 20, color.NRGBA{10, 20, 30, 255})
	img.Set(5, 10, color.NRGBA{255, 255, 255, 255})

	p, err := image.Patch(img, 0.45, 0.5, 0.1, 0.1)
	require.NoError(t, err)
	// Origin rounded up to 5,10. Size 1x2.
	assert.Equal(t, stdimage.Rect(0, 0, 1, 2), p.Bounds())
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, p.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, p.NRGBAAt(0, 1))

	_, err = image.Patch(img, 0.5, 0.5, 1.5, 0.1)
	assert.Error(t, err)
	_, err = image.Patch(img, 0.5, 0.5, 0, 0)
	assert.Error(t, err, "empty patch")
}

func TestDownscale(t *testing.T) {
	img := imaging.New(9, 5, color.NRGBA{100, 150, 200, 255})
	d, err := image.Downscale(img, 2)
	require.NoError(t, err)
	assert.Equal(t, stdimage.Rect(0, 0, 4, 2), d.Bounds())
	c := d.NRGBAAt(1, 1)
	assert.InDelta(t, 100, int(c.R), 1)
	assert.InDelta(t, 150, int(c.G), 1)
	assert.InDelta(t, 200, int(c.B), 1)

	d, err = image.Downscale(img, 1)
	require.NoError(t, err)
	assert.Equal(t, stdimage.Rect(0, 0, 9, 5), d.Bounds())

	_, err = image.Downscale(img, 0)
	assert.Error(t, err)
	_, err = image.Downscale(img, 6)
	assert.Error(t, err)
}

func TestWriteImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch.png")
	img := imaging.New(3, 2, color.NRGBA{1, 2, 3, 255})
	require.NoError(t, image.WriteImage(img, path))

	back, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), back.Bounds())

	assert.Error(t, image.WriteImage(img, filepath.Join(t.TempDir(), "patch.unknown")))
}
