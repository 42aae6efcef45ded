// Package image decodes captures and computes the image statistics used by
// the conformance checks.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/capture"
)

// ErrUnsupportedFormat is returned when decoding a capture whose format has
// no image decoder.
var ErrUnsupportedFormat = errors.New("unsupported capture format")

// DecodeCapture decodes a yuv (8-bit planar 4:2:0), y8 or jpeg capture.
func DecodeCapture(c its.Capture) (image.Image, error) {
	switch c.Format {
	case capture.FormatYUV:
		return decodeYUV420(c.Data, c.Width, c.Height)
	case capture.FormatY8:
		return decodeY8(c.Data, c.Width, c.Height)
	case capture.FormatJPEG, capture.FormatJPEGR:
		img, err := jpeg.Decode(bytes.NewReader(c.Data))
		if err != nil {
			return nil, fmt.Errorf("decoding jpeg: %v", err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, c.Format)
	}
}

func decodeYUV420(data []byte, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return nil, fmt.Errorf("invalid yuv size %dx%d", w, h)
	}
	ysize := w * h
	csize := ysize / 4
	if len(data) < ysize+2*csize {
		return nil, fmt.Errorf("yuv data too short, got %d bytes, need %d", len(data), ysize+2*csize)
	}
	return &image.YCbCr{
		Y:              data[:ysize],
		Cb:             data[ysize : ysize+csize],
		Cr:             data[ysize+csize : ysize+2*csize],
		YStride:        w,
		CStride:        w / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, w, h),
	}, nil
}

func decodeY8(data []byte, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid y8 size %dx%d", w, h)
	}
	if len(data) < w*h {
		return nil, fmt.Errorf("y8 data too short, got %d bytes, need %d", len(data), w*h)
	}
	return &image.Gray{
		Pix:    data[:w*h],
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}
