package capture

import (
	"fmt"
	"math"
	"sort"
)

// FormatKind is the name of an output image format.
type FormatKind string

// Output formats a device can declare stream configurations for.
const (
	FormatRaw   FormatKind = "raw"
	FormatRaw10 FormatKind = "raw10"
	FormatRaw12 FormatKind = "raw12"
	FormatYUV   FormatKind = "yuv"
	FormatJPEG  FormatKind = "jpeg"
	FormatJPEGR FormatKind = "jpeg_r"
	FormatPriv  FormatKind = "priv"
	FormatY8    FormatKind = "y8"

	// FormatRawStats asks the session for per-cell statistics of a RAW16
	// image instead of the image itself. It has no stream configuration.
	FormatRawStats FormatKind = "rawStats"
)

var formatCodes = map[FormatKind]int{
	FormatRaw:   0x20,
	FormatRaw10: 0x25,
	FormatRaw12: 0x26,
	FormatYUV:   0x23,
	FormatJPEG:  0x100,
	FormatJPEGR: 0x1005,
	FormatPriv:  0x22,
	FormatY8:    0x20203859,
}

// FormatKinds lists the formats that have a stream configuration code.
var FormatKinds = []FormatKind{FormatRaw, FormatRaw10, FormatRaw12, FormatYUV, FormatJPEG, FormatJPEGR, FormatPriv, FormatY8}

// ParseFormatKind parses a format name. "jpg" is accepted for jpeg.
func ParseFormatKind(s string) (FormatKind, error) {
	if s == "jpg" {
		return FormatJPEG, nil
	}
	k := FormatKind(s)
	if _, ok := formatCodes[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormatKind, s)
	}
	return k, nil
}

// Code returns the numeric format code used in stream configurations.
func (k FormatKind) Code() (int, error) {
	c, ok := formatCodes[k]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormatKind, string(k))
	}
	return c, nil
}

// Size is an image size in pixels.
type Size struct {
	Width  int
	Height int
}

// Area returns the number of pixels.
func (s Size) Area() int {
	return s.Width * s.Height
}

// AspectRatio returns width divided by height.
func (s Size) AspectRatio() float64 {
	return float64(s.Width) / float64(s.Height)
}

// String returns the size as "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// OutputSpec describes the output surface for a capture.
type OutputSpec struct {
	Format FormatKind `json:"format"`
	Width  int        `json:"width,omitempty"`
	Height int        `json:"height,omitempty"`

	// Only for FormatRawStats: size of each statistics cell.
	GridWidth  int `json:"gridWidth,omitempty"`
	GridHeight int `json:"gridHeight,omitempty"`
}

// String returns a human-readable output spec.
func (o OutputSpec) String() string {
	if o.Format == FormatRawStats {
		return fmt.Sprintf("%s grid %dx%d", o.Format, o.GridWidth, o.GridHeight)
	}
	return fmt.Sprintf("%s %dx%d", o.Format, o.Width, o.Height)
}

const (
	aspectRatioTolerance       = 0.03
	commonAspectRatioTolerance = 0.01
)

var commonAspectRatios = []float64{4.0 / 3, 16.0 / 9}

// SizeOpts restricts the sizes returned by AvailableOutputSizes.
type SizeOpts struct {
	// If not nil, sizes wider or taller than MaxSize are dropped.
	MaxSize *Size

	// If not nil, sizes whose aspect ratio differs from that of
	// MatchAspectRatio by more than 0.03 are dropped.
	MatchAspectRatio *Size
}

// AvailableOutputSizes returns the output sizes the device declares for
// format kind, largest area first. Sizes with equal area are ordered by
// descending width. Input-only configurations are ignored.
func AvailableOutputSizes(kind FormatKind, props *Properties, opts *SizeOpts) ([]Size, error) {
	if props == nil {
		return nil, ErrNoProperties
	}
	code, err := kind.Code()
	if err != nil {
		return nil, err
	}
	var xopts SizeOpts
	if opts != nil {
		xopts = *opts
	}

	sizes := []Size{}
	for _, cfg := range props.StreamConfigurationMap.AvailableStreamConfigurations {
		if cfg.Format != code || cfg.Input {
			continue
		}
		s := Size{cfg.Width, cfg.Height}
		if m := xopts.MaxSize; m != nil && (s.Width > m.Width || s.Height > m.Height) {
			continue
		}
		if m := xopts.MatchAspectRatio; m != nil && math.Abs(m.AspectRatio()-s.AspectRatio()) > aspectRatioTolerance {
			continue
		}
		sizes = append(sizes, s)
	}

	sort.SliceStable(sizes, func(i, j int) bool {
		return sizes[i].Width > sizes[j].Width
	})
	sort.SliceStable(sizes, func(i, j int) bool {
		return sizes[i].Area() > sizes[j].Area()
	})
	return sizes, nil
}

// IsCommonAspectRatio reports whether s is 4:3 or 16:9, within 0.01.
func IsCommonAspectRatio(s Size) bool {
	ar := s.AspectRatio()
	for _, c := range commonAspectRatios {
		if math.Abs(ar-c) <= commonAspectRatioTolerance {
			return true
		}
	}
	return false
}

func formatSizes(kind FormatKind, props *Properties, matchAR *Size) ([]Size, error) {
	sizes, err := AvailableOutputSizes(kind, props, &SizeOpts{MatchAspectRatio: matchAR})
	if err != nil {
		return nil, err
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: format %s", ErrNoOutputSize, kind)
	}
	return sizes, nil
}

// LargestYUVFormat returns the output spec for the largest yuv size,
// optionally restricted to the aspect ratio of matchAR.
func LargestYUVFormat(props *Properties, matchAR *Size) (OutputSpec, error) {
	sizes, err := formatSizes(FormatYUV, props, matchAR)
	if err != nil {
		return OutputSpec{}, err
	}
	return OutputSpec{Format: FormatYUV, Width: sizes[0].Width, Height: sizes[0].Height}, nil
}

// SmallestYUVFormat returns the output spec for the smallest yuv size,
// optionally restricted to the aspect ratio of matchAR.
func SmallestYUVFormat(props *Properties, matchAR *Size) (OutputSpec, error) {
	sizes, err := formatSizes(FormatYUV, props, matchAR)
	if err != nil {
		return OutputSpec{}, err
	}
	s := sizes[len(sizes)-1]
	return OutputSpec{Format: FormatYUV, Width: s.Width, Height: s.Height}, nil
}

// LargestJPEGFormat returns the output spec for the largest jpeg size,
// optionally restricted to the aspect ratio of matchAR.
func LargestJPEGFormat(props *Properties, matchAR *Size) (OutputSpec, error) {
	sizes, err := formatSizes(FormatJPEG, props, matchAR)
	if err != nil {
		return OutputSpec{}, err
	}
	return OutputSpec{Format: FormatJPEG, Width: sizes[0].Width, Height: sizes[0].Height}, nil
}

var (
	vgaSize    = Size{640, 480}
	minNearVGA = Size{640, 360}
	maxNearVGA = Size{1920, 1080}
)

// NearVGAYUVFormat returns the smallest yuv size with an area between 640x360
// and 1920x1080. If no declared size is in that range, 640x480 is returned.
func NearVGAYUVFormat(props *Properties, matchAR *Size) (OutputSpec, error) {
	sizes, err := AvailableOutputSizes(FormatYUV, props, &SizeOpts{MatchAspectRatio: matchAR})
	if err != nil {
		return OutputSpec{}, err
	}
	spec := OutputSpec{Format: FormatYUV, Width: vgaSize.Width, Height: vgaSize.Height}
	for _, s := range sizes {
		if s.Area() < minNearVGA.Area() || s.Area() > maxNearVGA.Area() {
			continue
		}
		spec.Width, spec.Height = s.Width, s.Height
	}
	return spec, nil
}

// MaxDigitalZoom returns the maximum digital zoom ratio, 1 if the device does
// not declare one.
func MaxDigitalZoom(props *Properties) float64 {
	if props == nil || props.MaxDigitalZoom == nil {
		return 1
	}
	return *props.MaxDigitalZoom
}

// RawStatsFormat returns an output spec for rawStats captures dividing the
// pre-correction active array into a grid x grid set of cells.
func RawStatsFormat(props *Properties, grid int) (OutputSpec, error) {
	if props == nil {
		return OutputSpec{}, ErrNoProperties
	}
	aa := props.PreCorrectionActiveArraySize
	if aa == nil {
		return OutputSpec{}, fmt.Errorf("%w: no pre-correction active array size", ErrUnsupportedCapability)
	}
	if grid <= 0 {
		return OutputSpec{}, fmt.Errorf("grid must be > 0, got %d", grid)
	}
	return OutputSpec{
		Format:     FormatRawStats,
		GridWidth:  aa.Width() / grid,
		GridHeight: aa.Height() / grid,
	}, nil
}
