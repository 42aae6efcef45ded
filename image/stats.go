package image

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

// Patch returns the part of img at normalized coordinates x, y with
// normalized width w and height h, all in [0,1]. The origin is rounded up and
// the size rounded down to whole pixels.
func Patch(img image.Image, x, y, w, h float64) (*image.NRGBA, error) {
	for _, v := range []float64{x, y, w, h} {
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("patch coordinates must be in [0,1], got %v,%v %vx%v", x, y, w, h)
		}
	}
	b := img.Bounds()
	px := b.Min.X + int(math.Ceil(x*float64(b.Dx())))
	py := b.Min.Y + int(math.Ceil(y*float64(b.Dy())))
	pw := int(math.Floor(w * float64(b.Dx())))
	ph := int(math.Floor(h * float64(b.Dy())))
	r := image.Rect(px, py, px+pw, py+ph).Intersect(b)
	if r.Empty() {
		return nil, fmt.Errorf("empty patch %v of image %v", r, b)
	}
	return imaging.Crop(img, r), nil
}

// channels returns the red, green and blue values of img, scaled to [0,1].
func channels(img image.Image) [3][]float64 {
	nrgba := imaging.Clone(img)
	n := nrgba.Rect.Dx() * nrgba.Rect.Dy()
	var chs [3][]float64
	for i := range chs {
		chs[i] = make([]float64, 0, n)
	}
	for y := 0; y < nrgba.Rect.Dy(); y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+nrgba.Rect.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			for i := range chs {
				chs[i] = append(chs[i], float64(row[x+i])/255)
			}
		}
	}
	return chs
}

// ChannelMeans returns the mean of the red, green and blue channels of img,
// with values scaled to [0,1].
func ChannelMeans(img image.Image) []float64 {
	var r []float64
	for _, ch := range channels(img) {
		r = append(r, stat.Mean(ch, nil))
	}
	return r
}

// ChannelVariances returns the population variance of the red, green and
// blue channels of img, with values scaled to [0,1].
func ChannelVariances(img image.Image) []float64 {
	var r []float64
	for _, ch := range channels(img) {
		_, v := stat.PopMeanVariance(ch, nil)
		r = append(r, v)
	}
	return r
}

// Downscale reduces img by integer factor f, averaging each f x f block of
// pixels. Rows and columns that do not fill a whole block are dropped.
func Downscale(img image.Image, f int) (*image.NRGBA, error) {
	if f < 1 {
		return nil, fmt.Errorf("downscale factor must be >= 1, got %d", f)
	}
	b := img.Bounds()
	w := b.Dx() / f
	h := b.Dy() / f
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image %v too small for downscale factor %d", b.Size(), f)
	}
	cropped := imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+w*f, b.Min.Y+h*f))
	if f == 1 {
		return cropped, nil
	}
	return imaging.Resize(cropped, w, h, imaging.Box), nil
}

// WriteImage writes img to path, the format determined by the file
// extension, eg ".png" or ".jpg".
func WriteImage(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("writing image %s: %v", path, err)
	}
	return nil
}
