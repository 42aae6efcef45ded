package image

import (
	"encoding/binary"
	"fmt"
	"math"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/capture"
)

// StatsGrid holds a value per Bayer channel for each cell of a grid.
type StatsGrid struct {
	Width  int
	Height int
	cells  [][4]float64
}

// At returns the values of the cell at column x, row y, in the channel order
// of the capture.
func (g StatsGrid) At(x, y int) [4]float64 {
	return g.cells[y*g.Width+x]
}

// Center returns the values of the center cell.
func (g StatsGrid) Center() [4]float64 {
	return g.At(g.Width/2, g.Height/2)
}

// UnpackRawStats returns the per-cell means and variances of a rawStats
// capture. The data holds little-endian float32 values, first all means, then
// all variances, each laid out as rows of cells of 4 channels.
func UnpackRawStats(c its.Capture) (means, variances StatsGrid, rerr error) {
	if c.Format != capture.FormatRawStats {
		return means, variances, fmt.Errorf("unpacking rawStats: capture has format %q", c.Format)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return means, variances, fmt.Errorf("unpacking rawStats: invalid grid %dx%d", c.Width, c.Height)
	}
	n := c.Width * c.Height
	if exp := 2 * n * 4 * 4; len(c.Data) < exp {
		return means, variances, fmt.Errorf("unpacking rawStats: got %d bytes, need %d", len(c.Data), exp)
	}

	read := func(offset int) StatsGrid {
		g := StatsGrid{c.Width, c.Height, make([][4]float64, n)}
		for i := range g.cells {
			for ch := 0; ch < 4; ch++ {
				o := offset + (i*4+ch)*4
				g.cells[i][ch] = float64(math.Float32frombits(binary.LittleEndian.Uint32(c.Data[o:])))
			}
		}
		return g
	}
	return read(0), read(n * 4 * 4), nil
}
