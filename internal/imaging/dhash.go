package imaging

import (
	"fmt"
	"image"
	"math/bits"
	"sort"
	"strconv"
)

const (
	gridWidth  = 9
	gridHeight = 8
	gridCells  = gridWidth * gridHeight

	// clipPercent of the luma histogram is discarded on each tail before
	// the remaining range is stretched to 0..255.
	clipPercent = 5
)

// Hash is a 64-bit difference hash. Bit row*8+col is set when the luma of
// grid cell (col, row) exceeds that of (col+1, row).
type Hash uint64

// String renders the hash as 16 lower-case hex digits.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// ParseHash parses the form produced by Hash.String.
func ParseHash(value string) (Hash, error) {
	v, err := strconv.ParseUint(value, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", value, err)
	}
	return Hash(v), nil
}

// HammingDistance counts the differing bits of a and b.
func HammingDistance(a, b Hash) int {
	return bits.OnesCount64(uint64(a) ^ uint64(b))
}

// DHash computes the difference hash of img. Images smaller than the 9x8
// grid are sampled by nearest neighbour.
func DHash(img image.Image) Hash {
	lumas := autocontrast(downsampleLuma(ToRGBA(img)))

	var h Hash
	for y := 0; y < gridHeight; y++ {
		for x := 0; x < gridWidth-1; x++ {
			left := lumas[y*gridWidth+x]
			right := lumas[y*gridWidth+x+1]
			if left > right {
				h |= 1 << uint(y*8+x)
			}
		}
	}
	return h
}

// downsampleLuma area-averages img onto the 9x8 grid and returns the luma of
// each cell in row-major order.
func downsampleLuma(img *image.RGBA) [gridCells]float64 {
	var out [gridCells]float64
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return out
	}
	for cy := 0; cy < gridHeight; cy++ {
		y0, y1 := span(cy, gridHeight, h)
		for cx := 0; cx < gridWidth; cx++ {
			x0, x1 := span(cx, gridWidth, w)
			var r, g, b, n float64
			for y := y0; y < y1; y++ {
				row := img.Pix[y*img.Stride:]
				for x := x0; x < x1; x++ {
					p := row[x*4 : x*4+3]
					r += float64(p[0])
					g += float64(p[1])
					b += float64(p[2])
					n++
				}
			}
			out[cy*gridWidth+cx] = luma(r/n, g/n, b/n)
		}
	}
	return out
}

// span maps grid cell i of n onto the pixel range [lo, hi) of size. Every
// range holds at least one pixel.
func span(i, n, size int) (lo, hi int) {
	lo = i * size / n
	hi = (i + 1) * size / n
	if hi <= lo {
		if lo >= size {
			lo = size - 1
		}
		hi = lo + 1
	}
	return lo, hi
}

func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// autocontrast clips clipPercent of the cells on each tail and stretches
// the rest linearly to 0..255.
func autocontrast(lumas [gridCells]float64) [gridCells]float64 {
	sorted := lumas
	sort.Float64s(sorted[:])

	clip := gridCells * clipPercent / 100
	lo := sorted[clip]
	hi := sorted[gridCells-1-clip]
	rng := hi - lo
	if rng < 1 {
		rng = 1
	}

	var out [gridCells]float64
	for i, v := range lumas {
		scaled := (v - lo) * 255 / rng
		switch {
		case scaled < 0:
			scaled = 0
		case scaled > 255:
			scaled = 255
		}
		out[i] = scaled
	}
	return out
}
