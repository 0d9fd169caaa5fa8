package imaging

import (
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// DefaultSplitRatio is returned whenever no divider can be detected.
const DefaultSplitRatio = 0.5

const (
	minSplitDimension = 10
	searchStart       = 0.2
	searchEnd         = 0.8
)

// ErrInvalidSplit reports a ratio that would produce an empty half.
var ErrInvalidSplit = errors.New("split position outside image")

// DetectSplitRatio locates the vertical divider of a combined obverse/reverse
// photograph and returns its position as a fraction of the width.
//
// Each column's energy is the summed RGB difference between vertically
// adjacent pixels. Within the middle 60% of the image the widest run of
// columns whose energy stays below a third of the average is taken as the
// gap between the two coins; its centre is the split position.
func DetectSplitRatio(img image.Image) float64 {
	rgba := ToRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if w < minSplitDimension || h < minSplitDimension {
		return DefaultSplitRatio
	}

	energy := columnEnergy(rgba)
	var total float64
	for _, e := range energy {
		total += e
	}
	threshold := total / float64(w) / 3

	start, end := int(float64(w)*searchStart), int(float64(w)*searchEnd)
	bestStart, bestWidth := -1, 0
	runStart, runWidth := -1, 0
	for x := start; x < end; x++ {
		if energy[x] < threshold {
			if runStart < 0 {
				runStart = x
			}
			runWidth++
			continue
		}
		if runWidth > bestWidth {
			bestStart, bestWidth = runStart, runWidth
		}
		runStart, runWidth = -1, 0
	}
	if runWidth > bestWidth {
		bestStart, bestWidth = runStart, runWidth
	}
	if bestStart < 0 {
		return DefaultSplitRatio
	}
	return (float64(bestStart) + float64(bestWidth)/2) / float64(w)
}

func columnEnergy(img *image.RGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	energy := make([]float64, w)
	for y := 0; y < h-1; y++ {
		row := img.Pix[y*img.Stride:]
		next := img.Pix[(y+1)*img.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			energy[x] += absDiff(row[i], next[i]) + absDiff(row[i+1], next[i+1]) + absDiff(row[i+2], next[i+2])
		}
	}
	return energy
}

func absDiff(a, b uint8) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}

// Split cuts img vertically at ratio of its width and returns the left
// (obverse) and right (reverse) halves.
func Split(img image.Image, ratio float64) (left, right *image.RGBA, err error) {
	b := img.Bounds()
	w := b.Dx()
	splitX := int(float64(w) * ratio)
	if splitX < 1 || splitX >= w {
		return nil, nil, fmt.Errorf("%w: ratio %.3f of width %d", ErrInvalidSplit, ratio, w)
	}

	left = image.NewRGBA(image.Rect(0, 0, splitX, b.Dy()))
	xdraw.Copy(left, image.Point{}, img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+splitX, b.Max.Y), xdraw.Src, nil)

	right = image.NewRGBA(image.Rect(0, 0, w-splitX, b.Dy()))
	xdraw.Copy(right, image.Point{}, img, image.Rect(b.Min.X+splitX, b.Min.Y, b.Max.X, b.Max.Y), xdraw.Src, nil)
	return left, right, nil
}

// SplitFile decodes src, splits it at ratio and writes the halves to
// obversePath and reversePath.
func SplitFile(src string, ratio float64, obversePath, reversePath string) error {
	img, err := Decode(src)
	if err != nil {
		return err
	}
	left, right, err := Split(img, ratio)
	if err != nil {
		return err
	}
	if err := WriteFile(obversePath, left); err != nil {
		return err
	}
	return WriteFile(reversePath, right)
}

// DetectSplitRatioFile is DetectSplitRatio over a file. Unreadable images
// yield DefaultSplitRatio.
func DetectSplitRatioFile(path string) (float64, error) {
	img, err := Decode(path)
	if err != nil {
		return DefaultSplitRatio, err
	}
	return DetectSplitRatio(img), nil
}
