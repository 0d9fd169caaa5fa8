package testsupport

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadText returns the file content or fails the test.
func ReadText(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// WriteImage encodes img as PNG or JPEG depending on the path extension.
func WriteImage(t testing.TB, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// NoiseImage returns a deterministic image of random pixels.
func NoiseImage(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		if i%4 == 3 {
			img.Pix[i] = 0xff
			continue
		}
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

// BandImage returns noise with a uniform vertical band covering [x0, x1).
func BandImage(w, h, x0, x1 int, seed int64) *image.RGBA {
	img := NoiseImage(w, h, seed)
	band := color.RGBA{R: 200, G: 200, B: 200, A: 0xff}
	for y := 0; y < h; y++ {
		for x := x0; x < x1 && x < w; x++ {
			img.SetRGBA(x, y, band)
		}
	}
	return img
}

// BlockImage returns an image made of 9x8 uniform gray cells, each cell
// cellSize pixels wide, with levels drawn from a fixed permutation so that
// neighbouring cells always differ.
func BlockImage(cellSize int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(72)
	img := image.NewRGBA(image.Rect(0, 0, 9*cellSize, 8*cellSize))
	for cy := 0; cy < 8; cy++ {
		for cx := 0; cx < 9; cx++ {
			level := uint8(20 + order[cy*9+cx]*3)
			c := color.RGBA{R: level, G: level, B: level, A: 0xff}
			for y := cy * cellSize; y < (cy+1)*cellSize; y++ {
				for x := cx * cellSize; x < (cx+1)*cellSize; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

// Stretch applies v*gain+offset to every colour channel, clamped to 0..255.
func Stretch(src *image.RGBA, gain, offset float64) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	for i, v := range src.Pix {
		if i%4 == 3 {
			out.Pix[i] = v
			continue
		}
		f := float64(v)*gain + offset
		switch {
		case f < 0:
			f = 0
		case f > 255:
			f = 255
		}
		out.Pix[i] = uint8(f + 0.5)
	}
	return out
}
