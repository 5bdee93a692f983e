package report

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WeightImage lays the K rows of W side by side as side×side tiles with a
// one pixel gutter. Each row holds channel planes back to back (all red,
// then green, then blue) and is min-max scaled to the full intensity range
// on its own. channels must be 1 or 3.
func WeightImage(W mat.Matrix, side, channels int) (*image.RGBA, error) {
	k, d := W.Dims()
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("report: unsupported channel count %d", channels)
	}
	if side*side*channels != d {
		return nil, fmt.Errorf("report: %dx%dx%d does not match row length %d", side, side, channels, d)
	}

	const gutter = 1
	img := image.NewRGBA(image.Rect(0, 0, k*(side+gutter)-gutter, side))
	row := make([]float64, d)
	plane := side * side
	for c := 0; c < k; c++ {
		mat.Row(row, c, W)
		lo, hi := floats.Min(row), floats.Max(row)
		scale := 0.0
		if hi > lo {
			scale = 255 / (hi - lo)
		}
		x0 := c * (side + gutter)
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				px := y*side + x
				level := func(ch int) uint8 {
					return uint8(math.Round((row[ch*plane+px] - lo) * scale))
				}
				var col color.RGBA
				if channels == 1 {
					g := level(0)
					col = color.RGBA{R: g, G: g, B: g, A: 255}
				} else {
					col = color.RGBA{R: level(0), G: level(1), B: level(2), A: 255}
				}
				img.SetRGBA(x0+x, y, col)
			}
		}
	}
	return img, nil
}

// SaveWeights writes WeightImage as a PNG.
func SaveWeights(path string, W mat.Matrix, side, channels int) error {
	img, err := WeightImage(W, side, channels)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
