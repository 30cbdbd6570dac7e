package report

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	chartDrawWidth  = 1600
	chartDrawHeight = 800
	chartOutWidth   = 800
	chartOutHeight  = 400
)

// RenderPaths draws every price path as a faint polyline over a white
// canvas, so the density of overlapping rounds shows where prices tend to
// go. Paths of different lengths are scaled to the same horizontal span.
func RenderPaths(paths [][]float64, width, height int) *image.NRGBA {
	img := imaging.New(width, height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	lo, hi := pathBounds(paths)
	if hi == lo {
		hi = lo + 1
	}

	line := color.NRGBA{R: 30, G: 80, B: 160, A: 40}
	for _, path := range paths {
		if len(path) < 2 {
			continue
		}
		for i := 1; i < len(path); i++ {
			x0 := (i - 1) * (width - 1) / (len(path) - 1)
			x1 := i * (width - 1) / (len(path) - 1)
			y0 := scaleY(path[i-1], lo, hi, height)
			y1 := scaleY(path[i], lo, hi, height)
			drawSegment(img, x0, y0, x1, y1, line)
		}
	}
	return img
}

// SaveChart renders the paths oversized and Lanczos-downsamples to the
// final resolution for smoother lines, then writes a PNG.
func SaveChart(paths [][]float64, filePath string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no price paths to chart")
	}

	img := RenderPaths(paths, chartDrawWidth, chartDrawHeight)
	resized := imaging.Resize(img, chartOutWidth, chartOutHeight, imaging.Lanczos)

	if err := imaging.Save(resized, filePath); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

func pathBounds(paths [][]float64) (lo, hi float64) {
	first := true
	for _, path := range paths {
		for _, v := range path {
			if first {
				lo, hi = v, v
				first = false
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

func scaleY(v, lo, hi float64, height int) int {
	// Higher prices sit higher on the canvas.
	frac := (v - lo) / (hi - lo)
	return int(float64(height-1) * (1 - frac))
}

// drawSegment blends a line onto the image pixel by pixel. Alpha blending
// makes overlapping paths darker where many rounds agree.
func drawSegment(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	steps := max(abs(x1-x0), abs(y1-y0))
	if steps == 0 {
		blendPixel(img, x0, y0, c)
		return
	}
	for s := 0; s <= steps; s++ {
		x := x0 + (x1-x0)*s/steps
		y := y0 + (y1-y0)*s/steps
		blendPixel(img, x, y, c)
	}
}

func blendPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return
	}
	bg := img.NRGBAAt(x, y)
	a := int(c.A)
	blend := func(fg, bg uint8) uint8 {
		return uint8((int(fg)*a + int(bg)*(255-a)) / 255)
	}
	img.SetNRGBA(x, y, color.NRGBA{
		R: blend(c.R, bg.R),
		G: blend(c.G, bg.G),
		B: blend(c.B, bg.B),
		A: 255,
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
