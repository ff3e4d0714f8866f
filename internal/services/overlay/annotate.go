package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/amosjerbi/facemoji/internal/services/face"
)

var (
	coveredColor   = color.RGBA{0, 255, 0, 255}   // green: face will be covered
	uncoveredColor = color.RGBA{255, 255, 0, 255} // yellow: detected but toggled off
	childColor     = color.RGBA{0, 255, 255, 255} // cyan: child estimate
)

// Annotate returns a fresh copy of src with every detected face outlined
// and its landmarks dotted. Covered faces are green, uncovered yellow,
// child-estimated faces cyan. Debugging aid behind the preview endpoint's
// annotate flag.
func Annotate(src image.Image, faces []face.DetectedFace, covered map[int]bool) *image.RGBA {
	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	for i, f := range faces {
		col := uncoveredColor
		thickness := 2
		if covered[i] {
			col = coveredColor
			thickness = 3
		}
		if f.IsChild {
			col = childColor
		}

		drawRect(canvas,
			int(f.Box.Left), int(f.Box.Top),
			int(f.Box.Right), int(f.Box.Bottom),
			col, thickness)
		drawLandmarks(canvas, f, col)
	}

	return canvas
}

// drawRect draws a rectangle outline with the given thickness.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	maxX := img.Bounds().Dx()
	maxY := img.Bounds().Dy()

	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			if x < 0 || x >= maxX {
				continue
			}
			if y1+t >= 0 && y1+t < maxY {
				img.Set(x, y1+t, col)
			}
			if y2-t >= 0 && y2-t < maxY {
				img.Set(x, y2-t, col)
			}
		}
		for y := y1; y <= y2; y++ {
			if y < 0 || y >= maxY {
				continue
			}
			if x1+t >= 0 && x1+t < maxX {
				img.Set(x1+t, y, col)
			}
			if x2-t >= 0 && x2-t < maxX {
				img.Set(x2-t, y, col)
			}
		}
	}
}

// drawLandmarks draws a small filled circle for each landmark point.
func drawLandmarks(img *image.RGBA, f face.DetectedFace, col color.RGBA) {
	const radius = 3
	for _, p := range f.Landmarks {
		x := int(p.X)
		y := int(p.Y)
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx*dx+dy*dy > radius*radius {
					continue
				}
				px := x + dx
				py := y + dy
				if px >= 0 && px < img.Bounds().Dx() && py >= 0 && py < img.Bounds().Dy() {
					img.Set(px, py, col)
				}
			}
		}
	}
}
