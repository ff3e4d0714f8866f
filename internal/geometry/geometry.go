package geometry

import (
	"math"
)

// Point is a 2D point in pixel coordinates.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Rect is an axis-aligned rectangle in pixel coordinates.
// Left < Right and Top < Bottom for any well-formed rectangle.
type Rect struct {
	Left   float32 `json:"left"`
	Top    float32 `json:"top"`
	Right  float32 `json:"right"`
	Bottom float32 `json:"bottom"`
}

// RectXYWH builds a Rect from a top-left corner plus width and height,
// the format detection backends work in.
func RectXYWH(x, y, w, h float32) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

func (r Rect) Width() float32  { return r.Right - r.Left }
func (r Rect) Height() float32 { return r.Bottom - r.Top }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{
		X: (r.Left + r.Right) / 2,
		Y: (r.Top + r.Bottom) / 2,
	}
}

// Contains reports whether p falls inside r. The test is half-open:
// Left <= x < Right and Top <= y < Bottom, so a point on the right or
// bottom edge belongs to the neighboring rectangle, never to both.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Expand grows the rectangle symmetrically by fraction*Width() on each
// side. Used to build a tappable hit-margin around a tight face box.
func (r Rect) Expand(fraction float32) Rect {
	margin := fraction * r.Width()
	return Rect{
		Left:   r.Left - margin,
		Top:    r.Top - margin,
		Right:  r.Right + margin,
		Bottom: r.Bottom + margin,
	}
}

// Distance calculates Euclidean distance between two points.
func Distance(p1, p2 Point) float32 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// MapViewPointToImage maps a point in viewport coordinates to image pixel
// coordinates, assuming the image is scaled uniformly to fit the viewport
// (aspect ratio preserved, centered, letter/pillar-boxed).
//
// Returns ok=false when the inverse-mapped point lands outside the image,
// i.e. the tap hit the letterbox bars. Callers must treat that as "no hit".
func MapViewPointToImage(view Point, viewW, viewH, imageW, imageH float32) (Point, bool) {
	if viewW <= 0 || viewH <= 0 || imageW <= 0 || imageH <= 0 {
		return Point{}, false
	}

	scale := viewW / imageW
	if s := viewH / imageH; s < scale {
		scale = s
	}

	offsetX := (viewW - imageW*scale) / 2
	offsetY := (viewH - imageH*scale) / 2

	p := Point{
		X: (view.X - offsetX) / scale,
		Y: (view.Y - offsetY) / scale,
	}

	if p.X < 0 || p.X >= imageW || p.Y < 0 || p.Y >= imageH {
		return Point{}, false
	}
	return p, true
}
