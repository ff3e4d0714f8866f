package geometry

import (
	"math"
	"testing"
)

func TestMapViewPointToImage(t *testing.T) {
	// 1000x500 image shown in a 400x400 viewport:
	// scale = min(400/1000, 400/500) = 0.4, displayed 400x200, offsetY = 100.
	tests := []struct {
		name         string
		view         Point
		wantX, wantY float32
		wantOK       bool
	}{
		{"center tap", Point{X: 200, Y: 150}, 500, 125, true},
		{"top-left of displayed area", Point{X: 0, Y: 100}, 0, 0, true},
		{"letterbox bar above image", Point{X: 200, Y: 50}, 0, 0, false},
		{"letterbox bar below image", Point{X: 200, Y: 350}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MapViewPointToImage(tt.view, 400, 400, 1000, 500)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.X != tt.wantX || got.Y != tt.wantY {
				t.Errorf("got (%v, %v), want (%v, %v)", got.X, got.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMapViewPointToImage_DegenerateSizes(t *testing.T) {
	if _, ok := MapViewPointToImage(Point{X: 1, Y: 1}, 0, 400, 100, 100); ok {
		t.Error("zero-width viewport should not map")
	}
	if _, ok := MapViewPointToImage(Point{X: 1, Y: 1}, 400, 400, 0, 100); ok {
		t.Error("zero-width image should not map")
	}
}

func TestContains_HalfOpen(t *testing.T) {
	r := Rect{Left: 10, Top: 10, Right: 20, Bottom: 20}

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{X: 10, Y: 10}, true},   // top-left edge included
		{Point{X: 15, Y: 15}, true},   // interior
		{Point{X: 20, Y: 15}, false},  // right edge excluded
		{Point{X: 15, Y: 20}, false},  // bottom edge excluded
		{Point{X: 9.99, Y: 15}, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.p.X, tt.p.Y, got, tt.want)
		}
	}
}

func TestExpand(t *testing.T) {
	r := Rect{Left: 100, Top: 100, Right: 200, Bottom: 250}
	got := r.Expand(0.1) // margin = 0.1 * 100 = 10 on each side

	want := Rect{Left: 90, Top: 90, Right: 210, Bottom: 260}
	if got != want {
		t.Errorf("Expand(0.1) = %+v, want %+v", got, want)
	}
}

func TestDistance(t *testing.T) {
	d := Distance(Point{X: 0, Y: 0}, Point{X: 3, Y: 4})
	if math.Abs(float64(d)-5) > 1e-6 {
		t.Errorf("Distance = %v, want 5", d)
	}
}

func TestRectXYWH(t *testing.T) {
	r := RectXYWH(10, 20, 30, 40)
	if r.Width() != 30 || r.Height() != 40 || r.Left != 10 || r.Bottom != 60 {
		t.Errorf("unexpected rect: %+v", r)
	}
}
