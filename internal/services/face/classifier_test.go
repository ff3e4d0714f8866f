package face

import (
	"testing"

	"github.com/amosjerbi/facemoji/internal/geometry"
)

func TestEstimateIsChild_NoLandmarks(t *testing.T) {
	// 100x140 box: aspect 0.714 fails the 0.75 threshold, size ratio
	// 14000/100000 = 0.14 scores +1. Total 1 < 2 -> not a child.
	box := geometry.RectXYWH(0, 0, 100, 140)
	if EstimateIsChild(box, nil) {
		t.Error("100x140 box with no landmarks should not classify as child")
	}
}

func TestEstimateIsChild_AllEyeRulesFire(t *testing.T) {
	// 150x150 box: aspect 1.0 > 0.75 (+2), eyes at y=75 give relative eye
	// line 0.5 > 0.42 (+2), eye distance 52.5/150 = 0.35 > 0.32 (+1),
	// forehead rule skipped (no nose/mouth), size 22500/100000 = 0.225 (+1).
	// Total 6 -> child.
	box := geometry.RectXYWH(0, 0, 150, 150)
	landmarks := map[Landmark]geometry.Point{
		LandmarkLeftEye:  {X: 48.75, Y: 75},
		LandmarkRightEye: {X: 101.25, Y: 75},
	}
	if !EstimateIsChild(box, landmarks) {
		t.Error("150x150 box with low, wide-set eyes should classify as child")
	}
}

func TestEstimateIsChild_ForeheadRuleNeedsAllLandmarks(t *testing.T) {
	// Narrow tall box so only the forehead rule can push the score over
	// the threshold: aspect 100/200 = 0.5 (no), size 20000/100000 = 0.2 (+1),
	// eye line 80/200 = 0.4 (no), eye distance 30/100 = 0.3 (no).
	// Forehead: 80 / 120 = 0.667 > 0.65 (+2) -> total 3 -> child, but only
	// when nose and mouth are both present.
	box := geometry.RectXYWH(0, 0, 100, 200)
	eyesOnly := map[Landmark]geometry.Point{
		LandmarkLeftEye:  {X: 35, Y: 80},
		LandmarkRightEye: {X: 65, Y: 80},
	}
	if EstimateIsChild(box, eyesOnly) {
		t.Error("forehead rule must not fire without nose and mouth landmarks")
	}

	full := map[Landmark]geometry.Point{
		LandmarkLeftEye:     {X: 35, Y: 80},
		LandmarkRightEye:    {X: 65, Y: 80},
		LandmarkNoseBase:    {X: 50, Y: 130},
		LandmarkMouthBottom: {X: 50, Y: 170},
	}
	if !EstimateIsChild(box, full) {
		t.Error("forehead rule should fire with the full landmark set")
	}
}

func TestEstimateIsChild_DegenerateBox(t *testing.T) {
	if EstimateIsChild(geometry.RectXYWH(0, 0, 0, 100), nil) {
		t.Error("zero-width box must be non-child")
	}
	if EstimateIsChild(geometry.RectXYWH(0, 0, 100, 0), nil) {
		t.Error("zero-height box must be non-child")
	}
}

func TestEstimateIsChild_Deterministic(t *testing.T) {
	box := geometry.RectXYWH(10, 10, 150, 150)
	landmarks := map[Landmark]geometry.Point{
		LandmarkLeftEye:  {X: 55, Y: 88},
		LandmarkRightEye: {X: 115, Y: 88},
	}
	first := EstimateIsChild(box, landmarks)
	for i := 0; i < 10; i++ {
		if EstimateIsChild(box, landmarks) != first {
			t.Fatal("EstimateIsChild is not deterministic for identical inputs")
		}
	}
}

func TestEstimateIsChild_LargeAdultFace(t *testing.T) {
	// Big oblong face, eyes high: aspect 300/420 = 0.714 (no), size
	// 126000/100000 = 1.26 (no), eye line 140/420 = 0.33 (no),
	// eye distance 90/300 = 0.3 (no). Score 0 -> adult.
	box := geometry.RectXYWH(0, 0, 300, 420)
	landmarks := map[Landmark]geometry.Point{
		LandmarkLeftEye:  {X: 105, Y: 140},
		LandmarkRightEye: {X: 195, Y: 140},
	}
	if EstimateIsChild(box, landmarks) {
		t.Error("large oblong face with high eyes should not classify as child")
	}
}
