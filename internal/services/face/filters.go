package face

import (
	"log"

	"github.com/amosjerbi/facemoji/internal/geometry"
)

const (
	// Size constraints (relative to frame dimensions)
	minFaceWidthRatioFilter = 0.10 // Matches the capability's minimum face size
	maxFaceHeightRatio      = 0.90

	// Aspect ratio constraints
	minFaceAspect = 0.5
	maxFaceAspect = 1.6
)

// plausibleFace rejects decoded boxes no real face produces: degenerate
// geometry, sizes below the capability's configured minimum, or wildly
// off aspect ratios. Used by the model-based backends whose raw output
// heads can emit garbage at low-information anchors.
func plausibleFace(box geometry.Rect, frameWidth, frameHeight int) bool {
	w := box.Width()
	h := box.Height()

	if w <= 0 || h <= 0 {
		return false
	}

	if w < float32(frameWidth)*minFaceWidthRatioFilter {
		log.Printf("[FILTER] Rejected by size: %.1fx%.1f (frame width: %d)", w, h, frameWidth)
		return false
	}
	if h > float32(frameHeight)*maxFaceHeightRatio {
		log.Printf("[FILTER] Rejected by size: %.1fx%.1f (frame height: %d)", w, h, frameHeight)
		return false
	}

	aspect := w / h
	if aspect < minFaceAspect || aspect > maxFaceAspect {
		log.Printf("[FILTER] Rejected by aspect ratio: %.2f", aspect)
		return false
	}

	return true
}
