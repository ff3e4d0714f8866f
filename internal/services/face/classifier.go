package face

import (
	"github.com/amosjerbi/facemoji/internal/geometry"
)

const (
	// Aspect ratio: rounder faces score as more child-like
	childAspectThreshold = 0.75
	childAspectScore     = 2

	// Eyes sitting lower in the face (relative to the top of the box)
	childEyeLineThreshold = 0.42
	childEyeLineScore     = 2

	// Wide-set eyes relative to face width
	childEyeDistanceThreshold = 0.32
	childEyeDistanceScore     = 1

	// Proportionally tall forehead
	childForeheadThreshold = 0.65
	childForeheadScore     = 2

	// Small absolute face size (area in pixels / 100000)
	childSizeDivisor   = 100000
	childSizeThreshold = 0.8
	childSizeScore     = 1

	// Total score at or above this counts as a child face
	childScoreThreshold = 2
)

// EstimateIsChild scores a face's geometry against a hand-tuned set of
// child-likeness rules and reports whether the total crosses the threshold.
// Rules whose landmarks are missing are skipped; they neither contribute
// nor error. The thresholds and weights are a frozen behavioral contract.
func EstimateIsChild(box geometry.Rect, landmarks map[Landmark]geometry.Point) bool {
	width := box.Width()
	height := box.Height()

	// A degenerate box has no usable geometry.
	if width <= 0 || height <= 0 {
		return false
	}

	score := 0

	// 1. Aspect ratio
	if width/height > childAspectThreshold {
		score += childAspectScore
	}

	leftEye, hasLeft := landmarks[LandmarkLeftEye]
	rightEye, hasRight := landmarks[LandmarkRightEye]

	var eyeCenterY float32
	hasEyes := hasLeft && hasRight
	if hasEyes {
		eyeCenterY = (leftEye.Y + rightEye.Y) / 2

		// 2. Eye vertical position
		if (eyeCenterY-box.Top)/height > childEyeLineThreshold {
			score += childEyeLineScore
		}

		// 3. Inter-eye distance
		if geometry.Distance(leftEye, rightEye)/width > childEyeDistanceThreshold {
			score += childEyeDistanceScore
		}
	}

	// 4. Forehead ratio, eyes plus nose and mouth required
	_, hasNose := landmarks[LandmarkNoseBase]
	_, hasMouth := landmarks[LandmarkMouthBottom]
	if hasEyes && hasNose && hasMouth {
		foreheadHeight := eyeCenterY - box.Top
		lowerFaceHeight := box.Bottom - eyeCenterY
		if lowerFaceHeight > 0 && foreheadHeight/lowerFaceHeight > childForeheadThreshold {
			score += childForeheadScore
		}
	}

	// 5. Size: small faces in frame lean child-like
	if (width*height)/childSizeDivisor < childSizeThreshold {
		score += childSizeScore
	}

	return score >= childScoreThreshold
}
