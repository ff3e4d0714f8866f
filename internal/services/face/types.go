package face

import "github.com/amosjerbi/facemoji/internal/geometry"

// Landmark identifies a named anatomical point returned by a detection
// backend. Backends may return any subset of these.
type Landmark string

const (
	LandmarkLeftEye     Landmark = "leftEye"
	LandmarkRightEye    Landmark = "rightEye"
	LandmarkNoseBase    Landmark = "noseBase"
	LandmarkMouthBottom Landmark = "mouthBottom"
)

// RawDetection is what a detection backend produces for one face, before
// classification: a bounding box in source-image pixel coordinates, the
// landmarks the backend could localize, and the backend's confidence.
type RawDetection struct {
	Box        geometry.Rect
	Landmarks  map[Landmark]geometry.Point
	Confidence float32
}

// DetectedFace is one face found in a source image. A batch of these is
// created when detection completes and replaced wholesale when a new image
// is loaded; individual entries are never mutated.
type DetectedFace struct {
	Box        geometry.Rect               `json:"box"`
	Landmarks  map[Landmark]geometry.Point `json:"landmarks,omitempty"`
	Confidence float32                     `json:"confidence"`

	// IsChild is the child-likelihood estimate, computed once at detection
	// time from the box and landmarks. See EstimateIsChild.
	IsChild bool `json:"isChild"`
}
