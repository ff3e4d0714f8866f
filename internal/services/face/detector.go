package face

import (
	"context"
	"fmt"
	"image"
	"log"
)

// Backend is a face-detection capability: it takes a decoded image and
// returns raw detections in source-image pixel coordinates, in the order
// the underlying model produced them.
type Backend interface {
	DetectRaw(ctx context.Context, img image.Image) ([]RawDetection, error)
}

// DetectionError wraps a backend failure. An empty detection result is a
// valid outcome and is never reported as a DetectionError.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("face detection failed: %v", e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// Detector is the boundary the rest of the application sees: one Detect
// call per source image, producing the classified face batch.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]DetectedFace, error)
}

// Adapter turns a Backend into a Detector. It invokes the backend once per
// call, applies the child classifier to each raw detection, and preserves
// the backend's ordering. It does not retry, cache, or batch.
type Adapter struct {
	backend Backend
}

func NewAdapter(backend Backend) *Adapter {
	return &Adapter{backend: backend}
}

func (a *Adapter) Detect(ctx context.Context, img image.Image) ([]DetectedFace, error) {
	raw, err := a.backend.DetectRaw(ctx, img)
	if err != nil {
		return nil, &DetectionError{Err: err}
	}

	faces := make([]DetectedFace, len(raw))
	for i, r := range raw {
		faces[i] = DetectedFace{
			Box:        r.Box,
			Landmarks:  r.Landmarks,
			Confidence: r.Confidence,
			IsChild:    EstimateIsChild(r.Box, r.Landmarks),
		}
	}

	log.Printf("[DETECT] Mapped %d detection(s)", len(faces))
	return faces, nil
}
