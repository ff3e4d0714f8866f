package face

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/amosjerbi/facemoji/internal/geometry"
)

const (
	// Pigo detection parameters
	minFaceWidthRatio = 0.10 // Minimum face size as fraction of image width
	pigoShiftFactor   = 0.1  // Shift factor for detection window
	pigoScaleFactor   = 1.1  // Scale factor for image pyramid
	pigoIoUThreshold  = 0.2  // IoU threshold for NMS clustering
	pigoQualityFloor  = 5.0  // Minimum quality score

	// Pupil localization (relative to the face detection row/col/scale)
	pupilPerturbs    = 63
	pupilRowOffset   = 0.085
	pupilColOffset   = 0.185
	pupilScaleFactor = 0.4
)

// PigoDetector is the default detection backend. It runs entirely in
// process (no CGO) and, when a puploc cascade is supplied, localizes the
// eye landmarks used by the child classifier.
type PigoDetector struct {
	classifier *pigo.Pigo
	puploc     *pigo.PuplocCascade
}

// NewPigoDetector unpacks the facefinder cascade and, if puplocPath is
// non-empty, the puploc cascade for eye localization.
func NewPigoDetector(cascadePath, puplocPath string) (*PigoDetector, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	d := &PigoDetector{classifier: classifier}

	if puplocPath != "" {
		plData, err := os.ReadFile(puplocPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read puploc cascade: %w", err)
		}
		d.puploc, err = pigo.NewPuplocCascade().UnpackCascade(plData)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack puploc cascade: %w", err)
		}
	}

	log.Printf("Pigo face detector initialized (minFaceWidthRatio: %.2f, qualityFloor: %.1f)",
		minFaceWidthRatio, pigoQualityFloor)
	return d, nil
}

// DetectRaw runs the cascade over the image and converts clustered
// detections into bounding boxes, attaching eye landmarks when the puploc
// cascade is available.
func (d *PigoDetector) DetectRaw(ctx context.Context, img image.Image) ([]RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()

	imgParams := pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(pigo.ImgToNRGBA(img)),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}
	cParams := pigo.CascadeParams{
		MinSize:     int(float64(cols) * minFaceWidthRatio),
		MaxSize:     maxInt(cols, rows),
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: imgParams,
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, pigoIoUThreshold)

	var results []RawDetection
	for _, det := range dets {
		if det.Q < pigoQualityFloor {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Pigo reports center (Row, Col) plus Scale (the side length).
		size := float32(det.Scale)
		box := geometry.RectXYWH(
			float32(det.Col)-size/2,
			float32(det.Row)-size/2,
			size, size,
		)

		raw := RawDetection{
			Box:        box,
			Confidence: det.Q / 100.0,
		}
		if d.puploc != nil {
			raw.Landmarks = d.localizeEyes(det, imgParams)
		}
		results = append(results, raw)
	}

	log.Printf("[PIGO] Detected %d face(s)", len(results))
	return results, nil
}

// localizeEyes runs the puploc detector for both pupils, seeded from the
// face detection geometry. A pupil the detector cannot localize is simply
// absent from the returned map.
func (d *PigoDetector) localizeEyes(det pigo.Detection, imgParams pigo.ImageParams) map[Landmark]geometry.Point {
	landmarks := make(map[Landmark]geometry.Point, 2)

	left := pigo.Puploc{
		Row:      det.Row - int(pupilRowOffset*float32(det.Scale)),
		Col:      det.Col - int(pupilColOffset*float32(det.Scale)),
		Scale:    float32(det.Scale) * pupilScaleFactor,
		Perturbs: pupilPerturbs,
	}
	if eye := d.puploc.RunDetector(left, imgParams, 0.0, false); eye.Row > 0 && eye.Col > 0 {
		landmarks[LandmarkLeftEye] = geometry.Point{X: float32(eye.Col), Y: float32(eye.Row)}
	}

	right := pigo.Puploc{
		Row:      det.Row - int(pupilRowOffset*float32(det.Scale)),
		Col:      det.Col + int(pupilColOffset*float32(det.Scale)),
		Scale:    float32(det.Scale) * pupilScaleFactor,
		Perturbs: pupilPerturbs,
	}
	if eye := d.puploc.RunDetector(right, imgParams, 0.0, false); eye.Row > 0 && eye.Col > 0 {
		landmarks[LandmarkRightEye] = geometry.Point{X: float32(eye.Col), Y: float32(eye.Row)}
	}

	if len(landmarks) == 0 {
		return nil
	}
	return landmarks
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
