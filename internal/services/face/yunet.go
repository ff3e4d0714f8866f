package face

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"sort"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/amosjerbi/facemoji/internal/geometry"
)

const (
	yunetInputWidth  = 640
	yunetInputHeight = 640
	yunetConfidence  = 0.7 // Balanced threshold: not too strict, not too loose
	yunetIoU         = 0.7
	yunetStride      = 8
	yunetGridSize    = 80 // 640 / 8
	yunetAnchorCount = yunetGridSize * yunetGridSize
)

// yunetAnchor is a detection anchor center in model-input coordinates.
type yunetAnchor struct {
	CX float32
	CY float32
}

// yunetCandidate is a decoded detection still in model-input coordinates.
type yunetCandidate struct {
	box        geometry.Rect
	points     [5]geometry.Point
	confidence float32
}

// YuNetDetector runs the YuNet ONNX face detector. Unlike the pigo
// backend it produces the full five-point landmark set (eyes, nose tip,
// mouth corners), so the child classifier gets all of its inputs.
type YuNetDetector struct {
	mu sync.Mutex // the session's bound tensors are single-flight

	session     *ort.AdvancedSession
	inputTensor *ort.Tensor[float32]
	clsTensor   *ort.Tensor[float32]
	bboxTensor  *ort.Tensor[float32]
	kpsTensor   *ort.Tensor[float32]
	anchors     []yunetAnchor
}

// NewYuNetDetector initializes ONNX Runtime and builds a session bound to
// the stride-8 classification, box, and keypoint output heads.
func NewYuNetDetector(modelPath, libraryPath string) (*YuNetDetector, error) {
	ort.SetSharedLibraryPath(libraryPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	// Input: 1x3x640x640, NCHW
	inputTensor, err := ort.NewTensor(
		ort.NewShape(1, 3, yunetInputHeight, yunetInputWidth),
		make([]float32, 1*3*yunetInputHeight*yunetInputWidth),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	clsTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, yunetAnchorCount, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to create cls tensor: %w", err)
	}
	bboxTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, yunetAnchorCount, 4))
	if err != nil {
		return nil, fmt.Errorf("failed to create bbox tensor: %w", err)
	}
	kpsTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, yunetAnchorCount, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to create kps tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"cls_8", "bbox_8", "kps_8"},
		[]ort.Value{inputTensor},
		[]ort.Value{clsTensor, bboxTensor, kpsTensor},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	d := &YuNetDetector{
		session:     session,
		inputTensor: inputTensor,
		clsTensor:   clsTensor,
		bboxTensor:  bboxTensor,
		kpsTensor:   kpsTensor,
		anchors:     generateAnchors(),
	}
	log.Printf("YuNet detector initialized (%d anchors)", len(d.anchors))
	return d, nil
}

// generateAnchors creates anchor centers for the stride-8 feature map.
func generateAnchors() []yunetAnchor {
	anchors := make([]yunetAnchor, 0, yunetAnchorCount)
	for y := 0; y < yunetGridSize; y++ {
		for x := 0; x < yunetGridSize; x++ {
			anchors = append(anchors, yunetAnchor{
				CX: (float32(x) + 0.5) * float32(yunetStride),
				CY: (float32(y) + 0.5) * float32(yunetStride),
			})
		}
	}
	return anchors
}

// Close releases the ONNX Runtime resources.
func (d *YuNetDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		d.session.Destroy()
	}
	d.inputTensor.Destroy()
	d.clsTensor.Destroy()
	d.bboxTensor.Destroy()
	d.kpsTensor.Destroy()
	ort.DestroyEnvironment()
}

// DetectRaw preprocesses the image into the bound input tensor, runs
// inference, and decodes boxes and landmarks back into source-image
// pixel coordinates.
func (d *YuNetDetector) DetectRaw(ctx context.Context, img image.Image) ([]RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.preprocess(img)

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}

	candidates := d.decode()
	candidates = applyNMS(candidates, yunetIoU)

	// The model works in 640x640 space; map back to source pixels.
	bounds := img.Bounds()
	scaleX := float32(bounds.Dx()) / float32(yunetInputWidth)
	scaleY := float32(bounds.Dy()) / float32(yunetInputHeight)

	results := make([]RawDetection, 0, len(candidates))
	for _, c := range candidates {
		box := geometry.Rect{
			Left:   c.box.Left * scaleX,
			Top:    c.box.Top * scaleY,
			Right:  c.box.Right * scaleX,
			Bottom: c.box.Bottom * scaleY,
		}
		if !plausibleFace(box, bounds.Dx(), bounds.Dy()) {
			continue
		}
		results = append(results, RawDetection{
			Box:        box,
			Landmarks:  mapFivePointLandmarks(c.points, scaleX, scaleY),
			Confidence: c.confidence,
		})
	}

	log.Printf("[YUNET] Detected %d face(s)", len(results))
	return results, nil
}

// preprocess squashes the image to 640x640 BGR, NCHW, 0-255 floats.
func (d *YuNetDetector) preprocess(img image.Image) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	data := d.inputTensor.GetData()
	const plane = yunetInputHeight * yunetInputWidth

	for y := 0; y < yunetInputHeight; y++ {
		for x := 0; x < yunetInputWidth; x++ {
			origX := bounds.Min.X + x*width/yunetInputWidth
			origY := bounds.Min.Y + y*height/yunetInputHeight

			r, g, b, _ := img.At(origX, origY).RGBA()

			data[0*plane+y*yunetInputWidth+x] = float32(b >> 8)
			data[1*plane+y*yunetInputWidth+x] = float32(g >> 8)
			data[2*plane+y*yunetInputWidth+x] = float32(r >> 8)
		}
	}
}

// decode turns the raw output heads into candidates above the confidence
// threshold, still in model-input coordinates.
func (d *YuNetDetector) decode() []yunetCandidate {
	clsData := d.clsTensor.GetData()
	bboxData := d.bboxTensor.GetData()
	kpsData := d.kpsTensor.GetData()

	var candidates []yunetCandidate

	for i := 0; i < yunetAnchorCount; i++ {
		confidence := sigmoid(clsData[i])
		if confidence < yunetConfidence {
			continue
		}

		anchor := d.anchors[i]

		// bbox head: [dx, dy, dw, dh] offsets relative to the anchor,
		// in stride units.
		dx := bboxData[i*4+0]
		dy := bboxData[i*4+1]
		dw := bboxData[i*4+2]
		dh := bboxData[i*4+3]

		cx := anchor.CX + dx*float32(yunetStride)
		cy := anchor.CY + dy*float32(yunetStride)
		w := abs32(dw * float32(yunetStride))
		h := abs32(dh * float32(yunetStride))

		box := geometry.RectXYWH(cx-w/2, cy-h/2, w, h)
		if box.Left < 0 || box.Top < 0 ||
			box.Right > float32(yunetInputWidth) || box.Bottom > float32(yunetInputHeight) {
			continue
		}

		// kps head: five (x, y) offsets relative to the anchor.
		var points [5]geometry.Point
		for j := 0; j < 5; j++ {
			points[j] = geometry.Point{
				X: anchor.CX + kpsData[i*10+j*2]*float32(yunetStride),
				Y: anchor.CY + kpsData[i*10+j*2+1]*float32(yunetStride),
			}
		}

		candidates = append(candidates, yunetCandidate{
			box:        box,
			points:     points,
			confidence: confidence,
		})
	}

	return candidates
}

// mapFivePointLandmarks converts YuNet's five keypoints (right eye, left
// eye, nose tip, right mouth corner, left mouth corner) into named
// landmarks in source-image coordinates. The mouth-bottom landmark is the
// midpoint of the two mouth corners.
func mapFivePointLandmarks(points [5]geometry.Point, scaleX, scaleY float32) map[Landmark]geometry.Point {
	scaled := func(p geometry.Point) geometry.Point {
		return geometry.Point{X: p.X * scaleX, Y: p.Y * scaleY}
	}
	return map[Landmark]geometry.Point{
		LandmarkRightEye: scaled(points[0]),
		LandmarkLeftEye:  scaled(points[1]),
		LandmarkNoseBase: scaled(points[2]),
		LandmarkMouthBottom: scaled(geometry.Point{
			X: (points[3].X + points[4].X) / 2,
			Y: (points[3].Y + points[4].Y) / 2,
		}),
	}
}

// sigmoid applies sigmoid activation.
func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + float32(math.Exp(float64(-x))))
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// applyNMS applies Non-Maximum Suppression to filter overlapping candidates.
func applyNMS(candidates []yunetCandidate, iouThreshold float32) []yunetCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].confidence > candidates[j].confidence
	})

	var keep []yunetCandidate
	used := make([]bool, len(candidates))

	for i := 0; i < len(candidates); i++ {
		if used[i] {
			continue
		}
		keep = append(keep, candidates[i])
		used[i] = true

		for j := i + 1; j < len(candidates); j++ {
			if used[j] {
				continue
			}
			if boxIoU(candidates[i].box, candidates[j].box) > iouThreshold {
				used[j] = true
			}
		}
	}

	return keep
}

// boxIoU calculates Intersection over Union between two boxes.
func boxIoU(a, b geometry.Rect) float32 {
	x1 := max32(a.Left, b.Left)
	y1 := max32(a.Top, b.Top)
	x2 := min32(a.Right, b.Right)
	y2 := min32(a.Bottom, b.Bottom)

	if x2 < x1 || y2 < y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Width()*a.Height() + b.Width()*b.Height() - intersection
	if union == 0 {
		return 0
	}
	return intersection / union
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
