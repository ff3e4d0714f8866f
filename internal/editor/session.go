package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/amosjerbi/facemoji/internal/geometry"
	"github.com/amosjerbi/facemoji/internal/services/face"
	"github.com/amosjerbi/facemoji/internal/services/overlay"
)

// hitMarginFraction grows each face box before hit-testing so taps just
// outside a tight detection box still toggle the face.
const hitMarginFraction = 0.1

var (
	ErrNoImage         = errors.New("no image loaded")
	ErrNothingSelected = errors.New("no faces selected")
	ErrDecode          = errors.New("could not decode image")
)

// Saver persists a finished image and returns its locator.
type Saver interface {
	Save(img image.Image) (string, error)
}

// Snapshot is an immutable view of a session's state. Observers only ever
// see whole snapshots; partial updates are invisible.
type Snapshot struct {
	Loading     bool                `json:"loading"`
	Message     string              `json:"message"`
	Glyph       string              `json:"glyph,omitempty"`
	Faces       []face.DetectedFace `json:"faces"`
	Selection   []int               `json:"selection"`
	HasImage    bool                `json:"hasImage"`
	ImageWidth  int                 `json:"imageWidth"`
	ImageHeight int                 `json:"imageHeight"`
}

// Session owns one image-editing flow: the source image, its detected
// face batch, the covered-face selection, and the chosen glyph. All
// mutations go through its methods and are serialized by a single mutex;
// the preview is always recomputed from scratch, never patched.
type Session struct {
	mu sync.Mutex

	detector face.Detector
	renderer *overlay.Renderer
	gallery  Saver
	share    Saver

	src       image.Image
	preview   image.Image
	faces     []face.DetectedFace
	selection map[int]bool
	glyph     string

	loading bool
	message string

	// generation stamps each LoadImage; results from superseded loads
	// are dropped on arrival.
	generation uint64
	cancel     context.CancelFunc
}

func NewSession(detector face.Detector, renderer *overlay.Renderer, gallery, share Saver) *Session {
	return &Session{
		detector:  detector,
		renderer:  renderer,
		gallery:   gallery,
		share:     share,
		selection: make(map[int]bool),
	}
}

// LoadImage decodes the image and runs face detection asynchronously.
// A newer LoadImage supersedes an in-flight one: the older load's context
// is cancelled and its result, should it still arrive, is discarded. On
// any failure the prior image state is left untouched and only the
// message changes.
//
// The returned channel yields the load's final error (nil on success,
// including the stale-superseded case) and is buffered, so callers may
// ignore it.
func (s *Session) LoadImage(r io.Reader) <-chan error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loading = true
	s.message = ""
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer cancel()

		img, err := imaging.Decode(r, imaging.AutoOrientation(true))
		if err != nil {
			s.failLoad(gen, "Could not read the selected image.")
			done <- fmt.Errorf("%w: %v", ErrDecode, err)
			return
		}

		faces, err := s.detector.Detect(ctx, img)
		if err != nil {
			s.failLoad(gen, "Face detection failed. Try another photo.")
			done <- err
			return
		}

		s.applyLoad(gen, img, faces)
		done <- nil
	}()
	return done
}

// applyLoad installs a completed detection batch, unless a newer load has
// superseded this one in the meantime.
func (s *Session) applyLoad(gen uint64, img image.Image, faces []face.DetectedFace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		log.Printf("[SESSION] Dropping stale detection result (gen %d, current %d)", gen, s.generation)
		return
	}

	s.src = img
	s.preview = img
	s.faces = faces
	s.selection = make(map[int]bool)
	s.glyph = ""
	s.loading = false

	if len(faces) == 0 {
		s.message = "No faces found in this photo."
	} else {
		s.message = fmt.Sprintf("Found %d face(s). Pick an emoji, then tap a face to toggle its cover.", len(faces))
	}
}

// failLoad clears the loading flag and records the failure message,
// leaving any prior image state intact.
func (s *Session) failLoad(gen uint64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.loading = false
	s.message = message
}

// SelectGlyph sets the cover glyph and resets the selection to every
// detected face. A no-op when no faces were detected.
func (s *Session) SelectGlyph(glyph string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.faces) == 0 || glyph == "" {
		return
	}

	s.glyph = glyph
	s.selection = make(map[int]bool, len(s.faces))
	for i := range s.faces {
		s.selection[i] = true
	}
	s.recomputePreview()
}

// ToggleFace flips whether the face at index is covered. A no-op when no
// glyph is selected or the index is out of range.
func (s *Session) ToggleFace(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggleFace(index)
}

func (s *Session) toggleFace(index int) {
	if s.glyph == "" || index < 0 || index >= len(s.faces) {
		return
	}
	if s.selection[index] {
		delete(s.selection, index)
	} else {
		s.selection[index] = true
	}
	s.recomputePreview()
}

// TapAt maps a tap in viewport coordinates onto the image (aspect-fit
// inverse transform) and toggles the first face whose expanded box
// contains the point. Returns the toggled index, or ok=false when the tap
// hit no face or the letterbox area.
func (s *Session) TapAt(view geometry.Point, viewW, viewH float32) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		return 0, false
	}

	bounds := s.src.Bounds()
	p, ok := geometry.MapViewPointToImage(view, viewW, viewH,
		float32(bounds.Dx()), float32(bounds.Dy()))
	if !ok {
		return 0, false
	}

	for i, f := range s.faces {
		if f.Box.Expand(hitMarginFraction).Contains(p) {
			s.toggleFace(i)
			return i, true
		}
	}
	return 0, false
}

// Save hands the current preview to the gallery. Nothing is written when
// the selection is empty.
func (s *Session) Save() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		return "", ErrNoImage
	}
	if len(s.selection) == 0 {
		return "", ErrNothingSelected
	}
	return s.gallery.Save(s.preview)
}

// ExportForShare writes the current preview to the share location and
// returns its locator.
func (s *Session) ExportForShare() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		return "", ErrNoImage
	}
	return s.share.Save(s.preview)
}

// Preview returns the current preview image (the source itself until a
// glyph is selected).
func (s *Session) Preview() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.preview == nil {
		return nil, ErrNoImage
	}
	return s.preview, nil
}

// AnnotatedPreview returns the preview with face boxes and landmarks
// drawn over it.
func (s *Session) AnnotatedPreview() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.preview == nil {
		return nil, ErrNoImage
	}
	return overlay.Annotate(s.preview, s.faces, s.selection), nil
}

// Snapshot returns an immutable copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Loading:   s.loading,
		Message:   s.message,
		Glyph:     s.glyph,
		Faces:     append([]face.DetectedFace(nil), s.faces...),
		Selection: sortedIndices(s.selection),
		HasImage:  s.src != nil,
	}
	if s.src != nil {
		snap.ImageWidth = s.src.Bounds().Dx()
		snap.ImageHeight = s.src.Bounds().Dy()
	}
	return snap
}

// recomputePreview rebuilds the preview from scratch. The preview is a
// pure function of (source, faces, glyph, selection); with no glyph it is
// the source itself.
func (s *Session) recomputePreview() {
	if s.glyph == "" {
		s.preview = s.src
		return
	}
	s.preview = s.renderer.Render(s.src, s.faces, s.glyph, s.selection)
}

func sortedIndices(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	// Small sets: insertion sort is plenty.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
