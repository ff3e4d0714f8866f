package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/amosjerbi/facemoji/internal/api"
	"github.com/amosjerbi/facemoji/internal/editor"
	"github.com/amosjerbi/facemoji/internal/geometry"
	"github.com/amosjerbi/facemoji/internal/services/face"
	"github.com/amosjerbi/facemoji/internal/services/overlay"
	"github.com/amosjerbi/facemoji/internal/storage"
)

type stubDetector struct {
	faces []face.DetectedFace
}

func (d *stubDetector) Detect(ctx context.Context, img image.Image) ([]face.DetectedFace, error) {
	return d.faces, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	renderer, err := overlay.NewRenderer("", "")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	detector := &stubDetector{faces: []face.DetectedFace{
		{Box: geometry.RectXYWH(10, 10, 60, 60)},
		{Box: geometry.RectXYWH(120, 10, 60, 60)},
	}}

	sessions := editor.NewManager(
		detector,
		renderer,
		storage.NewGallery(filepath.Join(dir, "gallery")),
		storage.NewShareCache(filepath.Join(dir, "share")),
		time.Minute,
	)
	return api.NewServer(api.Deps{
		Sessions: sessions,
		Slots:    storage.NewSlotStore(filepath.Join(dir, "slots.json")),
	})
}

func doJSON(t *testing.T, app *fiber.App, method, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}

	var decoded map[string]json.RawMessage
	if resp.Header.Get("Content-Type") != "" && resp.ContentLength != 0 {
		json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func createSessionWithImage(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, body := doJSON(t, app, "POST", "/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var id string
	json.Unmarshal(body["id"], &id)

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 300, 200))); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/sessions/"+id+"/image", &img)
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load image: status %d", resp.StatusCode)
	}
	return id
}

func selection(t *testing.T, app *fiber.App, id string) []int {
	t.Helper()
	_, body := doJSON(t, app, "GET", "/sessions/"+id, nil)
	var sel []int
	json.Unmarshal(body["selection"], &sel)
	return sel
}

func TestSessionFlow(t *testing.T) {
	app := newTestApp(t)
	id := createSessionWithImage(t, app)

	// Saving before any face is covered is rejected.
	resp, _ := doJSON(t, app, "POST", "/sessions/"+id+"/save", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("save with empty selection: status %d, want 409", resp.StatusCode)
	}

	// Choosing a glyph covers all faces.
	resp, _ = doJSON(t, app, "POST", "/sessions/"+id+"/glyph", fiber.Map{"glyph": "\U0001F600"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select glyph: status %d", resp.StatusCode)
	}
	if sel := selection(t, app, id); len(sel) != 2 {
		t.Fatalf("selection after glyph = %v, want both faces", sel)
	}

	// Toggle one face off.
	resp, _ = doJSON(t, app, "POST", "/sessions/"+id+"/faces/1/toggle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle: status %d", resp.StatusCode)
	}
	if sel := selection(t, app, id); len(sel) != 1 || sel[0] != 0 {
		t.Fatalf("selection after toggle = %v, want [0]", sel)
	}

	// Preview is a JPEG.
	req := httptest.NewRequest("GET", "/sessions/"+id+"/preview", nil)
	previewResp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if previewResp.StatusCode != http.StatusOK {
		t.Fatalf("preview: status %d", previewResp.StatusCode)
	}
	if ct := previewResp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("preview content type %q, want image/jpeg", ct)
	}

	// Save and share both return locators.
	resp, body := doJSON(t, app, "POST", "/sessions/"+id+"/save", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save: status %d", resp.StatusCode)
	}
	var locator string
	json.Unmarshal(body["locator"], &locator)
	if locator == "" {
		t.Error("save returned empty locator")
	}

	resp, _ = doJSON(t, app, "POST", "/sessions/"+id+"/share", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share: status %d", resp.StatusCode)
	}
}

func TestTapEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createSessionWithImage(t, app)

	doJSON(t, app, "POST", "/sessions/"+id+"/glyph", fiber.Map{"glyph": "\U0001F600"})

	// 300x200 image fit in a 300x300 view: scale 1, offsetY 50. A tap at
	// view (40, 90) maps to image (40, 40), inside the first face box.
	resp, body := doJSON(t, app, "POST", "/sessions/"+id+"/tap", fiber.Map{
		"x": 40, "y": 90, "viewWidth": 300, "viewHeight": 300,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tap: status %d", resp.StatusCode)
	}
	var hit bool
	json.Unmarshal(body["hit"], &hit)
	if !hit {
		t.Fatal("tap should have hit face 0")
	}
	if sel := selection(t, app, id); len(sel) != 1 || sel[0] != 1 {
		t.Fatalf("selection after tap = %v, want [1]", sel)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	app := newTestApp(t)
	resp, _ := doJSON(t, app, "GET", "/sessions/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d, want 404", resp.StatusCode)
	}
}

func TestSlotRoutes(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, "GET", "/slots", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list slots: status %d", resp.StatusCode)
	}
	var slots []string
	json.Unmarshal(body["slots"], &slots)
	if len(slots) != storage.SlotCount {
		t.Fatalf("got %d slots, want %d", len(slots), storage.SlotCount)
	}

	resp, _ = doJSON(t, app, "PUT", "/slots/3", fiber.Map{"glyph": "\U0001F916"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("assign slot: status %d", resp.StatusCode)
	}

	_, body = doJSON(t, app, "GET", "/slots", nil)
	json.Unmarshal(body["slots"], &slots)
	if slots[3] != "\U0001F916" {
		t.Errorf("slot 3 = %q, want robot face", slots[3])
	}

	resp, _ = doJSON(t, app, "PUT", "/slots/9", fiber.Map{"glyph": "x"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out-of-range slot: status %d, want 400", resp.StatusCode)
	}
}
