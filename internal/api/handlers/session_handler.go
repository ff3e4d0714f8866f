package handlers

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/amosjerbi/facemoji/internal/editor"
	"github.com/amosjerbi/facemoji/internal/geometry"
	"github.com/amosjerbi/facemoji/internal/services/face"
)

const previewJPEGQuality = 90

func RegisterSessionRoutes(app *fiber.App, sessions *editor.Manager) {
	h := &sessionHandler{sessions: sessions}

	app.Post("/sessions", h.create)
	app.Delete("/sessions/:id", h.delete)
	app.Get("/sessions/:id", h.snapshot)
	app.Post("/sessions/:id/image", h.loadImage)
	app.Get("/sessions/:id/preview", h.preview)
	app.Post("/sessions/:id/glyph", h.selectGlyph)
	app.Post("/sessions/:id/faces/:index/toggle", h.toggleFace)
	app.Post("/sessions/:id/tap", h.tap)
	app.Post("/sessions/:id/save", h.save)
	app.Post("/sessions/:id/share", h.share)
}

type sessionHandler struct {
	sessions *editor.Manager
}

func (h *sessionHandler) session(c *fiber.Ctx) (*editor.Session, error) {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return sess, nil
}

func (h *sessionHandler) create(c *fiber.Ctx) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": h.sessions.Create()})
}

func (h *sessionHandler) delete(c *fiber.Ctx) error {
	h.sessions.Delete(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *sessionHandler) snapshot(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	return c.JSON(sess.Snapshot())
}

// loadImage accepts the photo either as a multipart "image" field or as
// the raw request body, waits for detection to finish, and returns the
// resulting snapshot.
func (h *sessionHandler) loadImage(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	var reader io.Reader
	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable upload"})
		}
		defer f.Close()
		reader = f
	} else if len(c.Body()) > 0 {
		reader = bytes.NewReader(c.Body())
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no image supplied"})
	}

	if err := <-sess.LoadImage(reader); err != nil {
		var detErr *face.DetectionError
		switch {
		case errors.Is(err, editor.ErrDecode):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case errors.As(err, &detErr):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}
	return c.JSON(sess.Snapshot())
}

func (h *sessionHandler) preview(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	var (
		preview image.Image
		perr    error
	)
	if c.QueryBool("annotate") {
		preview, perr = sess.AnnotatedPreview()
	} else {
		preview, perr = sess.Preview()
	}
	if perr != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": perr.Error()})
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, preview, &jpeg.Options{Quality: previewJPEGQuality}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Type("jpeg")
	return c.Send(buf.Bytes())
}

func (h *sessionHandler) selectGlyph(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	var payload struct {
		Glyph string `json:"glyph"`
	}
	if err := c.BodyParser(&payload); err != nil || payload.Glyph == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	sess.SelectGlyph(payload.Glyph)
	return c.JSON(sess.Snapshot())
}

func (h *sessionHandler) toggleFace(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid face index"})
	}

	sess.ToggleFace(index)
	return c.JSON(sess.Snapshot())
}

func (h *sessionHandler) tap(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	var payload struct {
		X          float32 `json:"x"`
		Y          float32 `json:"y"`
		ViewWidth  float32 `json:"viewWidth"`
		ViewHeight float32 `json:"viewHeight"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	index, hit := sess.TapAt(geometry.Point{X: payload.X, Y: payload.Y}, payload.ViewWidth, payload.ViewHeight)
	return c.JSON(fiber.Map{
		"hit":      hit,
		"index":    index,
		"snapshot": sess.Snapshot(),
	})
}

func (h *sessionHandler) save(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	locator, err := sess.Save()
	if err != nil {
		return saveError(c, err)
	}
	return c.JSON(fiber.Map{"locator": locator})
}

func (h *sessionHandler) share(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	locator, err := sess.ExportForShare()
	if err != nil {
		return saveError(c, err)
	}
	return c.JSON(fiber.Map{"locator": locator})
}

func saveError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, editor.ErrNoImage), errors.Is(err, editor.ErrNothingSelected):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
