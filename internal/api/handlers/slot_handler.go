package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/amosjerbi/facemoji/internal/storage"
)

func RegisterSlotRoutes(app *fiber.App, slots *storage.SlotStore) {
	h := &slotHandler{slots: slots}

	app.Get("/slots", h.list)
	app.Put("/slots/:index", h.assign)
}

type slotHandler struct {
	slots *storage.SlotStore
}

func (h *slotHandler) list(c *fiber.Ctx) error {
	slots, err := h.slots.Load()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"slots": slots})
}

func (h *slotHandler) assign(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid slot index"})
	}

	var payload struct {
		Glyph string `json:"glyph"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	if err := h.slots.Assign(index, payload.Glyph); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
