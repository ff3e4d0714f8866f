package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/amosjerbi/facemoji/internal/api/handlers"
	"github.com/amosjerbi/facemoji/internal/editor"
	"github.com/amosjerbi/facemoji/internal/storage"
)

// Deps carries the wired application services into the HTTP layer.
type Deps struct {
	Sessions *editor.Manager
	Slots    *storage.SlotStore
}

func NewServer(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 << 20, // photos arrive as uploads
	})

	handlers.RegisterHealthRoutes(app)
	handlers.RegisterSessionRoutes(app, deps.Sessions)
	handlers.RegisterSlotRoutes(app, deps.Slots)

	return app
}
