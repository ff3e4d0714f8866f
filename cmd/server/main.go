package main

import (
	"fmt"
	"log"

	"github.com/amosjerbi/facemoji/internal/api"
	"github.com/amosjerbi/facemoji/internal/config"
	"github.com/amosjerbi/facemoji/internal/editor"
	"github.com/amosjerbi/facemoji/internal/services/face"
	"github.com/amosjerbi/facemoji/internal/services/overlay"
	"github.com/amosjerbi/facemoji/internal/storage"
)

func main() {
	cfg := config.Load()

	backend, err := buildBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s detector: %v", cfg.Detector, err)
	}
	if closer, ok := backend.(interface{ Close() }); ok {
		defer closer.Close()
	}
	log.Printf("%s face detection initialized", cfg.Detector)

	renderer, err := overlay.NewRenderer(cfg.FontPath, cfg.StickerDir)
	if err != nil {
		log.Fatalf("Failed to initialize renderer: %v", err)
	}

	sessions := editor.NewManager(
		face.NewAdapter(backend),
		renderer,
		storage.NewGallery(cfg.GalleryDir),
		storage.NewShareCache(cfg.ShareDir),
		0, // default idle TTL
	)

	server := api.NewServer(api.Deps{
		Sessions: sessions,
		Slots:    storage.NewSlotStore(cfg.SlotsPath),
	})

	log.Println("Server running on http://localhost:" + cfg.Port)
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// buildBackend constructs the configured detection backend.
func buildBackend(cfg *config.Config) (face.Backend, error) {
	switch cfg.Detector {
	case "pigo":
		return face.NewPigoDetector(cfg.CascadePath, cfg.PuplocPath)
	case "yunet":
		return face.NewYuNetDetector(cfg.YuNetModelPath, cfg.OnnxLibraryPath)
	case "remote":
		return face.NewRemoteDetector(cfg.RemoteSocketPath, 0), nil
	default:
		return nil, fmt.Errorf("unknown detector %q (want pigo, yunet, or remote)", cfg.Detector)
	}
}
