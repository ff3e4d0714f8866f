package storage

import (
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// jpegQuality matches what the gallery writes for edited photos.
const jpegQuality = 95

// Gallery writes finished images into a user-visible album directory.
type Gallery struct {
	dir string
}

// NewGallery creates a gallery rooted at dir (the dedicated sub-album,
// e.g. "<pictures>/Facemoji").
func NewGallery(dir string) *Gallery {
	return &Gallery{dir: dir}
}

// Save encodes the image as JPEG into the album and returns the written
// path.
func (g *Gallery) Save(img image.Image) (string, error) {
	if err := os.MkdirAll(g.dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create gallery directory: %w", err)
	}

	name := fmt.Sprintf("facemoji_%s.jpg", time.Now().Format("20060102_150405"))
	path := filepath.Join(g.dir, name)

	if err := encodeJPEG(path, img); err != nil {
		return "", err
	}

	log.Printf("[GALLERY] Saved %s", path)
	return path, nil
}

// ShareCache writes images into a private temporary area and returns an
// unguessable locator suitable for handing to a share action.
type ShareCache struct {
	dir string
}

func NewShareCache(dir string) *ShareCache {
	return &ShareCache{dir: dir}
}

// Save encodes the image under a random name and returns its path.
func (c *ShareCache) Save(img image.Image) (string, error) {
	if err := os.MkdirAll(c.dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create share directory: %w", err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("share_%s.jpg", uuid.NewString()))
	if err := encodeJPEG(path, img); err != nil {
		return "", err
	}

	log.Printf("[SHARE] Exported %s", path)
	return path, nil
}

func encodeJPEG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
