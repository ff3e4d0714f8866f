package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png" // sticker assets
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/amosjerbi/facemoji/internal/services/face"
)

const (
	// Glyph sizing: proportional to the face box with a floor that keeps
	// glyphs legible on tiny detected faces.
	glyphScale   = 1.3
	minGlyphSize = 100.0
)

// Renderer composites glyphs over face boxes. It is safe for concurrent
// use: all state is loaded at construction and never mutated.
type Renderer struct {
	font     *truetype.Font
	color    color.Color
	stickers map[string]image.Image
}

// NewRenderer loads the glyph font (falling back to the bundled Go
// regular face when fontPath is empty) and, when stickerDir is non-empty,
// any codepoint-named PNG sticker assets found there.
func NewRenderer(fontPath, stickerDir string) (*Renderer, error) {
	ttf := goregular.TTF
	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read glyph font: %w", err)
		}
		ttf = data
	}

	fnt, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse glyph font: %w", err)
	}

	r := &Renderer{
		font:  fnt,
		color: color.Black,
	}
	if stickerDir != "" {
		r.stickers, err = loadStickers(stickerDir)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Render produces a fresh image: the source with the glyph composited over
// every face whose index is in covered. The source is never written to and
// the output always has the source's pixel dimensions. An empty covered
// set (or empty glyph) yields an unmodified copy.
//
// Faces are drawn in batch order, so overlapping glyphs occlude earlier
// ones deterministically.
func (r *Renderer) Render(src image.Image, faces []face.DetectedFace, glyph string, covered map[int]bool) *image.RGBA {
	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	if glyph == "" || len(covered) == 0 {
		return canvas
	}

	dc := gg.NewContextForRGBA(canvas)
	sticker := r.stickers[stickerKey(glyph)]

	for i, f := range faces {
		if !covered[i] {
			continue
		}

		size := float64(f.Box.Width()) * glyphScale
		if size < minGlyphSize {
			size = minGlyphSize
		}
		center := f.Box.Center()

		if sticker != nil {
			drawSticker(canvas, sticker, float64(center.X), float64(center.Y), size)
			continue
		}
		r.drawGlyph(dc, glyph, float64(center.X), float64(center.Y), size)
	}

	return canvas
}

// drawGlyph rasterizes the glyph centered on (cx, cy). Horizontal
// centering uses the measured string width; vertical centering offsets
// the baseline by half of ascent-minus-descent so the glyph's optical
// body sits on the box center.
func (r *Renderer) drawGlyph(dc *gg.Context, glyph string, cx, cy, size float64) {
	fontFace := truetype.NewFace(r.font, &truetype.Options{Size: size})
	dc.SetFontFace(fontFace)
	dc.SetColor(r.color)

	width, _ := dc.MeasureString(glyph)
	metrics := fontFace.Metrics()
	ascent := float64(metrics.Ascent) / 64
	descent := float64(metrics.Descent) / 64

	baseline := cy + (ascent-descent)/2
	dc.DrawString(glyph, cx-width/2, baseline)
}

// drawSticker scales the PNG asset to the glyph size and copies it
// centered on (cx, cy).
func drawSticker(canvas *image.RGBA, sticker image.Image, cx, cy, size float64) {
	sized := resize.Resize(uint(size), uint(size), sticker, resize.Lanczos3)
	pt := image.Point{X: int(cx - size/2), Y: int(cy - size/2)}
	xdraw.Copy(canvas, pt, sized, sized.Bounds(), xdraw.Over, nil)
}

// loadStickers reads every PNG in dir, keyed by file name without
// extension (twemoji-style codepoint names, e.g. "1f600.png").
func loadStickers(dir string) (map[string]image.Image, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sticker dir: %w", err)
	}

	stickers := make(map[string]image.Image, len(entries))
	for _, path := range entries {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sticker %s: %w", path, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode sticker %s: %w", path, err)
		}
		key := strings.TrimSuffix(filepath.Base(path), ".png")
		stickers[key] = img
	}

	if len(stickers) > 0 {
		log.Printf("Loaded %d sticker asset(s) from %s", len(stickers), dir)
	}
	return stickers, nil
}

// stickerKey maps a glyph to its codepoint file name, dropping the
// emoji variation selector the way twemoji asset names do.
func stickerKey(glyph string) string {
	var parts []string
	for _, r := range glyph {
		if r == 0xfe0f {
			continue
		}
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return strings.Join(parts, "-")
}
