package models

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/quickmark/qrvault/internal/common"
)

// ThumbnailSize is the fixed pixel size search-index thumbnails are
// rendered at.
const ThumbnailSize = 120

// RenderThumbnail rasterizes a design to a square PNG of sizePx pixels.
// Modules are scaled to fill the image; the remainder after integer
// division becomes a background border.
func RenderThumbnail(d Design, sizePx int) ([]byte, error) {
	if sizePx <= 0 {
		return nil, fmt.Errorf("thumbnail size %d: %w", sizePx, common.ErrMalformedPayload)
	}
	if d.Size <= 0 || len(d.Modules) != d.Size*d.Size {
		return nil, fmt.Errorf("design matrix %d modules for size %d: %w",
			len(d.Modules), d.Size, common.ErrMalformedPayload)
	}

	fg := parseHexColor(d.Foreground, color.NRGBA{A: 0xff})
	bg := parseHexColor(d.Background, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})

	scale := sizePx / d.Size
	if scale < 1 {
		scale = 1
	}
	offset := (sizePx - scale*d.Size) / 2

	img := image.NewNRGBA(image.Rect(0, 0, sizePx, sizePx))
	for y := 0; y < sizePx; y++ {
		for x := 0; x < sizePx; x++ {
			img.SetNRGBA(x, y, bg)
		}
	}
	for row := 0; row < d.Size; row++ {
		for col := 0; col < d.Size; col++ {
			if !d.Modules[row*d.Size+col] {
				continue
			}
			for y := 0; y < scale; y++ {
				for x := 0; x < scale; x++ {
					px, py := offset+col*scale+x, offset+row*scale+y
					if px < sizePx && py < sizePx {
						img.SetNRGBA(px, py, fg)
					}
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// parseHexColor parses "#rrggbb"; anything else yields the fallback.
func parseHexColor(s string, fallback color.NRGBA) color.NRGBA {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
