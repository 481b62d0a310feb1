package texture

import (
	"fmt"
	"image/color"

	gcolor "github.com/gookit/color"
	"github.com/go-gl/mathgl/mgl32"
)

// ParseHex parses "#rrggbb", "rrggbb" or "#rgb" into an opaque color.
func ParseHex(hex string) (color.RGBA, error) {
	rgb := gcolor.HexToRgb(hex)
	if len(rgb) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", hex)
	}
	return color.RGBA{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2]), A: 255}, nil
}

// ParseHexOr parses hex, returning fallback when it is invalid.
func ParseHexOr(hex string, fallback color.RGBA) color.RGBA {
	c, err := ParseHex(hex)
	if err != nil {
		return fallback
	}
	return c
}

// RGB returns the 0xRRGGBB value as an opaque color.
func RGB(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// Vec3 converts a color to linear 0..1 components for shading.
func Vec3(c color.RGBA) mgl32.Vec3 {
	return mgl32.Vec3{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// Hex formats c as "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Contrast returns black or white, whichever reads better on bg.
func Contrast(bg color.RGBA) color.RGBA {
	luma := 0.299*float32(bg.R) + 0.587*float32(bg.G) + 0.114*float32(bg.B)
	if luma > 150 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}
