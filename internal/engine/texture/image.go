// Package texture provides image decoding and the procedural textures used
// when no atlas art is available.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	// decoders accepted from the atlas service
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode decodes PNG, JPEG, BMP or WebP data.
func Decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoding %s image: empty bounds", format)
	}
	return img, nil
}

// ImageToRGBA converts any image.Image to a tightly packed *image.RGBA with
// its origin at (0, 0). RGBA images that already satisfy this are returned as is.
func ImageToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == b.Dx()*4 {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// Solid returns a size x size image filled with c.
func Solid(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}
