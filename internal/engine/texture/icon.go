package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"unicode"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Shape is a built-in vector pictogram standing in for an icon font glyph.
type Shape int

const (
	ShapeGlyph Shape = iota // first letter of the icon name
	ShapePerson
	ShapeCross
	ShapeTree
	ShapeMountain
	ShapeDrop
	ShapeDiamond
	ShapeSquare
	ShapeCircle
)

var iconShapes = map[string]Shape{
	"user": ShapePerson, "person": ShapePerson, "male": ShapePerson, "user-ninja": ShapePerson,
	"hat-wizard": ShapePerson, "user-secret": ShapePerson, "child": ShapePerson,

	"skull": ShapeCross, "skull-crossbones": ShapeCross, "dragon": ShapeCross, "ghost": ShapeCross,
	"spider": ShapeCross, "bug": ShapeCross, "crow": ShapeCross, "paw": ShapeCross, "times": ShapeCross,

	"tree": ShapeTree, "seedling": ShapeTree, "leaf": ShapeTree, "pagelines": ShapeTree,

	"mountain": ShapeMountain, "mountain-sun": ShapeMountain, "campground": ShapeMountain,

	"water": ShapeDrop, "tint": ShapeDrop, "droplet": ShapeDrop, "fire": ShapeDrop,

	"gem": ShapeDiamond, "flask": ShapeDiamond, "key": ShapeDiamond, "coins": ShapeDiamond,
	"ring": ShapeDiamond, "scroll": ShapeDiamond, "wand-magic": ShapeDiamond,

	"square": ShapeSquare, "cube": ShapeSquare, "dungeon": ShapeSquare, "door-open": ShapeSquare,
	"door-closed": ShapeSquare, "archway": ShapeSquare, "road": ShapeSquare, "box": ShapeSquare,

	"circle": ShapeCircle, "dot-circle": ShapeCircle, "moon": ShapeCircle, "sun": ShapeCircle,
}

// iconName strips style prefixes like "fas fa-" from an icon class.
func iconName(icon string) string {
	fields := strings.Fields(strings.ToLower(icon))
	name := ""
	if len(fields) > 0 {
		name = fields[len(fields)-1]
	}
	return strings.TrimPrefix(name, "fa-")
}

// ShapeFor returns the pictogram used for an icon class.
func ShapeFor(icon string) Shape {
	if s, ok := iconShapes[iconName(icon)]; ok {
		return s
	}
	return ShapeGlyph
}

// IconSpec describes a fallback icon texture.
type IconSpec struct {
	Icon       string
	Size       int
	Background color.RGBA
	Foreground color.RGBA
	Padding    int
}

// Key identifies the rendered texture; equal keys render identical pixels.
func (s IconSpec) Key() string {
	return fmt.Sprintf("icon-%s-%d-%s-%s-%d", iconName(s.Icon), s.Size, Hex(s.Background), Hex(s.Foreground), s.Padding)
}

// SolidKey identifies a solid color texture.
func SolidKey(c color.RGBA, size int) string {
	return fmt.Sprintf("solid-%s-%d", Hex(c), size)
}

// RenderIcon draws the icon's pictogram centered on a solid background.
func RenderIcon(spec IconSpec) *image.RGBA {
	size := max(spec.Size, 8)
	img := Solid(size, spec.Background)

	pad := min(max(spec.Padding, 0), size/3)
	inner := image.Rect(pad, pad, size-pad, size-pad)

	shape := ShapeFor(spec.Icon)
	if shape == ShapeGlyph {
		drawGlyph(img, inner, glyphFor(spec.Icon), spec.Foreground)
		return img
	}

	p := pen{z: vector.NewRasterizer(size, size), box: inner}
	p.shape(shape)
	p.z.Draw(img, img.Bounds(), &image.Uniform{C: spec.Foreground}, image.Point{})
	return img
}

func glyphFor(icon string) rune {
	for _, r := range iconName(icon) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
	}
	return '?'
}

// drawGlyph renders a basicfont letter and scales it into box.
func drawGlyph(dst *image.RGBA, box image.Rectangle, r rune, fg color.RGBA) {
	face := basicfont.Face7x13
	cell := image.NewRGBA(image.Rect(0, 0, face.Advance, face.Height))
	d := font.Drawer{
		Dst:  cell,
		Src:  &image.Uniform{C: fg},
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(string(r))

	// keep the glyph aspect ratio inside the box
	h := box.Dy()
	w := h * face.Advance / face.Height
	x := box.Min.X + (box.Dx()-w)/2
	xdraw.NearestNeighbor.Scale(dst, image.Rect(x, box.Min.Y, x+w, box.Min.Y+h), cell, cell.Bounds(), draw.Over, nil)
}

// pen draws in unit coordinates mapped onto box.
type pen struct {
	z   *vector.Rasterizer
	box image.Rectangle
}

func (p pen) pt(u, v float32) (float32, float32) {
	return float32(p.box.Min.X) + u*float32(p.box.Dx()), float32(p.box.Min.Y) + v*float32(p.box.Dy())
}

func (p pen) poly(uv ...float32) {
	x, y := p.pt(uv[0], uv[1])
	p.z.MoveTo(x, y)
	for i := 2; i+1 < len(uv); i += 2 {
		x, y = p.pt(uv[i], uv[i+1])
		p.z.LineTo(x, y)
	}
	p.z.ClosePath()
}

func (p pen) circle(cu, cv, r float32) {
	const segments = 24
	pts := make([]float32, 0, segments*2)
	for i := 0; i < segments; i++ {
		a := float64(i) / segments * 2 * math.Pi
		pts = append(pts, cu+r*float32(math.Cos(a)), cv+r*float32(math.Sin(a)))
	}
	p.poly(pts...)
}

func (p pen) shape(s Shape) {
	switch s {
	case ShapePerson:
		p.circle(0.5, 0.25, 0.18)
		p.poly(0.2, 0.95, 0.3, 0.5, 0.7, 0.5, 0.8, 0.95)
	case ShapeCross:
		p.poly(0.1, 0.22, 0.22, 0.1, 0.9, 0.78, 0.78, 0.9)
		p.poly(0.78, 0.1, 0.9, 0.22, 0.22, 0.9, 0.1, 0.78)
	case ShapeTree:
		p.poly(0.5, 0.05, 0.9, 0.72, 0.1, 0.72)
		p.poly(0.42, 0.72, 0.58, 0.72, 0.58, 0.95, 0.42, 0.95)
	case ShapeMountain:
		p.poly(0.05, 0.9, 0.38, 0.2, 0.55, 0.48, 0.68, 0.32, 0.95, 0.9)
	case ShapeDrop:
		p.circle(0.5, 0.62, 0.3)
		p.poly(0.5, 0.05, 0.77, 0.5, 0.23, 0.5)
	case ShapeDiamond:
		p.poly(0.5, 0.05, 0.9, 0.5, 0.5, 0.95, 0.1, 0.5)
	case ShapeSquare:
		p.poly(0.12, 0.12, 0.88, 0.12, 0.88, 0.88, 0.12, 0.88)
	default:
		p.circle(0.5, 0.5, 0.4)
	}
}
