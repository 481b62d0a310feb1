// Package geometry builds the primitive meshes used by the tile view.
//
// All shapes are centered on the origin and wound counter-clockwise when
// seen from outside, with one normal per face (flat shading).
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/picking"
)

// planeThickness pads the picking bounds of flat shapes so slab tests stay stable.
const planeThickness = 0.01

// Shape is a mesh together with its local bounds.
type Shape struct {
	Geometry gpu.Geometry
	Bounds   picking.AABB
}

// Plane builds a horizontal quad of the given width (X) and depth (Z) facing +Y.
func Plane(width, depth float32) Shape {
	hw, hd := width/2, depth/2
	up := [3]float32{0, 1, 0}
	geo := gpu.Geometry{
		Vertices: []gpu.Vertex{
			{Position: [3]float32{-hw, 0, -hd}, Normal: up, UV: [2]float32{0, 0}},
			{Position: [3]float32{-hw, 0, hd}, Normal: up, UV: [2]float32{0, 1}},
			{Position: [3]float32{hw, 0, hd}, Normal: up, UV: [2]float32{1, 1}},
			{Position: [3]float32{hw, 0, -hd}, Normal: up, UV: [2]float32{1, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	return Shape{
		Geometry: geo,
		Bounds: picking.NewAABB(
			mgl32.Vec3{-hw, -planeThickness / 2, -hd},
			mgl32.Vec3{hw, planeThickness / 2, hd},
		),
	}
}

// Box builds an axis-aligned box.
func Box(width, height, depth float32) Shape {
	hw, hh, hd := width/2, height/2, depth/2
	var geo gpu.Geometry

	// u x v must equal the face normal for CCW winding
	addFace(&geo, mgl32.Vec3{hw, 0, 0}, mgl32.Vec3{0, 0, -hd}, mgl32.Vec3{0, hh, 0})  // +X
	addFace(&geo, mgl32.Vec3{-hw, 0, 0}, mgl32.Vec3{0, 0, hd}, mgl32.Vec3{0, hh, 0})  // -X
	addFace(&geo, mgl32.Vec3{0, hh, 0}, mgl32.Vec3{hw, 0, 0}, mgl32.Vec3{0, 0, -hd})  // +Y
	addFace(&geo, mgl32.Vec3{0, -hh, 0}, mgl32.Vec3{hw, 0, 0}, mgl32.Vec3{0, 0, hd})  // -Y
	addFace(&geo, mgl32.Vec3{0, 0, hd}, mgl32.Vec3{hw, 0, 0}, mgl32.Vec3{0, hh, 0})   // +Z
	addFace(&geo, mgl32.Vec3{0, 0, -hd}, mgl32.Vec3{-hw, 0, 0}, mgl32.Vec3{0, hh, 0}) // -Z

	return Shape{
		Geometry: geo,
		Bounds:   picking.NewAABB(mgl32.Vec3{-hw, -hh, -hd}, mgl32.Vec3{hw, hh, hd}),
	}
}

func addFace(geo *gpu.Geometry, center, u, v mgl32.Vec3) {
	n := u.Cross(v).Normalize()
	base := uint32(len(geo.Vertices))
	corners := [4]struct {
		su, sv float32
		uv     [2]float32
	}{
		{-1, -1, [2]float32{0, 1}},
		{1, -1, [2]float32{1, 1}},
		{1, 1, [2]float32{1, 0}},
		{-1, 1, [2]float32{0, 0}},
	}
	for _, c := range corners {
		p := center.Add(u.Mul(c.su)).Add(v.Mul(c.sv))
		geo.Vertices = append(geo.Vertices, gpu.Vertex{Position: p, Normal: n, UV: c.uv})
	}
	geo.Indices = append(geo.Indices, base, base+1, base+2, base, base+2, base+3)
}

// Cylinder builds a (possibly tapered) cylinder along Y.
// A zero top radius gives a cone with its tip at +height/2.
func Cylinder(radiusTop, radiusBottom, height float32, segments int) Shape {
	if segments < 3 {
		segments = 3
	}
	hh := height / 2
	slope := (radiusBottom - radiusTop) / height
	var geo gpu.Geometry

	// Side: duplicate the seam vertex so UVs wrap cleanly.
	for i := 0; i <= segments; i++ {
		u := float32(i) / float32(segments)
		theta := float64(u) * 2 * math.Pi
		sin, cos := float32(math.Sin(theta)), float32(math.Cos(theta))
		n := mgl32.Vec3{sin, slope, cos}.Normalize()
		geo.Vertices = append(geo.Vertices,
			gpu.Vertex{Position: [3]float32{radiusBottom * sin, -hh, radiusBottom * cos}, Normal: n, UV: [2]float32{u, 1}},
			gpu.Vertex{Position: [3]float32{radiusTop * sin, hh, radiusTop * cos}, Normal: n, UV: [2]float32{u, 0}},
		)
	}
	for i := 0; i < segments; i++ {
		b0, t0 := uint32(i*2), uint32(i*2+1)
		b1, t1 := b0+2, t0+2
		geo.Indices = append(geo.Indices, b0, b1, t1, b0, t1, t0)
	}

	if radiusTop > 0 {
		addCap(&geo, radiusTop, hh, segments, true)
	}
	if radiusBottom > 0 {
		addCap(&geo, radiusBottom, -hh, segments, false)
	}

	r := max(radiusTop, radiusBottom)
	return Shape{
		Geometry: geo,
		Bounds:   picking.NewAABB(mgl32.Vec3{-r, -hh, -r}, mgl32.Vec3{r, hh, r}),
	}
}

// Cone builds a cone along Y with its tip pointing up.
func Cone(radius, height float32, segments int) Shape {
	return Cylinder(0, radius, height, segments)
}

func addCap(geo *gpu.Geometry, radius, y float32, segments int, top bool) {
	n := [3]float32{0, -1, 0}
	if top {
		n = [3]float32{0, 1, 0}
	}
	center := uint32(len(geo.Vertices))
	geo.Vertices = append(geo.Vertices, gpu.Vertex{Position: [3]float32{0, y, 0}, Normal: n, UV: [2]float32{0.5, 0.5}})
	for i := 0; i <= segments; i++ {
		theta := float64(i) / float64(segments) * 2 * math.Pi
		sin, cos := float32(math.Sin(theta)), float32(math.Cos(theta))
		geo.Vertices = append(geo.Vertices, gpu.Vertex{
			Position: [3]float32{radius * sin, y, radius * cos},
			Normal:   n,
			UV:       [2]float32{0.5 + sin/2, 0.5 - cos/2},
		})
	}
	for i := 0; i < segments; i++ {
		a, b := center+1+uint32(i), center+2+uint32(i)
		if top {
			geo.Indices = append(geo.Indices, center, a, b)
		} else {
			geo.Indices = append(geo.Indices, center, b, a)
		}
	}
}
