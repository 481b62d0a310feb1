// Package camera provides the orthographic orbit camera and its follow controller.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a target point with an orthographic projection.
//
// Angles follow the usual spherical convention: Polar is measured from +Y,
// Azimuth around Y starting at +Z.
type OrbitCamera struct {
	Target mgl32.Vec3

	Distance float32
	Polar    float32
	Azimuth  float32

	// Zoom scales the orthographic frustum; 2 shows half as much world.
	Zoom        float32
	FrustumSize float32 // visible world height at Zoom 1
	Aspect      float32
	Near, Far   float32

	MinPolar, MaxPolar float32
	MinZoom, MaxZoom   float32

	DragSensitivity float32 // radians per pixel
	ZoomSensitivity float32 // zoom factor per wheel step
}

// NewOrbitCamera creates a camera looking at the origin from (10, 10, 10).
func NewOrbitCamera(frustumSize float32) *OrbitCamera {
	c := &OrbitCamera{
		Zoom:            1,
		FrustumSize:     frustumSize,
		Aspect:          1,
		Near:            1,
		Far:             1000,
		MinPolar:        0.1,
		MaxPolar:        1.45,
		MinZoom:         0.25,
		MaxZoom:         4,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
	c.SetOffset(mgl32.Vec3{10, 10, 10})
	return c
}

// Pose is the part of the camera state a user can change.
type Pose struct {
	Azimuth float32
	Polar   float32
	Target  mgl32.Vec3
	Zoom    float32
}

// Pose returns the current pose.
func (c *OrbitCamera) Pose() Pose {
	return Pose{Azimuth: c.Azimuth, Polar: c.Polar, Target: c.Target, Zoom: c.Zoom}
}

// Offset returns the camera position relative to the target.
func (c *OrbitCamera) Offset() mgl32.Vec3 {
	sinP, cosP := math.Sincos(float64(c.Polar))
	sinA, cosA := math.Sincos(float64(c.Azimuth))
	return mgl32.Vec3{
		c.Distance * float32(sinP*sinA),
		c.Distance * float32(cosP),
		c.Distance * float32(sinP*cosA),
	}
}

// SetOffset places the camera at target+offset, deriving the spherical angles.
func (c *OrbitCamera) SetOffset(offset mgl32.Vec3) {
	c.Distance = offset.Len()
	if c.Distance == 0 {
		return
	}
	c.Polar = float32(math.Acos(float64(offset.Y() / c.Distance)))
	c.Azimuth = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	return c.Target.Add(c.Offset())
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the orthographic projection.
func (c *OrbitCamera) ProjectionMatrix() mgl32.Mat4 {
	halfH := c.FrustumSize / 2 / c.Zoom
	halfW := halfH * c.Aspect
	return mgl32.Ortho(-halfW, halfW, -halfH, halfH, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// SetViewport updates the aspect ratio from a viewport size.
func (c *OrbitCamera) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

// Rotate orbits by a pointer drag delta in pixels.
func (c *OrbitCamera) Rotate(deltaX, deltaY float32) {
	c.Azimuth -= deltaX * c.DragSensitivity
	c.Polar -= deltaY * c.DragSensitivity
	c.Polar = mgl32.Clamp(c.Polar, c.MinPolar, c.MaxPolar)
}

// Pan moves the target by a pointer drag delta in pixels.
func (c *OrbitCamera) Pan(deltaX, deltaY float32, viewportHeight int) {
	if viewportHeight <= 0 {
		return
	}
	unitsPerPixel := c.FrustumSize / c.Zoom / float32(viewportHeight)

	sinA, cosA := math.Sincos(float64(c.Azimuth))
	right := mgl32.Vec3{float32(cosA), 0, float32(-sinA)}
	// ground-projected direction from camera to target
	forward := mgl32.Vec3{float32(-sinA), 0, float32(-cosA)}

	c.Target = c.Target.
		Sub(right.Mul(deltaX * unitsPerPixel)).
		Add(forward.Mul(deltaY * unitsPerPixel))
}

// ZoomBy zooms by wheel steps; positive zooms in.
func (c *OrbitCamera) ZoomBy(steps float32) {
	c.Zoom *= float32(math.Pow(float64(1+c.ZoomSensitivity), float64(steps)))
	c.Zoom = mgl32.Clamp(c.Zoom, c.MinZoom, c.MaxZoom)
}
