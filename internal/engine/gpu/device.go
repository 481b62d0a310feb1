// Package gpu defines the GPU resource boundary used by the scene.
//
// Scene code never talks to OpenGL directly. It creates textures and meshes
// through a Device and submits one Frame per render call. The OpenGL
// implementation lives in the renderer package; Headless is used in tests
// and for counting live resources.
package gpu

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// TextureID identifies a texture owned by a Device. Zero means no texture.
type TextureID uint32

// MeshID identifies an uploaded mesh. Zero means no mesh.
type MeshID uint32

// Vertex is the interleaved vertex layout shared by all meshes.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// Geometry is CPU-side mesh data ready for upload.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

// Material describes how a mesh is shaded.
type Material struct {
	Texture    TextureID
	UVOffset   mgl32.Vec2
	UVRepeat   mgl32.Vec2 // zero value is treated as (1,1)
	Color      mgl32.Vec3 // multiplied with the texture sample
	Emissive   mgl32.Vec3
	Opacity    float32
	Desaturate float32 // 0 keeps color, 1 is grayscale
}

// Transparent reports whether the material needs blending.
func (m Material) Transparent() bool {
	return m.Opacity < 1
}

// DrawItem is one mesh drawn with one material.
type DrawItem struct {
	Mesh     MeshID
	Model    mgl32.Mat4
	Material Material
}

// DirectionalLight is a light pointing from Position toward the origin.
type DirectionalLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// Frame is everything the device needs to draw one image.
type Frame struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Background mgl32.Vec3
	Ambient    mgl32.Vec3 // color pre-multiplied by intensity
	Lights     []DirectionalLight
	Opaque     []DrawItem
	// Transparent items are drawn after Opaque, back to front.
	Transparent []DrawItem
}

// Device owns GPU resources. All methods must be called from the render thread.
type Device interface {
	CreateTexture(img *image.RGBA) (TextureID, error)
	// DeleteTexture ignores zero and unknown ids.
	DeleteTexture(id TextureID)
	CreateMesh(geo Geometry) (MeshID, error)
	// DeleteMesh ignores zero and unknown ids.
	DeleteMesh(id MeshID)
	Draw(frame Frame)
	Resize(width, height int)
	Destroy()
}
