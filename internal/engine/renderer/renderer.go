// Package renderer provides the OpenGL implementation of gpu.Device.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/shader"
	"github.com/Faultbox/dungeonview/internal/logger"
)

// maxLights matches the uniform array size in the fragment shader.
const maxLights = 4

type glMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

// Renderer draws gpu.Frames with OpenGL 4.1 core.
// IMPORTANT: New must be called AFTER the OpenGL context is created.
type Renderer struct {
	program  *shader.Program
	textures map[gpu.TextureID]uint32
	meshes   map[gpu.MeshID]glMesh
	nextMesh uint32
	width    int
	height   int
}

// New initializes OpenGL and compiles the scene program.
func New(width, height int) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.New(vertexShader, fragmentShader,
		"uModel", "uView", "uProjection", "uNormalMatrix",
		"uTexture", "uHasTexture", "uUVOffset", "uUVRepeat",
		"uColor", "uEmissive", "uOpacity", "uDesaturate",
		"uAmbient", "uLightCount", "uLightDir", "uLightColor",
	)
	if err != nil {
		return nil, fmt.Errorf("creating scene program: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	r := &Renderer{
		program:  program,
		textures: make(map[gpu.TextureID]uint32),
		meshes:   make(map[gpu.MeshID]glMesh),
	}
	r.Resize(width, height)
	return r, nil
}

// CreateTexture uploads an RGBA image with mipmaps.
func (r *Renderer) CreateTexture(img *image.RGBA) (gpu.TextureID, error) {
	if img == nil {
		return 0, errors.New("nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return 0, errors.New("empty image")
	}
	if img.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		packed := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(packed, packed.Bounds(), img, b.Min, draw.Src)
		img = packed
	}

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	// Atlas views sample sub-rectangles, so never wrap into a neighbour.
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	id := gpu.TextureID(texID)
	r.textures[id] = texID
	return id, nil
}

// DeleteTexture releases a texture.
func (r *Renderer) DeleteTexture(id gpu.TextureID) {
	texID, ok := r.textures[id]
	if !ok {
		return
	}
	gl.DeleteTextures(1, &texID)
	delete(r.textures, id)
}

// CreateMesh uploads interleaved vertices and indices into a VAO.
func (r *Renderer) CreateMesh(geo gpu.Geometry) (gpu.MeshID, error) {
	if len(geo.Vertices) == 0 || len(geo.Indices) == 0 {
		return 0, errors.New("empty geometry")
	}

	var m glMesh
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	vertexSize := int(unsafe.Sizeof(gpu.Vertex{}))
	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(geo.Vertices)*vertexSize, unsafe.Pointer(&geo.Vertices[0]), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)
	// UV
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, int32(vertexSize), 6*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(geo.Indices)*4, unsafe.Pointer(&geo.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	m.indexCount = int32(len(geo.Indices))
	r.nextMesh++
	id := gpu.MeshID(r.nextMesh)
	r.meshes[id] = m
	return id, nil
}

// DeleteMesh releases a mesh and its buffers.
func (r *Renderer) DeleteMesh(id gpu.MeshID) {
	m, ok := r.meshes[id]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	delete(r.meshes, id)
}

// Draw clears the framebuffer and renders the frame.
func (r *Renderer) Draw(frame gpu.Frame) {
	bg := frame.Background
	gl.ClearColor(bg.X(), bg.Y(), bg.Z(), 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.program.Use()
	gl.UniformMatrix4fv(r.program.Loc("uView"), 1, false, &frame.View[0])
	gl.UniformMatrix4fv(r.program.Loc("uProjection"), 1, false, &frame.Projection[0])
	gl.Uniform3f(r.program.Loc("uAmbient"), frame.Ambient.X(), frame.Ambient.Y(), frame.Ambient.Z())

	r.uploadLights(frame.Lights)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.Uniform1i(r.program.Loc("uTexture"), 0)

	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	for i := range frame.Opaque {
		r.drawItem(&frame.Opaque[i])
	}

	if len(frame.Transparent) > 0 {
		gl.Enable(gl.BLEND)
		gl.DepthMask(false)
		for i := range frame.Transparent {
			r.drawItem(&frame.Transparent[i])
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}

	gl.BindVertexArray(0)
}

func (r *Renderer) uploadLights(lights []gpu.DirectionalLight) {
	n := len(lights)
	if n > maxLights {
		n = maxLights
	}
	var dirs, colors [maxLights * 3]float32
	for i := 0; i < n; i++ {
		d := lights[i].Position.Mul(-1)
		if d.Len() > 0 {
			d = d.Normalize()
		}
		c := lights[i].Color.Mul(lights[i].Intensity)
		copy(dirs[i*3:], d[:])
		copy(colors[i*3:], c[:])
	}
	gl.Uniform1i(r.program.Loc("uLightCount"), int32(n))
	gl.Uniform3fv(r.program.Loc("uLightDir"), maxLights, &dirs[0])
	gl.Uniform3fv(r.program.Loc("uLightColor"), maxLights, &colors[0])
}

func (r *Renderer) drawItem(item *gpu.DrawItem) {
	m, ok := r.meshes[item.Mesh]
	if !ok {
		return
	}
	mat := item.Material

	normal := item.Model.Mat3().Inv().Transpose()
	gl.UniformMatrix4fv(r.program.Loc("uModel"), 1, false, &item.Model[0])
	gl.UniformMatrix3fv(r.program.Loc("uNormalMatrix"), 1, false, &normal[0])

	texID, hasTex := r.textures[mat.Texture]
	if hasTex {
		gl.BindTexture(gl.TEXTURE_2D, texID)
		gl.Uniform1i(r.program.Loc("uHasTexture"), 1)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, 0)
		gl.Uniform1i(r.program.Loc("uHasTexture"), 0)
	}

	repeat := mat.UVRepeat
	if repeat.X() == 0 && repeat.Y() == 0 {
		repeat = [2]float32{1, 1}
	}
	gl.Uniform2f(r.program.Loc("uUVOffset"), mat.UVOffset.X(), mat.UVOffset.Y())
	gl.Uniform2f(r.program.Loc("uUVRepeat"), repeat.X(), repeat.Y())
	gl.Uniform3f(r.program.Loc("uColor"), mat.Color.X(), mat.Color.Y(), mat.Color.Z())
	gl.Uniform3f(r.program.Loc("uEmissive"), mat.Emissive.X(), mat.Emissive.Y(), mat.Emissive.Z())
	gl.Uniform1f(r.program.Loc("uOpacity"), mat.Opacity)
	gl.Uniform1f(r.program.Loc("uDesaturate"), mat.Desaturate)

	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.width = width
	r.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Destroy releases every resource still owned by the renderer.
func (r *Renderer) Destroy() {
	if r.program == nil {
		return
	}
	if len(r.textures) > 0 || len(r.meshes) > 0 {
		logger.Debug("renderer releasing leftover resources",
			zap.Int("textures", len(r.textures)),
			zap.Int("meshes", len(r.meshes)),
		)
	}
	for id := range r.meshes {
		r.DeleteMesh(id)
	}
	for id := range r.textures {
		r.DeleteTexture(id)
	}
	r.program.Delete()
	r.program = nil
}

var _ gpu.Device = (*Renderer)(nil)
