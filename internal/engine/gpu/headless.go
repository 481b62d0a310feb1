package gpu

import (
	"errors"
	"image"
)

// ErrDestroyed is returned when creating resources on a destroyed device.
var ErrDestroyed = errors.New("gpu: device destroyed")

// Headless is a Device that keeps no GPU state. It tracks live handles so
// tests can check that rebuilds release what they allocate.
type Headless struct {
	nextID    uint32
	textures  map[TextureID]image.Point
	meshes    map[MeshID]int
	frames    int
	lastFrame Frame
	width     int
	height    int
	destroyed bool
}

// NewHeadless creates a headless device with the given viewport size.
func NewHeadless(width, height int) *Headless {
	return &Headless{
		textures: make(map[TextureID]image.Point),
		meshes:   make(map[MeshID]int),
		width:    width,
		height:   height,
	}
}

func (h *Headless) CreateTexture(img *image.RGBA) (TextureID, error) {
	if h.destroyed {
		return 0, ErrDestroyed
	}
	if img == nil {
		return 0, errors.New("gpu: nil image")
	}
	h.nextID++
	id := TextureID(h.nextID)
	h.textures[id] = img.Bounds().Size()
	return id, nil
}

func (h *Headless) DeleteTexture(id TextureID) {
	delete(h.textures, id)
}

func (h *Headless) CreateMesh(geo Geometry) (MeshID, error) {
	if h.destroyed {
		return 0, ErrDestroyed
	}
	if len(geo.Indices) == 0 {
		return 0, errors.New("gpu: empty geometry")
	}
	h.nextID++
	id := MeshID(h.nextID)
	h.meshes[id] = len(geo.Indices)
	return id, nil
}

func (h *Headless) DeleteMesh(id MeshID) {
	delete(h.meshes, id)
}

func (h *Headless) Draw(frame Frame) {
	h.frames++
	h.lastFrame = frame
}

func (h *Headless) Resize(width, height int) {
	h.width, h.height = width, height
}

// Destroy drops all tracked resources.
func (h *Headless) Destroy() {
	h.textures = make(map[TextureID]image.Point)
	h.meshes = make(map[MeshID]int)
	h.destroyed = true
}

// LiveTextures returns the number of textures not yet deleted.
func (h *Headless) LiveTextures() int { return len(h.textures) }

// LiveMeshes returns the number of meshes not yet deleted.
func (h *Headless) LiveMeshes() int { return len(h.meshes) }

// HasTexture reports whether id is a live texture.
func (h *Headless) HasTexture(id TextureID) bool {
	_, ok := h.textures[id]
	return ok
}

// HasMesh reports whether id is a live mesh.
func (h *Headless) HasMesh(id MeshID) bool {
	_, ok := h.meshes[id]
	return ok
}

// Frames returns how many frames were drawn.
func (h *Headless) Frames() int { return h.frames }

// LastFrame returns the most recently drawn frame.
func (h *Headless) LastFrame() Frame { return h.lastFrame }

// Size returns the current viewport size.
func (h *Headless) Size() (int, int) { return h.width, h.height }

// Destroyed reports whether Destroy was called.
func (h *Headless) Destroyed() bool { return h.destroyed }
