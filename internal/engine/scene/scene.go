// Package scene holds the tile view's scene graph: one camera, one device,
// a fixed light rig and the node groups the game layers fill.
package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/camera"
	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/picking"
	"github.com/Faultbox/dungeonview/internal/engine/texture"
	"github.com/Faultbox/dungeonview/internal/logger"
)

// Config contains scene configuration options.
type Config struct {
	Width       int
	Height      int
	FrustumSize float32
	FollowRate  float32
	Thresholds  camera.Thresholds
	MinZoom     float32
	MaxZoom     float32
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Width:       1280,
		Height:      720,
		FrustumSize: 15,
		FollowRate:  4,
		Thresholds:  camera.DefaultThresholds(),
		MinZoom:     0.25,
		MaxZoom:     4,
	}
}

// Light rig.
var (
	BackgroundColor = texture.Vec3(texture.RGB(0x1a1a1a))
	AmbientLight    = mgl32.Vec3{0.4, 0.4, 0.4}
	SunLight        = gpu.DirectionalLight{
		Position:  mgl32.Vec3{10, 15, 5},
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 0.8,
	}
	FillLight = gpu.DirectionalLight{
		Position:  mgl32.Vec3{-5, 8, -5},
		Color:     texture.Vec3(texture.RGB(0x87ceeb)),
		Intensity: 0.3,
	}
)

// Graph is the scene. All methods run on the render thread.
type Graph struct {
	Tiles    *Group
	Entities *Group
	Arrows   *Group
	Overlay  *Group

	Background mgl32.Vec3
	Ambient    mgl32.Vec3
	Lights     []gpu.DirectionalLight

	dev    gpu.Device
	camera *camera.Controller
	log    *zap.Logger

	width, height int
	pending       *[2]int
	disposed      bool
}

// New creates a scene drawing to dev.
func New(dev gpu.Device, cfg Config) *Graph {
	cam := camera.NewOrbitCamera(cfg.FrustumSize)
	if cfg.MinZoom > 0 {
		cam.MinZoom = cfg.MinZoom
	}
	if cfg.MaxZoom > 0 {
		cam.MaxZoom = cfg.MaxZoom
	}

	g := &Graph{
		Tiles:      newGroup("tiles", dev),
		Entities:   newGroup("entities", dev),
		Arrows:     newGroup("arrows", dev),
		Overlay:    newGroup("overlay", dev),
		Background: BackgroundColor,
		Ambient:    AmbientLight,
		Lights:     []gpu.DirectionalLight{SunLight, FillLight},
		dev:        dev,
		camera:     camera.NewController(cam, cfg.Thresholds, cfg.FollowRate),
		log:        logger.Named("scene"),
	}
	g.applyViewport(cfg.Width, cfg.Height)
	return g
}

// Device returns the device the scene draws to.
func (g *Graph) Device() gpu.Device { return g.dev }

// Camera returns the camera controller.
func (g *Graph) Camera() *camera.Controller { return g.camera }

// Size returns the viewport size.
func (g *Graph) Size() (int, int) { return g.width, g.height }

// Groups returns all groups in draw order.
func (g *Graph) Groups() []*Group {
	return []*Group{g.Tiles, g.Entities, g.Arrows, g.Overlay}
}

// QueueResize records a viewport change to apply at the start of the next
// frame. Later calls replace earlier ones.
func (g *Graph) QueueResize(width, height int) {
	g.pending = &[2]int{width, height}
}

// ApplyPendingResize applies a queued viewport change. It reports whether
// one was applied.
func (g *Graph) ApplyPendingResize() bool {
	if g.pending == nil || g.disposed {
		return false
	}
	w, h := g.pending[0], g.pending[1]
	g.pending = nil
	if w <= 0 || h <= 0 {
		return false
	}
	g.applyViewport(w, h)
	g.dev.Resize(w, h)
	g.log.Debug("viewport resized", zap.Int("width", w), zap.Int("height", h))
	return true
}

func (g *Graph) applyViewport(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	g.width, g.height = w, h
	g.camera.SetViewport(w, h)
}

// Update advances the camera controller.
func (g *Graph) Update(dt float32) {
	if g.disposed {
		return
	}
	g.camera.Update(dt)
}

// Ray returns the world ray under a pixel.
func (g *Graph) Ray(x, y float32) picking.Ray {
	inv := g.camera.Camera().ViewProjection().Inv()
	return picking.ScreenToRay(x, y, float32(g.width), float32(g.height), inv)
}

// BuildFrame collects every visible part. Transparent parts are sorted back
// to front from the camera.
func (g *Graph) BuildFrame() gpu.Frame {
	cam := g.camera.Camera()
	f := gpu.Frame{
		View:       cam.ViewMatrix(),
		Projection: cam.ProjectionMatrix(),
		Background: g.Background,
		Ambient:    g.Ambient,
		Lights:     g.Lights,
	}

	eye := cam.Position()
	var depth []float32
	for _, grp := range g.Groups() {
		if !grp.Visible {
			continue
		}
		for _, n := range grp.nodes {
			if !n.Visible {
				continue
			}
			m := n.Transform()
			for _, p := range n.Parts {
				item := gpu.DrawItem{Mesh: p.Mesh, Model: m.Mul4(p.Local), Material: p.Material}
				if item.Material.Transparent() {
					f.Transparent = append(f.Transparent, item)
					depth = append(depth, item.Model.Col(3).Vec3().Sub(eye).LenSqr())
				} else {
					f.Opaque = append(f.Opaque, item)
				}
			}
		}
	}

	sort.Sort(byDepth{items: f.Transparent, depth: depth})
	return f
}

// Render draws one frame.
func (g *Graph) Render() {
	if g.disposed {
		return
	}
	g.dev.Draw(g.BuildFrame())
}

// Disposed reports whether Dispose was called.
func (g *Graph) Disposed() bool { return g.disposed }

// Dispose releases every group and destroys the device. Safe to call twice.
func (g *Graph) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	for _, grp := range g.Groups() {
		grp.Clear()
	}
	g.dev.Destroy()
	g.pending = nil
	g.Lights = nil
	g.log.Debug("scene disposed")
}

// byDepth sorts far to near.
type byDepth struct {
	items []gpu.DrawItem
	depth []float32
}

func (s byDepth) Len() int           { return len(s.items) }
func (s byDepth) Less(i, j int) bool { return s.depth[i] > s.depth[j] }
func (s byDepth) Swap(i, j int) {
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.depth[i], s.depth[j] = s.depth[j], s.depth[i]
}
