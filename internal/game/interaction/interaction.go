// Package interaction turns pointer clicks and hovers into movement intents.
//
// Clicks are arbitrated in a fixed order: a click that ends a real camera
// drag is dropped, an arrow under the pointer wins next, and only then is the
// tile under the pointer considered, if it is orthogonally adjacent to the
// player.
package interaction

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/geometry"
	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/input"
	"github.com/Faultbox/dungeonview/internal/engine/scene"
	"github.com/Faultbox/dungeonview/internal/engine/texture"
	"github.com/Faultbox/dungeonview/internal/game/arrows"
	"github.com/Faultbox/dungeonview/internal/game/tilefield"
	"github.com/Faultbox/dungeonview/internal/game/world"
	"github.com/Faultbox/dungeonview/internal/logger"
)

// Cursor is the pointer shape the window should show.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorPointer
)

const (
	highlightScale   = 0.95
	highlightOpacity = 0.5
	highlightLift    = 0.002
)

var HighlightColor = texture.Vec3(texture.RGB(0xffff00))

// Highlight tags the hover highlight node.
type Highlight world.GridCoord

// Coordinator routes pointer events to arrows and tiles.
type Coordinator struct {
	graph  *scene.Graph
	arrows *arrows.Controller
	tiles  *tilefield.Field
	emit   func(world.Intent)
	log    *zap.Logger

	snapshot  *world.Snapshot
	highlight *scene.Node
	cursor    Cursor
}

// New creates a coordinator. emit receives every accepted intent.
func New(g *scene.Graph, a *arrows.Controller, t *tilefield.Field, emit func(world.Intent)) *Coordinator {
	return &Coordinator{
		graph:  g,
		arrows: a,
		tiles:  t,
		emit:   emit,
		log:    logger.Named("input"),
	}
}

// SetSnapshot replaces the state clicks are judged against and clears the
// hover highlight.
func (c *Coordinator) SetSnapshot(s *world.Snapshot) {
	c.snapshot = s
	c.clearHighlight()
}

// Cursor returns the current cursor hint.
func (c *Coordinator) Cursor() Cursor { return c.cursor }

// Highlighted returns the highlighted cell.
func (c *Coordinator) Highlighted() (world.GridCoord, bool) {
	if c.highlight == nil {
		return world.GridCoord{}, false
	}
	return world.GridCoord(c.highlight.Tag.(Highlight)), true
}

// HandleEvent processes clicks and pointer moves. Other events are ignored.
func (c *Coordinator) HandleEvent(ev input.Event) {
	switch ev.Type {
	case input.EventClick:
		if in, ok := c.Click(ev.X, ev.Y); ok && c.emit != nil {
			c.emit(in)
		}
	case input.EventPointerMove:
		c.Move(ev.X, ev.Y)
	}
}

// Click resolves a click at pixel (x, y) to an intent.
func (c *Coordinator) Click(x, y float32) (world.Intent, bool) {
	if c.graph.Camera().ConsumeDrag() {
		c.log.Debug("click ignored after camera drag")
		return world.Intent{}, false
	}
	if c.snapshot == nil {
		return world.Intent{}, false
	}
	ray := c.graph.Ray(x, y)
	from := c.snapshot.Player

	if d, ok := c.arrows.Pick(ray); ok {
		in := world.DirectionIntent(from, d)
		c.log.Debug("arrow clicked", zap.Stringer("intent", in))
		return in, true
	}

	g, ok := c.tiles.Pick(ray)
	if !ok || !c.validTarget(g) {
		return world.Intent{}, false
	}
	in := world.TargetIntent(from, g)
	c.log.Debug("tile clicked", zap.Stringer("intent", in))
	return in, true
}

func (c *Coordinator) validTarget(g world.GridCoord) bool {
	return c.snapshot.InBounds(g) && world.Adjacent(c.snapshot.Player, g)
}

// Move updates hover state for a pointer at pixel (x, y).
func (c *Coordinator) Move(x, y float32) {
	ray := c.graph.Ray(x, y)

	if _, over := c.arrows.Hover(ray); over {
		c.clearHighlight()
		c.cursor = CursorPointer
		return
	}
	c.cursor = CursorDefault

	if c.snapshot == nil || c.snapshot.InCombat {
		c.clearHighlight()
		return
	}
	g, ok := c.tiles.Pick(ray)
	if !ok || !c.validTarget(g) {
		c.clearHighlight()
		return
	}
	c.setHighlight(g)
	c.cursor = CursorPointer
}

func (c *Coordinator) setHighlight(g world.GridCoord) {
	if cur, ok := c.Highlighted(); ok && cur == g {
		return
	}
	c.clearHighlight()

	layout := c.tiles.Layout()
	n := c.graph.Overlay.NewNode(Highlight(g))
	n.Position = layout.GridToWorld(g)
	if cell, ok := c.snapshot.Cell(g); ok {
		n.Position[1] = tilefield.Elevation(cell, layout.TileSize)
	}
	n.Position[1] += highlightLift

	size := layout.TileSize * highlightScale
	mat := gpu.Material{Color: HighlightColor, Emissive: HighlightColor, Opacity: highlightOpacity}
	if _, err := n.AddShape(geometry.Plane(size, size), mat, mgl32.Ident4()); err != nil {
		c.log.Debug("highlight failed", zap.Error(err))
		n.Remove()
		return
	}
	c.highlight = n
}

func (c *Coordinator) clearHighlight() {
	if c.highlight != nil {
		c.highlight.Remove()
		c.highlight = nil
	}
}

// Dispose removes the highlight and drops the snapshot.
func (c *Coordinator) Dispose() {
	c.clearHighlight()
	c.snapshot = nil
	c.emit = nil
}
