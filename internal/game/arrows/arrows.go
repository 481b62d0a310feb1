// Package arrows draws the clickable direction arrows around the player.
package arrows

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/geometry"
	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/picking"
	"github.com/Faultbox/dungeonview/internal/engine/scene"
	"github.com/Faultbox/dungeonview/internal/engine/texture"
	"github.com/Faultbox/dungeonview/internal/game/world"
	"github.com/Faultbox/dungeonview/internal/logger"
)

const (
	Size     = 0.4
	Distance = 1.5
	Height   = 0.2

	shaftLength = Size * 0.7
	shaftRadius = Size * 0.15
	tipHeight   = Size * 0.5
	tipRadius   = Size * 0.3
	segments    = 8

	minScale   = 0.8
	maxScale   = 2.5
	scalePerU  = 0.15
	shaftIndex = 0
	tipIndex   = 1
)

var (
	ShaftColor    = texture.Vec3(texture.RGB(0x339af0))
	TipColor      = texture.Vec3(texture.RGB(0x4dabf7))
	Emissive      = texture.Vec3(texture.RGB(0x111122))
	HoverColor    = texture.Vec3(texture.RGB(0xff4444))
	HoverEmissive = texture.Vec3(texture.RGB(0x330000))
)

// rotations turn the +Z pointing arrow toward each direction.
var rotations = map[world.Direction]float32{
	world.North: math.Pi,
	world.South: 0,
	world.West:  -math.Pi / 2,
	world.East:  math.Pi / 2,
}

// Offset returns the arrow position relative to the player for d.
func Offset(d world.Direction) mgl32.Vec3 {
	dx, dy := d.Delta()
	return mgl32.Vec3{float32(dx) * Distance, Height, float32(dy) * Distance}
}

// Scale returns the arrow scale for a camera distance.
func Scale(dist float32) float32 {
	return mgl32.Clamp(dist*scalePerU, minScale, maxScale)
}

type buildKey struct {
	player   world.GridCoord
	inCombat bool
	width    int
	height   int
}

// Controller owns the arrow group of a scene.
type Controller struct {
	graph *scene.Graph
	log   *zap.Logger

	arrows  map[world.Direction]*scene.Node
	hovered world.Direction
	key     buildKey
	built   bool
}

// New creates an arrow controller.
func New(g *scene.Graph) *Controller {
	return &Controller{
		graph:  g,
		log:    logger.Named("arrows"),
		arrows: make(map[world.Direction]*scene.Node),
	}
}

// Sync rebuilds the arrows when the player cell, combat state or map size
// changed. It reports whether a rebuild happened.
func (c *Controller) Sync(s *world.Snapshot, player mgl32.Vec3) (bool, error) {
	key := buildKey{player: s.Player, inCombat: s.InCombat, width: s.Width, height: s.Height}
	if c.built && key == c.key {
		return false, nil
	}
	c.key = key
	c.built = true

	c.clear()
	for _, d := range world.Directions {
		if !s.CanMove(d) {
			continue
		}
		if err := c.add(d, player); err != nil {
			c.clear()
			return true, fmt.Errorf("building %s arrow: %w", d, err)
		}
	}
	c.log.Debug("arrows rebuilt", zap.Int("count", len(c.arrows)), zap.Bool("in_combat", s.InCombat))
	return true, nil
}

func (c *Controller) add(d world.Direction, player mgl32.Vec3) error {
	n := c.graph.Arrows.NewNode(d)
	n.Position = player.Add(Offset(d))
	n.Rotation = rotations[d]
	c.arrows[d] = n

	// Both parts are built along +Y and laid down along +Z.
	lay := mgl32.HomogRotate3DX(math.Pi / 2)
	shaft := mgl32.Translate3D(0, 0, shaftLength/2).Mul4(lay)
	tip := mgl32.Translate3D(0, 0, shaftLength+tipHeight/2).Mul4(lay)

	if _, err := n.AddShape(geometry.Cylinder(shaftRadius, shaftRadius, shaftLength, segments), defaultMaterial(shaftIndex), shaft); err != nil {
		return err
	}
	_, err := n.AddShape(geometry.Cone(tipRadius, tipHeight, segments), defaultMaterial(tipIndex), tip)
	return err
}

func defaultMaterial(part int) gpu.Material {
	m := gpu.Material{Color: ShaftColor, Emissive: Emissive, Opacity: 1}
	if part == tipIndex {
		m.Color = TipColor
	}
	return m
}

func (c *Controller) clear() {
	for d, n := range c.arrows {
		n.Remove()
		delete(c.arrows, d)
	}
	c.hovered = ""
}

// Update keeps the arrows around the player and scales them by camera distance.
func (c *Controller) Update(player, eye mgl32.Vec3) {
	for d, n := range c.arrows {
		n.Position = player.Add(Offset(d))
		n.Scale = Scale(eye.Sub(n.Position).Len())
	}
}

// Directions returns the directions that currently have an arrow.
func (c *Controller) Directions() []world.Direction {
	var ds []world.Direction
	for _, d := range world.Directions {
		if _, ok := c.arrows[d]; ok {
			ds = append(ds, d)
		}
	}
	return ds
}

// Has reports whether d has an arrow.
func (c *Controller) Has(d world.Direction) bool {
	_, ok := c.arrows[d]
	return ok
}

// Pick returns the direction of the arrow under ray.
func (c *Controller) Pick(ray picking.Ray) (world.Direction, bool) {
	if len(c.arrows) == 0 {
		return "", false
	}
	hit, ok := c.graph.Arrows.Pick(ray)
	if !ok {
		return "", false
	}
	d, ok := hit.Node.Tag.(world.Direction)
	return d, ok
}

// Hover highlights the arrow under ray and restores the others.
func (c *Controller) Hover(ray picking.Ray) (world.Direction, bool) {
	d, ok := c.Pick(ray)
	if !ok {
		d = ""
	}
	c.setHovered(d)
	return d, ok
}

// Hovered returns the highlighted direction, or "".
func (c *Controller) Hovered() world.Direction { return c.hovered }

func (c *Controller) setHovered(h world.Direction) {
	c.hovered = h
	for d, n := range c.arrows {
		for i, p := range n.Parts {
			if d == h {
				p.Material.Color = HoverColor
				p.Material.Emissive = HoverEmissive
			} else {
				p.Material = defaultMaterial(i)
			}
		}
	}
}

// Dispose removes every arrow.
func (c *Controller) Dispose() {
	c.clear()
	c.built = false
}
