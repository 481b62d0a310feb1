// Package entities draws enemies, items and the animated player marker.
package entities

import (
	"fmt"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/geometry"
	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/scene"
	"github.com/Faultbox/dungeonview/internal/engine/texture"
	"github.com/Faultbox/dungeonview/internal/game/atlas"
	"github.com/Faultbox/dungeonview/internal/game/world"
	"github.com/Faultbox/dungeonview/internal/logger"
)

const (
	EnemySize  = 0.5
	ItemSize   = EnemySize * 0.8
	PlayerSize = 0.6

	// ground clearance above the tile plane
	lift = 0.05

	// PlayerBlend is the fraction of the remaining distance covered per update.
	PlayerBlend = 0.2
	// PlayerEpsilon is the distance at which the player snaps to its target.
	PlayerEpsilon = 0.01

	cylinderSegments = 16
)

var (
	EnemyColor  = texture.RGB(0xff4444)
	ItemColor   = texture.RGB(0x44ff44)
	PlayerColor = texture.RGB(0x4dabf7)
)

// Kind tags entity nodes.
type Kind int

const (
	KindEnemy Kind = iota
	KindItem
	KindPlayer
)

// Tag is attached to every entity node.
type Tag struct {
	Kind  Kind
	ID    string
	Coord world.GridCoord
}

// Renderer owns the entity group of a scene.
type Renderer struct {
	graph *scene.Graph
	cache *atlas.Cache
	log   *zap.Logger

	tileSize float32
	layout   world.Layout
	nodes    []*scene.Node

	player     *scene.Node
	target     mgl32.Vec3
	moving     bool
	playerGrid world.GridCoord
}

// New creates an entity renderer.
func New(g *scene.Graph, cache *atlas.Cache, tileSize float32) *Renderer {
	if tileSize <= 0 {
		tileSize = 1
	}
	return &Renderer{
		graph:    g,
		cache:    cache,
		tileSize: tileSize,
		log:      logger.Named("entities"),
	}
}

// Rebuild replaces the enemy and item nodes. Defeated enemies and collected
// items are not drawn. The player node is untouched.
func (r *Renderer) Rebuild(s *world.Snapshot) error {
	for _, n := range r.nodes {
		n.Remove()
	}
	r.nodes = r.nodes[:0]
	r.layout = world.NewLayout(s, r.tileSize)

	for _, e := range s.Enemies {
		if e.Defeated {
			continue
		}
		shape := geometry.Box(EnemySize, EnemySize, EnemySize)
		if err := r.add(Tag{Kind: KindEnemy, ID: e.ID, Coord: e.Pos()}, shape, EnemySize, e.Icon, EnemyColor); err != nil {
			return fmt.Errorf("building enemy %s: %w", e.ID, err)
		}
	}
	for _, it := range s.Items {
		if it.Collected {
			continue
		}
		shape := geometry.Cylinder(ItemSize/2, ItemSize/2, ItemSize*0.5, cylinderSegments)
		if err := r.add(Tag{Kind: KindItem, ID: it.ID, Coord: it.Pos()}, shape, ItemSize, it.Icon, ItemColor); err != nil {
			return fmt.Errorf("building item %s: %w", it.ID, err)
		}
	}
	return nil
}

func (r *Renderer) add(tag Tag, shape geometry.Shape, size float32, icon string, c color.RGBA) error {
	n := r.graph.Entities.NewNode(tag)
	r.nodes = append(r.nodes, n)
	n.Position = r.layout.GridToWorld(tag.Coord)
	n.Position[1] = size/2 + lift

	_, err := n.AddShape(shape, r.material(icon, c), mgl32.Ident4())
	return err
}

// material tints untextured meshes with c; icons are drawn on c instead.
func (r *Renderer) material(icon string, c color.RGBA) gpu.Material {
	m := gpu.Material{Color: texture.Vec3(c), Opacity: 1}
	if icon == "" || r.cache == nil {
		return m
	}
	r.cache.Resolve(atlas.IconRef(icon, c)).Apply(&m)
	m.Color = mgl32.Vec3{1, 1, 1}
	return m
}

// Count returns the number of enemy and item nodes.
func (r *Renderer) Count() int { return len(r.nodes) }

// UpdatePlayer sets the player's target cell using the layout of the last
// Rebuild. The first call places the player directly; later calls animate
// toward the new cell.
func (r *Renderer) UpdatePlayer(g world.GridCoord) error {
	p := r.layout.GridToWorld(g)
	p[1] = PlayerSize*1.5/2 + lift
	r.playerGrid = g

	if r.player == nil {
		n := r.graph.Entities.NewNode(Tag{Kind: KindPlayer, Coord: g})
		mat := gpu.Material{Color: texture.Vec3(PlayerColor), Opacity: 1}
		if _, err := n.AddShape(geometry.Box(PlayerSize, PlayerSize*1.5, PlayerSize), mat, mgl32.Ident4()); err != nil {
			n.Remove()
			return fmt.Errorf("building player: %w", err)
		}
		n.Position = p
		r.player = n
		r.target = p
		return nil
	}

	r.player.Tag = Tag{Kind: KindPlayer, Coord: g}
	if r.target != p {
		r.log.Debug("player moving", zap.Stringer("to", g))
	}
	r.target = p
	r.moving = r.player.Position != p
	return nil
}

// Update advances the player toward its target. It reports whether the
// player is still moving.
func (r *Renderer) Update() bool {
	if r.player == nil || !r.moving {
		return false
	}
	cur := r.player.Position
	d := r.target.Sub(cur)
	if d.Len() <= PlayerEpsilon {
		r.player.Position = r.target
		r.moving = false
		return false
	}
	next := cur.Add(d.Mul(PlayerBlend))
	if r.target.Sub(next).Len() <= PlayerEpsilon {
		next = r.target
		r.moving = false
	}
	r.player.Position = next
	return r.moving
}

// PlayerPosition returns the player's current world position.
func (r *Renderer) PlayerPosition() (mgl32.Vec3, bool) {
	if r.player == nil {
		return mgl32.Vec3{}, false
	}
	return r.player.Position, true
}

// PlayerGrid returns the player's target cell.
func (r *Renderer) PlayerGrid() world.GridCoord { return r.playerGrid }

// Moving reports whether the player is animating.
func (r *Renderer) Moving() bool { return r.moving }

// Dispose removes every entity node including the player.
func (r *Renderer) Dispose() {
	for _, n := range r.nodes {
		n.Remove()
	}
	r.nodes = nil
	if r.player != nil {
		r.player.Remove()
		r.player = nil
	}
	r.moving = false
}
