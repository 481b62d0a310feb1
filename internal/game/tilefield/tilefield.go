// Package tilefield draws the terrain grid with fog of war.
package tilefield

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/geometry"
	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/picking"
	"github.com/Faultbox/dungeonview/internal/engine/scene"
	"github.com/Faultbox/dungeonview/internal/engine/texture"
	"github.com/Faultbox/dungeonview/internal/game/atlas"
	"github.com/Faultbox/dungeonview/internal/game/world"
	"github.com/Faultbox/dungeonview/internal/logger"
)

// Tier is how much of a cell the player can see.
type Tier int

const (
	Hidden Tier = iota
	Fog
	Visible
)

func (t Tier) String() string {
	switch t {
	case Visible:
		return "visible"
	case Fog:
		return "fog"
	default:
		return "hidden"
	}
}

// Tile is the tag of a tile node.
type Tile struct {
	Coord world.GridCoord
	Tier  Tier
	Cell  world.CellType
}

// Marker is the tag of a cardinal marker node.
type Marker world.Direction

// Grid is the tag of the ground grid node.
type Grid struct{}

// Options configures the field.
type Options struct {
	TileSize      float32
	FogRadius     int
	FogOpacity    float32
	FogTint       float32
	FogDesaturate float32
}

// DefaultOptions returns the standard fog look.
func DefaultOptions() Options {
	return Options{
		TileSize:      1,
		FogRadius:     1,
		FogOpacity:    0.55,
		FogTint:       0.45,
		FogDesaturate: 0.6,
	}
}

// tileScale is the drawn fraction of a cell, leaving a gap between tiles.
const tileScale = 0.9

const markerSize = 0.5

// Ground grid: GridSize cells per side, one line per cell boundary.
const (
	GridSize    = 20
	gridLine    = 0.02
	gridDepth   = -0.01
	gridCenter  = 0x444444
	gridDefault = 0x222222
)

var markerColors = map[world.Direction]uint32{
	world.North: 0xff0000,
	world.South: 0x0000ff,
	world.East:  0x00ff00,
	world.West:  0xffff00,
}

// Field owns the tile group of a scene.
type Field struct {
	graph *scene.Graph
	cache *atlas.Cache
	opts  Options
	log   *zap.Logger

	layout  world.Layout
	built   bool
	markers bool
	counts  [3]int
}

// New creates a field drawing into g with textures from cache.
func New(g *scene.Graph, cache *atlas.Cache, opts Options) *Field {
	if opts.TileSize <= 0 {
		opts.TileSize = 1
	}
	return &Field{
		graph: g,
		cache: cache,
		opts:  opts,
		log:   logger.Named("tiles"),
	}
}

// Layout returns the layout of the last rebuild.
func (f *Field) Layout() world.Layout { return f.layout }

// Count returns how many tiles of a tier the last rebuild drew.
func (f *Field) Count(t Tier) int { return f.counts[t] }

// Rebuild clears the tile group and draws s.
func (f *Field) Rebuild(s *world.Snapshot) error {
	f.graph.Tiles.Clear()
	f.counts = [3]int{}
	f.layout = world.NewLayout(s, f.opts.TileSize)

	f.cache.Request(atlas.ThemeOf(s), UniqueCells(s))
	if !f.markers {
		if err := f.addMarkers(s); err != nil {
			return err
		}
		if err := f.addGrid(); err != nil {
			return err
		}
		f.markers = true
	}

	explored := ExploredSet(s)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			g := world.GridCoord{X: x, Y: y}
			tier := TierOf(s, explored, g, f.opts.FogRadius)
			if tier == Hidden {
				continue
			}
			if err := f.addTile(s.Cells[y][x], g, tier); err != nil {
				return fmt.Errorf("building tile %v: %w", g, err)
			}
			f.counts[tier]++
		}
	}
	f.built = true

	f.log.Debug("tiles rebuilt",
		zap.Int("visible", f.counts[Visible]),
		zap.Int("fog", f.counts[Fog]),
	)
	return nil
}

func (f *Field) addTile(cell world.CellType, g world.GridCoord, tier Tier) error {
	mat := gpu.Material{Color: mgl32.Vec3{1, 1, 1}, Opacity: 1}
	if tier == Fog {
		t := f.opts.FogTint
		mat.Color = mgl32.Vec3{t, t, t}
		mat.Opacity = f.opts.FogOpacity
		mat.Desaturate = f.opts.FogDesaturate
	}
	f.cache.Resolve(atlas.CellRef(cell)).Apply(&mat)

	n := f.graph.Tiles.NewNode(Tile{Coord: g, Tier: tier, Cell: cell})
	n.Position = f.layout.GridToWorld(g)
	n.Position[1] = Elevation(cell, f.opts.TileSize)

	size := f.opts.TileSize * tileScale
	_, err := n.AddShape(geometry.Plane(size, size), mat, mgl32.Ident4())
	return err
}

func (f *Field) addMarkers(s *world.Snapshot) error {
	offset := float32(s.Width)/2 + 2
	for _, d := range world.Directions {
		dx, dy := d.Delta()
		n := f.graph.Overlay.NewNode(Marker(d))
		n.Position = mgl32.Vec3{float32(dx) * offset, markerSize / 2, float32(dy) * offset}
		mat := gpu.Material{Color: texture.Vec3(texture.RGB(markerColors[d])), Emissive: texture.Vec3(texture.RGB(markerColors[d])), Opacity: 1}
		if _, err := n.AddShape(geometry.Box(markerSize, markerSize, markerSize), mat, mgl32.Ident4()); err != nil {
			return fmt.Errorf("building %s marker: %w", d, err)
		}
	}
	return nil
}

// addGrid builds the ground grid as one node of thin strips below the tiles.
func (f *Field) addGrid() error {
	n := f.graph.Overlay.NewNode(Grid{})
	n.Position = mgl32.Vec3{0, gridDepth, 0}

	half := float32(GridSize) / 2
	for i := 0; i <= GridSize; i++ {
		c := texture.Vec3(texture.RGB(gridDefault))
		if i == GridSize/2 {
			c = texture.Vec3(texture.RGB(gridCenter))
		}
		mat := gpu.Material{Color: c, Emissive: c, Opacity: 1}
		at := float32(i) - half
		if _, err := n.AddShape(geometry.Plane(GridSize, gridLine), mat, mgl32.Translate3D(0, 0, at)); err != nil {
			return fmt.Errorf("building grid: %w", err)
		}
		if _, err := n.AddShape(geometry.Plane(gridLine, GridSize), mat, mgl32.Translate3D(at, 0, 0)); err != nil {
			return fmt.Errorf("building grid: %w", err)
		}
	}
	return nil
}

// Pick returns the cell under ray. Only tile nodes are tested.
func (f *Field) Pick(ray picking.Ray) (world.GridCoord, bool) {
	if !f.built {
		return world.GridCoord{}, false
	}
	hit, ok := f.graph.Tiles.Pick(ray)
	if !ok {
		return world.GridCoord{}, false
	}
	return f.layout.WorldToGrid(ray.At(hit.Distance)), true
}

// Elevation returns the height of a cell's tile.
func Elevation(cell world.CellType, tileSize float32) float32 {
	terrain := cell.Terrain()
	switch {
	case strings.Contains(terrain, "mountain"):
		return 0.5 * tileSize
	case strings.Contains(terrain, "hill"):
		return 0.2 * tileSize
	default:
		return 0
	}
}

// ExploredSet returns the explored cells of s.
func ExploredSet(s *world.Snapshot) mapset.Set[world.GridCoord] {
	set := mapset.New[world.GridCoord]()
	for y, row := range s.Explored {
		for x, ok := range row {
			if ok {
				set.Put(world.GridCoord{X: x, Y: y})
			}
		}
	}
	return set
}

// TierOf classifies g. The player's cell is always visible; unexplored cells
// within radius (Chebyshev) of an explored cell are fog.
func TierOf(s *world.Snapshot, explored mapset.Set[world.GridCoord], g world.GridCoord, radius int) Tier {
	if explored.Has(g) || g == s.Player {
		return Visible
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if explored.Has(world.GridCoord{X: g.X + dx, Y: g.Y + dy}) {
				return Fog
			}
		}
	}
	return Hidden
}

// UniqueCells returns one cell type per key in first-seen order.
func UniqueCells(s *world.Snapshot) []world.CellType {
	seen := mapset.New[string]()
	var cells []world.CellType
	for _, row := range s.Cells {
		for _, c := range row {
			if seen.Has(c.Key()) {
				continue
			}
			seen.Put(c.Key())
			cells = append(cells, c)
		}
	}
	return cells
}
