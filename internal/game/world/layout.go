package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Layout maps grid cells to world positions. The grid is centered on the
// origin; grid X maps to world X and grid Y to world Z.
type Layout struct {
	Width, Height int
	TileSize      float32
}

// NewLayout returns the layout for a snapshot.
func NewLayout(s *Snapshot, tileSize float32) Layout {
	return Layout{Width: s.Width, Height: s.Height, TileSize: tileSize}
}

func (l Layout) center() (cx, cz float32) {
	t := l.TileSize
	return float32(l.Width)*t/2 - t/2, float32(l.Height)*t/2 - t/2
}

// GridToWorld returns the center of cell g on the ground plane.
func (l Layout) GridToWorld(g GridCoord) mgl32.Vec3 {
	cx, cz := l.center()
	return mgl32.Vec3{
		float32(g.X)*l.TileSize - cx,
		0,
		float32(g.Y)*l.TileSize - cz,
	}
}

// WorldToGrid returns the cell containing p, clamped to the map.
func (l Layout) WorldToGrid(p mgl32.Vec3) GridCoord {
	cx, cz := l.center()
	half := l.TileSize / 2
	x := int(math.Floor(float64((p.X() + cx + half) / l.TileSize)))
	y := int(math.Floor(float64((p.Z() + cz + half) / l.TileSize)))
	return GridCoord{X: clampInt(x, 0, l.Width-1), Y: clampInt(y, 0, l.Height-1)}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
