package arrows

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/picking"
	"github.com/Faultbox/dungeonview/internal/engine/scene"
	"github.com/Faultbox/dungeonview/internal/game/world"
)

func snapshot(w, h int, player world.GridCoord) *world.Snapshot {
	s := &world.Snapshot{Width: w, Height: h, Player: player}
	s.Cells = make([][]world.CellType, h)
	s.Explored = make([][]bool, h)
	for y := range s.Cells {
		s.Cells[y] = make([]world.CellType, w)
		s.Explored[y] = make([]bool, w)
	}
	return s
}

func setup() (*Controller, *gpu.Headless) {
	dev := gpu.NewHeadless(800, 600)
	return New(scene.New(dev, scene.DefaultConfig())), dev
}

func TestArrowsMatchCanMove(t *testing.T) {
	c, _ := setup()

	positions := []world.GridCoord{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 4, Y: 0}, {X: 0, Y: 4}, {X: 4, Y: 4}, {X: 2, Y: 0}}
	for _, p := range positions {
		for _, combat := range []bool{false, true} {
			s := snapshot(5, 5, p)
			s.InCombat = combat
			if _, err := c.Sync(s, mgl32.Vec3{}); err != nil {
				t.Fatal(err)
			}
			for _, d := range world.Directions {
				if c.Has(d) != s.CanMove(d) {
					t.Errorf("player %v combat %v: arrow %s = %v, CanMove = %v", p, combat, d, c.Has(d), s.CanMove(d))
				}
			}
			if combat && len(c.Directions()) != 0 {
				t.Errorf("no arrows in combat, got %v", c.Directions())
			}
		}
	}
}

func TestSyncOnlyOnChange(t *testing.T) {
	c, dev := setup()
	s := snapshot(5, 5, world.GridCoord{X: 2, Y: 2})

	if rebuilt, _ := c.Sync(s, mgl32.Vec3{}); !rebuilt {
		t.Fatal("first sync should build")
	}
	meshes := dev.LiveMeshes()
	if meshes != 8 {
		t.Errorf("expected 4 arrows with 2 parts, got %d meshes", meshes)
	}
	if rebuilt, _ := c.Sync(s, mgl32.Vec3{}); rebuilt {
		t.Error("unchanged snapshot should not rebuild")
	}

	s2 := snapshot(5, 5, world.GridCoord{X: 0, Y: 2})
	if rebuilt, _ := c.Sync(s2, mgl32.Vec3{}); !rebuilt {
		t.Error("player move should rebuild")
	}
	if dev.LiveMeshes() != 6 {
		t.Errorf("expected 3 arrows, got %d meshes", dev.LiveMeshes())
	}

	c.Dispose()
	if dev.LiveMeshes() != 0 {
		t.Errorf("dispose left %d meshes", dev.LiveMeshes())
	}
}

func down(p mgl32.Vec3) picking.Ray {
	return picking.Ray{Origin: mgl32.Vec3{p.X(), 20, p.Z()}, Direction: mgl32.Vec3{0, -1, 0}}
}

func TestPickAndHover(t *testing.T) {
	c, _ := setup()
	player := mgl32.Vec3{0, 0.5, 0}
	if _, err := c.Sync(snapshot(5, 5, world.GridCoord{X: 2, Y: 2}), player); err != nil {
		t.Fatal(err)
	}
	c.Update(player, mgl32.Vec3{10, 10, 10})

	for _, d := range world.Directions {
		// aim at the middle of the arrow body
		p := player.Add(Offset(d))
		dx, dy := d.Delta()
		p = p.Add(mgl32.Vec3{float32(dx), 0, float32(dy)}.Mul(0.3))
		got, ok := c.Pick(down(p))
		if !ok || got != d {
			t.Errorf("Pick over %s arrow = %q, %v", d, got, ok)
		}
	}

	if _, ok := c.Pick(down(player)); ok {
		t.Error("nothing should be picked over the player")
	}

	east := player.Add(Offset(world.East)).Add(mgl32.Vec3{0.3, 0, 0})
	if d, ok := c.Hover(down(east)); !ok || d != world.East {
		t.Fatalf("expected east hover, got %q", d)
	}
	for d, n := range c.arrows {
		want := d == world.East
		if got := n.Parts[0].Material.Color == HoverColor; got != want {
			t.Errorf("%s highlighted = %v, want %v", d, got, want)
		}
	}

	c.Hover(down(player))
	if c.Hovered() != "" {
		t.Error("hover should clear")
	}
	if c.arrows[world.East].Parts[1].Material.Color != TipColor {
		t.Error("tip color should be restored")
	}
}

func TestScale(t *testing.T) {
	tests := []struct{ dist, want float32 }{
		{1, 0.8},
		{10, 1.5},
		{100, 2.5},
	}
	for _, tt := range tests {
		if got := Scale(tt.dist); mgl32.Abs(got-tt.want) > 1e-5 {
			t.Errorf("Scale(%v) = %v, want %v", tt.dist, got, tt.want)
		}
	}
}
