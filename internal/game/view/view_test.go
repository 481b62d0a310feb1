package view

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dungeonview/internal/config"
	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/input"
	"github.com/Faultbox/dungeonview/internal/game/atlas"
	"github.com/Faultbox/dungeonview/internal/game/world"
)

func snapshot(player world.GridCoord) *world.Snapshot {
	s := &world.Snapshot{Width: 5, Height: 5, Player: player}
	s.Cells = make([][]world.CellType, 5)
	s.Explored = make([][]bool, 5)
	for y := range s.Cells {
		s.Cells[y] = make([]world.CellType, 5)
		s.Explored[y] = make([]bool, 5)
		for x := range s.Cells[y] {
			s.Cells[y][x] = world.CellType{ID: "floor", MapColor: "#444444"}
			s.Explored[y][x] = true
		}
	}
	s.Enemies = []world.Enemy{{ID: "bat", X: 0, Y: 0}}
	return s
}

func newView() (*View, *gpu.Headless) {
	dev := gpu.NewHeadless(800, 600)
	opts := DefaultOptions()
	opts.Scene.Width, opts.Scene.Height = 800, 600
	return New(dev, nil, opts), dev
}

func TestFrameAppliesLatestSnapshot(t *testing.T) {
	v, dev := newView()
	defer v.Dispose()

	v.Submit(snapshot(world.GridCoord{X: 0, Y: 2}))
	v.Submit(snapshot(world.GridCoord{X: 2, Y: 2}))
	v.Frame(1.0 / 60)

	if v.Snapshot() == nil || v.Snapshot().Player != (world.GridCoord{X: 2, Y: 2}) {
		t.Fatalf("expected latest snapshot, got %+v", v.Snapshot())
	}
	if v.Scene().Tiles.Len() != 25 {
		t.Errorf("expected 25 tiles, got %d", v.Scene().Tiles.Len())
	}
	// bat + player
	if v.Scene().Entities.Len() != 2 {
		t.Errorf("expected 2 entities, got %d", v.Scene().Entities.Len())
	}
	if v.Scene().Arrows.Len() != 4 {
		t.Errorf("expected 4 arrows, got %d", v.Scene().Arrows.Len())
	}
	if dev.Frames() != 1 {
		t.Errorf("expected 1 frame drawn, got %d", dev.Frames())
	}
}

func TestMalformedSnapshotKeepsPrior(t *testing.T) {
	v, _ := newView()
	defer v.Dispose()

	good := snapshot(world.GridCoord{X: 2, Y: 2})
	v.Submit(good)
	v.Frame(0.016)

	bad := snapshot(world.GridCoord{X: 2, Y: 2})
	bad.Cells = bad.Cells[:3]
	v.Submit(bad)
	v.Frame(0.016)

	if v.Snapshot() != good {
		t.Error("malformed snapshot should be dropped")
	}
	if v.Scene().Tiles.Len() != 25 {
		t.Errorf("tiles should be kept, got %d", v.Scene().Tiles.Len())
	}
}

func TestCameraFollowsPlayer(t *testing.T) {
	v, _ := newView()
	defer v.Dispose()

	v.Submit(snapshot(world.GridCoord{X: 2, Y: 2}))
	v.Frame(0.016)
	cam := v.Scene().Camera().Camera()
	if cam.Target.Sub(mgl32.Vec3{0, cam.Target.Y(), 0}).Len() > 1e-4 {
		t.Fatalf("camera should snap to the first player position, got %v", cam.Target)
	}

	v.Submit(snapshot(world.GridCoord{X: 3, Y: 2}))
	for i := 0; i < 240; i++ {
		v.Frame(1.0 / 60)
	}
	if d := mgl32.Abs(cam.Target.X() - 1); d > 0.01 {
		t.Errorf("camera should follow to x=1, got %v", cam.Target)
	}
}

func TestWindowEvents(t *testing.T) {
	v, dev := newView()
	defer v.Dispose()

	v.Input().Push(input.Event{Type: input.EventWindowResize, Width: 1024, Height: 768})
	v.Frame(0.016)
	if w, _ := dev.Size(); w != 800 {
		t.Error("resize applies at the start of the next frame")
	}
	v.Frame(0.016)
	if w, h := dev.Size(); w != 1024 || h != 768 {
		t.Errorf("expected 1024x768, got %dx%d", w, h)
	}

	v.Input().Push(input.Event{Type: input.EventKeyDown, Key: "escape"})
	v.Frame(0.016)
	if !v.Closed() {
		t.Error("escape should close the view")
	}
}

func TestClickEmitsIntent(t *testing.T) {
	v, _ := newView()
	defer v.Dispose()

	v.Submit(snapshot(world.GridCoord{X: 2, Y: 2}))
	v.Frame(0.016)

	// project the north neighbour onto the screen
	cam := v.Scene().Camera().Camera()
	clip := cam.ViewProjection().Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	x, y := (ndc.X()+1)/2*800, (1-ndc.Y())/2*600

	q := v.Input()
	q.Push(input.Event{Type: input.EventPointerDown, X: x, Y: y, Button: input.ButtonLeft})
	q.Push(input.Event{Type: input.EventPointerUp, X: x, Y: y, Button: input.ButtonLeft})
	v.Frame(0.016)

	select {
	case in := <-v.Intents():
		if d, ok := in.Step(); !ok || d != world.North {
			t.Errorf("expected a north step, got %v", in)
		}
	default:
		t.Fatal("expected an intent")
	}
}

type slowService struct{ release chan struct{} }

func (s slowService) Generate(ctx context.Context, req atlas.Request) (*atlas.Response, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &atlas.Response{AtlasID: "a", Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}, nil
}

func TestLoadingIndicator(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	svc := slowService{release: make(chan struct{})}
	v := New(dev, svc, DefaultOptions())

	v.Submit(snapshot(world.GridCoord{X: 2, Y: 2}))
	v.Frame(0.1)
	if v.Loading() != "Loading." {
		t.Errorf("expected first indicator frame, got %q", v.Loading())
	}
	v.Frame(0.4)
	if v.Loading() != "Loading.." {
		t.Errorf("expected second indicator frame, got %q", v.Loading())
	}

	close(svc.release)
	deadline := time.Now().Add(2 * time.Second)
	for v.Loading() != "" && time.Now().Before(deadline) {
		v.Frame(0.016)
		time.Sleep(time.Millisecond)
	}
	if v.Loading() != "" {
		t.Error("indicator should clear once the atlas is ready")
	}

	v.Dispose()
	v.Dispose()
	if dev.LiveTextures() != 0 || dev.LiveMeshes() != 0 {
		t.Errorf("dispose leaked %d textures, %d meshes", dev.LiveTextures(), dev.LiveMeshes())
	}
	v.Frame(0.016)
}

func TestDisposeWithLoadInFlight(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	svc := slowService{release: make(chan struct{})}
	v := New(dev, svc, DefaultOptions())

	v.Submit(snapshot(world.GridCoord{X: 2, Y: 2}))
	v.Frame(0.016)
	v.Dispose()
	close(svc.release)
	v.Frame(0.016)

	if dev.LiveTextures() != 0 {
		t.Errorf("late atlas should never be uploaded, %d textures live", dev.LiveTextures())
	}
	if v.Loading() != "" {
		t.Error("loading indicator should be cleared")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Fog.Radius = 2
	cfg.Camera.AngleThreshold = 0.02
	cfg.Graphics.TileSize = 2

	opts := OptionsFrom(cfg)
	if opts.Tiles.FogRadius != 2 || opts.Tiles.TileSize != 2 {
		t.Errorf("unexpected tile options %+v", opts.Tiles)
	}
	if opts.Scene.Thresholds.Angle != 0.02 || opts.Scene.FrustumSize != 15 {
		t.Errorf("unexpected scene options %+v", opts.Scene)
	}
	if opts.Atlas.AtlasSize != 1024 || opts.Atlas.IconSize != 64 {
		t.Errorf("unexpected atlas options %+v", opts.Atlas)
	}
}
