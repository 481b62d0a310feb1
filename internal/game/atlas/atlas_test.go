package atlas

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/game/world"
)

type fakeService struct {
	calls atomic.Int32
	gate  chan struct{}
	resp  *Response
	err   error
}

func (f *fakeService) Generate(ctx context.Context, req Request) (*Response, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func atlasResponse() *Response {
	return &Response{
		AtlasID: "a1",
		Image:   image.NewRGBA(image.Rect(0, 0, 16, 16)),
		Cells: map[string]UVRect{
			"floor": {X: 0, Y: 0, W: 0.25, H: 0.25},
			"Water": {X: 0.25, Y: 0, W: 0.25, H: 0.25},
		},
	}
}

// pollUntil polls c until it reports a new atlas or the load finishes.
func pollUntil(t *testing.T, c *Cache) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Poll() {
			return true
		}
		if !c.Loading() {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("atlas load did not finish")
	return false
}

var theme = Theme{GeneratorID: "default", Description: "caves"}

func TestResolveUsesAtlasRegion(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	c := New(dev, &fakeService{resp: atlasResponse()}, DefaultOptions())
	defer c.Dispose()

	c.Request(theme, nil)
	if !c.Loading() {
		t.Fatal("expected load in flight")
	}
	if !pollUntil(t, c) {
		t.Fatal("expected atlas to become current")
	}

	v := c.Resolve(CellRef(world.CellType{ID: "floor", Name: "Floor"}))
	if v.Kind != AppearanceAtlas {
		t.Fatalf("expected atlas appearance, got %s", v.Kind)
	}
	if v.Texture != c.Current().Texture {
		t.Error("view should share the atlas texture")
	}
	if v.Repeat.X() != 0.25 || v.Offset.X() != 0 {
		t.Errorf("unexpected uv transform %v %v", v.Offset, v.Repeat)
	}

	// Name is the second lookup key.
	w := c.Resolve(CellRef(world.CellType{ID: "water_deep", Name: "Water"}))
	if w.Kind != AppearanceAtlas || w.Offset.X() != 0.25 {
		t.Errorf("expected lookup by name, got %s at %v", w.Kind, w.Offset)
	}
}

func TestResolveFallbackWithoutAtlas(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	c := New(dev, nil, DefaultOptions())
	defer c.Dispose()

	if !c.FallbackOnly() {
		t.Fatal("nil service should mean fallback only")
	}
	c.Request(theme, nil)
	if c.Loading() {
		t.Fatal("fallback-only cache should not load")
	}

	icon := c.Resolve(CellRef(world.CellType{ID: "tree", Icon: "fa-tree", MapColor: "#228b22"}))
	if icon.Kind != AppearanceFallback {
		t.Errorf("expected fallback, got %s", icon.Kind)
	}
	solid := c.Resolve(CellRef(world.CellType{ID: "floor", MapColor: "#444444"}))
	if solid.Kind != AppearanceSolid {
		t.Errorf("expected solid, got %s", solid.Kind)
	}
	if !dev.HasTexture(icon.Texture) || !dev.HasTexture(solid.Texture) {
		t.Error("fallback textures should be live")
	}
}

func TestResolveSharesTextures(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	c := New(dev, nil, DefaultOptions())
	defer c.Dispose()

	ref := CellRef(world.CellType{ID: "wall", Icon: "fa-square", MapColor: "#666666"})
	a := c.Resolve(ref)
	b := c.Resolve(ref)
	if a.Texture != b.Texture {
		t.Error("same ref should resolve to the same texture")
	}

	// A different cell with identical look reuses the texture too.
	other := c.Resolve(CellRef(world.CellType{ID: "wall2", Icon: "fa-square", MapColor: "#666666"}))
	if other.Texture != a.Texture {
		t.Error("identical icon specs should share a texture")
	}
	if dev.LiveTextures() != 1 || c.Textures() != 1 {
		t.Errorf("expected 1 texture, device has %d, cache has %d", dev.LiveTextures(), c.Textures())
	}
}

func TestLoadFailureFallsBackOnce(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	svc := &fakeService{err: errors.New("connection refused")}
	c := New(dev, svc, DefaultOptions())
	defer c.Dispose()

	c.Request(theme, nil)
	if pollUntil(t, c) {
		t.Fatal("failed load should not produce an atlas")
	}
	if !c.FallbackOnly() {
		t.Fatal("expected fallback-only after failure")
	}

	c.Request(Theme{GeneratorID: "other"}, nil)
	if c.Loading() || svc.calls.Load() != 1 {
		t.Errorf("no further loads expected, calls=%d", svc.calls.Load())
	}

	v := c.Resolve(CellRef(world.CellType{ID: "floor", MapColor: "#444444"}))
	if v.Kind != AppearanceSolid {
		t.Errorf("expected solid, got %s", v.Kind)
	}
}

func TestRequestSameThemeOnce(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	svc := &fakeService{resp: atlasResponse()}
	c := New(dev, svc, DefaultOptions())
	defer c.Dispose()

	c.Request(theme, nil)
	c.Request(theme, nil)
	pollUntil(t, c)
	c.Request(theme, nil)

	if n := svc.calls.Load(); n != 1 {
		t.Errorf("expected 1 generate call, got %d", n)
	}
	if c.Loading() {
		t.Error("loaded theme should not start a new load")
	}
}

func TestDisposeDuringLoad(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	svc := &fakeService{gate: make(chan struct{}), resp: atlasResponse()}
	c := New(dev, svc, DefaultOptions())

	c.Resolve(CellRef(world.CellType{ID: "floor", MapColor: "#444444"}))
	c.Request(theme, nil)
	c.Dispose()
	close(svc.gate)

	if c.Poll() {
		t.Error("disposed cache should not apply results")
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("expected all textures released, %d live", dev.LiveTextures())
	}
	c.Dispose()
}

func TestAtlasArrivesAfterFallback(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	svc := &fakeService{gate: make(chan struct{}), resp: atlasResponse()}
	c := New(dev, svc, DefaultOptions())
	defer c.Dispose()

	ref := CellRef(world.CellType{ID: "floor", MapColor: "#444444"})
	c.Request(theme, nil)
	before := c.Resolve(ref)
	if before.Kind != AppearanceSolid {
		t.Fatalf("expected solid while loading, got %s", before.Kind)
	}

	close(svc.gate)
	if !pollUntil(t, c) {
		t.Fatal("expected atlas")
	}
	after := c.Resolve(ref)
	if after.Kind != AppearanceAtlas {
		t.Errorf("expected atlas once loaded, got %s", after.Kind)
	}
	if !dev.HasTexture(before.Texture) {
		t.Error("earlier fallback texture should stay valid")
	}
}

func TestThemeOf(t *testing.T) {
	tests := []struct {
		s    world.Snapshot
		want Theme
	}{
		{world.Snapshot{}, Theme{GeneratorID: "default", Description: "Generic fantasy world"}},
		{world.Snapshot{Title: "Sunken Keep"}, Theme{GeneratorID: "default", Description: "Sunken Keep"}},
		{world.Snapshot{GeneratorID: "ice", ThemeDescription: "frozen", Title: "x"}, Theme{GeneratorID: "ice", Description: "frozen"}},
	}
	for _, tt := range tests {
		if got := ThemeOf(&tt.s); got != tt.want {
			t.Errorf("ThemeOf = %+v, want %+v", got, tt.want)
		}
	}
}

func TestIconRefContrast(t *testing.T) {
	r := IconRef("fa-dragon", color.RGBA{R: 0xff, G: 0x44, B: 0x44, A: 255})
	if r.Key != "" {
		t.Error("icon refs never use the atlas")
	}
	if r.Foreground.A != 255 {
		t.Error("foreground should be opaque")
	}
}

func TestThemeSwitchDropsPreviousAtlas(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	svc := &fakeService{resp: atlasResponse()}
	c := New(dev, svc, DefaultOptions())
	defer c.Dispose()

	ref := CellRef(world.CellType{ID: "floor", MapColor: "#444444"})
	c.Request(theme, nil)
	if !pollUntil(t, c) {
		t.Fatal("expected first atlas")
	}
	if v := c.Resolve(ref); v.Kind != AppearanceAtlas {
		t.Fatalf("expected atlas for first theme, got %s", v.Kind)
	}

	svc.gate = make(chan struct{})
	defer close(svc.gate)
	c.Request(Theme{GeneratorID: "forest"}, nil)
	if !c.Loading() {
		t.Fatal("expected new theme to load")
	}
	if c.Current() != nil {
		t.Error("previous theme's atlas should not stay current")
	}
	if v := c.Resolve(ref); v.Kind != AppearanceSolid {
		t.Errorf("expected fallback while the new theme loads, got %s", v.Kind)
	}

	// Switching back reuses the cached atlas without a new load.
	c.Request(theme, nil)
	if c.Current() == nil || c.Current().ID != "a1" {
		t.Error("expected cached atlas for the first theme")
	}
	if c.Loading() {
		t.Error("returning to a cached theme should cancel the pending load")
	}
}

func TestFailureAfterThemeSwitch(t *testing.T) {
	dev := gpu.NewHeadless(800, 600)
	svc := &fakeService{resp: atlasResponse()}
	c := New(dev, svc, DefaultOptions())
	defer c.Dispose()

	c.Request(theme, nil)
	if !pollUntil(t, c) {
		t.Fatal("expected first atlas")
	}

	svc.resp, svc.err = nil, errors.New("generator crashed")
	c.Request(Theme{GeneratorID: "forest"}, nil)
	if pollUntil(t, c) {
		t.Fatal("failed load should not produce an atlas")
	}
	if !c.FallbackOnly() || c.Current() != nil {
		t.Fatalf("expected fallback-only with no atlas, current=%v", c.Current())
	}

	v := c.Resolve(CellRef(world.CellType{ID: "floor", MapColor: "#444444"}))
	if v.Kind != AppearanceSolid {
		t.Errorf("expected solid after failure, got %s", v.Kind)
	}
}

func TestResolveAfterDispose(t *testing.T) {
	c := New(gpu.NewHeadless(800, 600), nil, DefaultOptions())
	c.Dispose()

	v := c.Resolve(CellRef(world.CellType{ID: "floor", MapColor: "#444444"}))
	if v.Texture != 0 {
		t.Errorf("disposed cache should resolve to no texture, got %d", v.Texture)
	}
}
