// Package view runs the per-frame pipeline of the tile view.
//
// Snapshots and pointer events arrive between frames; Frame applies them in a
// fixed order so no scene state is touched mid-render:
//
//  1. pending viewport change
//  2. latest snapshot (validated; a malformed one keeps the previous state)
//  3. finished atlas loads
//  4. queued input, camera first, then click/hover arbitration
//  5. player animation, camera follow, arrow follow
//  6. render
package view

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/input"
	"github.com/Faultbox/dungeonview/internal/engine/scene"
	"github.com/Faultbox/dungeonview/internal/game/arrows"
	"github.com/Faultbox/dungeonview/internal/game/atlas"
	"github.com/Faultbox/dungeonview/internal/game/entities"
	"github.com/Faultbox/dungeonview/internal/game/interaction"
	"github.com/Faultbox/dungeonview/internal/game/tilefield"
	"github.com/Faultbox/dungeonview/internal/game/world"
	"github.com/Faultbox/dungeonview/internal/logger"
)

// loadingStep is how long each loading indicator frame is shown, in seconds.
const loadingStep = 0.4

// intentBuffer bounds intents waiting for the feed.
const intentBuffer = 16

// Options configures a View.
type Options struct {
	Scene scene.Config
	Tiles tilefield.Options
	Atlas atlas.Options
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		Scene: scene.DefaultConfig(),
		Tiles: tilefield.DefaultOptions(),
		Atlas: atlas.DefaultOptions(),
	}
}

// View wires the scene components together.
type View struct {
	graph    *scene.Graph
	cache    *atlas.Cache
	tiles    *tilefield.Field
	entities *entities.Renderer
	arrows   *arrows.Controller
	coord    *interaction.Coordinator
	queue    *input.Queue
	log      *zap.Logger

	mu      sync.Mutex
	pending *world.Snapshot

	current *world.Snapshot
	placed  bool
	intents chan world.Intent

	loading     string
	loadingTime float32
	closed      bool
	disposed    bool
}

// New creates a view drawing to dev. A nil svc runs with fallback textures only.
func New(dev gpu.Device, svc atlas.Service, opts Options) *View {
	g := scene.New(dev, opts.Scene)
	cache := atlas.New(dev, svc, opts.Atlas)
	tiles := tilefield.New(g, cache, opts.Tiles)
	arr := arrows.New(g)

	v := &View{
		graph:    g,
		cache:    cache,
		tiles:    tiles,
		entities: entities.New(g, cache, opts.Tiles.TileSize),
		arrows:   arr,
		queue:    input.NewQueue(),
		log:      logger.Named("view"),
		intents:  make(chan world.Intent, intentBuffer),
	}
	v.coord = interaction.New(g, arr, tiles, v.emit)
	return v
}

// Input returns the queue the window pushes events into.
func (v *View) Input() *input.Queue { return v.queue }

// Intents returns the channel movement intents are sent on.
func (v *View) Intents() <-chan world.Intent { return v.intents }

// Scene returns the scene graph.
func (v *View) Scene() *scene.Graph { return v.graph }

// Snapshot returns the snapshot currently drawn.
func (v *View) Snapshot() *world.Snapshot { return v.current }

// Cursor returns the cursor hint from the last pointer move.
func (v *View) Cursor() interaction.Cursor { return v.coord.Cursor() }

// Loading returns the loading indicator text, or "" when nothing is loading.
func (v *View) Loading() string { return v.loading }

// Closed reports whether the user asked to quit.
func (v *View) Closed() bool { return v.closed }

// Submit hands a snapshot to the view. It may be called from any goroutine;
// only the latest snapshot before a frame is applied.
func (v *View) Submit(s *world.Snapshot) {
	v.mu.Lock()
	v.pending = s
	v.mu.Unlock()
}

func (v *View) take() *world.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.pending
	v.pending = nil
	return s
}

// Resize queues a viewport change for the next frame.
func (v *View) Resize(width, height int) {
	v.graph.QueueResize(width, height)
}

// Frame runs one frame. dt is the time since the previous frame in seconds.
func (v *View) Frame(dt float32) {
	if v.disposed {
		return
	}

	v.graph.ApplyPendingResize()

	if s := v.take(); s != nil {
		v.apply(s)
	}

	if v.cache.Poll() {
		v.log.Info("atlas applied to new tiles")
	}

	for _, ev := range v.queue.Drain() {
		v.handle(ev)
	}

	v.update(dt)
	v.graph.Render()
}

func (v *View) apply(s *world.Snapshot) {
	if err := s.Validate(); err != nil {
		v.log.Error("dropping malformed snapshot", zap.Error(err))
		return
	}

	if err := v.tiles.Rebuild(s); err != nil {
		v.log.Error("rebuilding tiles", zap.Error(err))
	}
	if err := v.entities.Rebuild(s); err != nil {
		v.log.Error("rebuilding entities", zap.Error(err))
	}
	if err := v.entities.UpdatePlayer(s.Player); err != nil {
		v.log.Error("placing player", zap.Error(err))
	}

	pos, _ := v.entities.PlayerPosition()
	if !v.placed {
		v.graph.Camera().SnapTo(pos)
		v.placed = true
	}
	if _, err := v.arrows.Sync(s, pos); err != nil {
		v.log.Error("rebuilding arrows", zap.Error(err))
	}
	v.coord.SetSnapshot(s)
	v.current = s

	if s.GameOver {
		v.log.Info("game over")
	}
}

func (v *View) handle(ev input.Event) {
	switch ev.Type {
	case input.EventQuit:
		v.closed = true
		return
	case input.EventWindowResize:
		v.graph.QueueResize(ev.Width, ev.Height)
		return
	case input.EventKeyDown:
		if ev.Key == "escape" {
			v.closed = true
		}
		return
	}
	v.graph.Camera().HandleEvent(ev)
	v.coord.HandleEvent(ev)
}

func (v *View) update(dt float32) {
	v.entities.Update()
	if pos, ok := v.entities.PlayerPosition(); ok {
		v.graph.Camera().Track(pos)
		v.graph.Update(dt)
		v.arrows.Update(pos, v.graph.Camera().Camera().Position())
	} else {
		v.graph.Update(dt)
	}
	v.advanceLoading(dt)
}

func (v *View) advanceLoading(dt float32) {
	if !v.cache.Loading() {
		v.loading = ""
		v.loadingTime = 0
		return
	}
	v.loadingTime += dt
	dots := 1 + int(v.loadingTime/loadingStep)%3
	v.loading = "Loading" + strings.Repeat(".", dots)
}

func (v *View) emit(in world.Intent) {
	select {
	case v.intents <- in:
	default:
		v.log.Warn("intent dropped, feed is not keeping up", zap.Stringer("intent", in))
	}
}

// Dispose releases every scene resource and cancels atlas loading. Safe to
// call twice.
func (v *View) Dispose() {
	if v.disposed {
		return
	}
	v.disposed = true

	v.coord.Dispose()
	v.arrows.Dispose()
	v.entities.Dispose()
	v.cache.Dispose()
	v.graph.Dispose()

	v.loading = ""
	v.current = nil
	v.mu.Lock()
	v.pending = nil
	v.mu.Unlock()
}
