// Package game implements the main loop of the dungeon view client.
package game

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/config"
	"github.com/Faultbox/dungeonview/internal/engine/renderer"
	"github.com/Faultbox/dungeonview/internal/engine/window"
	"github.com/Faultbox/dungeonview/internal/game/atlas"
	"github.com/Faultbox/dungeonview/internal/game/interaction"
	"github.com/Faultbox/dungeonview/internal/game/view"
	"github.com/Faultbox/dungeonview/internal/logger"
	"github.com/Faultbox/dungeonview/internal/network"
)

// Title is the window title.
const Title = "DungeonView"

// Game owns the window, the view and the state feed.
type Game struct {
	cfg    *config.Config
	window *window.Window
	view   *view.View
	feed   *network.Client
	log    *zap.Logger

	cancel context.CancelFunc
}

// New creates the window and GL context, then the view on top of them.
func New(cfg *config.Config) (*Game, error) {
	log := logger.Named("game")
	log.Info("initializing",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("feed", cfg.Feed.URL),
	)

	g := &Game{cfg: cfg, log: log}

	var err error
	g.window, err = window.New(window.Config{
		Title:      Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context created by the window.
	dev, err := renderer.New(g.window.GetSize())
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	var svc atlas.Service
	if !cfg.Atlas.Disabled {
		svc = atlas.NewHTTPService(cfg.Atlas.ServiceURL, cfg.Atlas.Timeout)
	}

	g.view = view.New(dev, svc, view.OptionsFrom(cfg))
	g.feed = network.New(cfg.Feed.URL, cfg.Feed.DialTimeout)

	log.Info("initialized")
	return g, nil
}

// Run connects the feed and drives frames until the window is closed.
func (g *Game) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	defer cancel()

	if err := g.feed.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect feed: %w", err)
	}
	go func() {
		if err := g.feed.Run(ctx, g.view); err != nil && ctx.Err() == nil {
			g.log.Error("feed stopped", zap.Error(err))
		}
	}()
	go g.feed.Pump(ctx, g.view.Intents())

	var frameDur time.Duration
	if g.cfg.Graphics.FPSLimit > 0 {
		frameDur = time.Second / time.Duration(g.cfg.Graphics.FPSLimit)
	}

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	g.log.Info("starting loop")

	title := Title

	for !g.view.Closed() {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		g.window.PollEvents(g.view.Input())
		g.view.Frame(float32(dt))
		if g.view.Closed() {
			break
		}

		g.window.SetCursor(cursorFor(g.view.Cursor()))
		if t := titleFor(g.view.Loading()); t != title {
			g.window.SetTitle(t)
			title = t
		}
		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			g.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameDur > 0 {
			if spent := time.Since(now); spent < frameDur {
				time.Sleep(frameDur - spent)
			}
		}
	}

	return nil
}

// Close releases the view, the feed and the window.
func (g *Game) Close() {
	g.log.Info("closing")

	if g.cancel != nil {
		g.cancel()
	}
	if g.feed != nil {
		g.feed.Disconnect()
	}
	if g.view != nil {
		g.view.Dispose()
	}
	if g.window != nil {
		g.window.Close()
	}
}

func cursorFor(c interaction.Cursor) window.Cursor {
	if c == interaction.CursorPointer {
		return window.CursorHand
	}
	return window.CursorArrow
}

// titleFor shows the atlas loading indicator in the window title.
func titleFor(loading string) string {
	if loading == "" {
		return Title
	}
	return Title + " - " + loading
}
