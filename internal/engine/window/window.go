// Package window handles SDL2 window and OpenGL context creation.
package window

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/input"
	"github.com/Faultbox/dungeonview/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
}

// Cursor is a system pointer shape.
type Cursor int

const (
	CursorArrow Cursor = iota
	CursorHand
)

// Window wraps SDL2 window and OpenGL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
	log       *zap.Logger

	cursors map[Cursor]*sdl.Cursor
	cursor  Cursor
}

// New creates a new window with OpenGL context.
func New(cfg Config) (*Window, error) {
	w := &Window{
		config:  cfg,
		log:     logger.Named("window"),
		cursors: make(map[Cursor]*sdl.Cursor),
	}

	w.log.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	// OpenGL 4.1 Core Profile (max supported on macOS)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	var err error
	w.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	if cfg.VSync {
		if err := sdl.GLSetSwapInterval(1); err != nil {
			w.log.Warn("failed to enable VSync", zap.Error(err))
		}
	} else {
		sdl.GLSetSwapInterval(0)
	}

	w.cursors[CursorArrow] = sdl.CreateSystemCursor(sdl.SYSTEM_CURSOR_ARROW)
	w.cursors[CursorHand] = sdl.CreateSystemCursor(sdl.SYSTEM_CURSOR_HAND)

	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)

	return w, nil
}

// Close destroys the window and cleans up SDL2.
func (w *Window) Close() {
	w.log.Info("closing window")

	for _, c := range w.cursors {
		if c != nil {
			sdl.FreeCursor(c)
		}
	}
	w.cursors = nil
	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}

	sdl.Quit()
}

// SwapBuffers swaps the OpenGL buffers.
func (w *Window) SwapBuffers() {
	w.sdlWindow.GLSwap()
}

// GetSize returns the current window size.
func (w *Window) GetSize() (int, int) {
	width, height := w.sdlWindow.GetSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// SetCursor changes the pointer shape if it differs from the current one.
func (w *Window) SetCursor(c Cursor) {
	if c == w.cursor {
		return
	}
	if sc := w.cursors[c]; sc != nil {
		sdl.SetCursor(sc)
		w.cursor = c
	}
}

// PollEvents translates pending SDL events into q.
func (w *Window) PollEvents(q *input.Queue) {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		if ev, ok := translate(e); ok {
			q.Push(ev)
		}
	}
}

func translate(e sdl.Event) (input.Event, bool) {
	switch e := e.(type) {
	case *sdl.QuitEvent:
		return input.Event{Type: input.EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event != sdl.WINDOWEVENT_SIZE_CHANGED && e.Event != sdl.WINDOWEVENT_RESIZED {
			return input.Event{}, false
		}
		return input.Event{Type: input.EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true

	case *sdl.MouseButtonEvent:
		ev := input.Event{X: float32(e.X), Y: float32(e.Y), Button: button(e.Button)}
		if ev.Button == input.ButtonNone {
			return input.Event{}, false
		}
		if e.Type == sdl.MOUSEBUTTONDOWN {
			ev.Type = input.EventPointerDown
		} else {
			ev.Type = input.EventPointerUp
		}
		return ev, true

	case *sdl.MouseMotionEvent:
		return input.Event{
			Type: input.EventPointerMove,
			X:    float32(e.X), Y: float32(e.Y),
			DX: float32(e.XRel), DY: float32(e.YRel),
		}, true

	case *sdl.MouseWheelEvent:
		return input.Event{Type: input.EventWheel, Wheel: float32(e.Y)}, true

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
			return input.Event{}, false
		}
		name := strings.ToLower(sdl.GetKeyName(e.Keysym.Sym))
		return input.Event{Type: input.EventKeyDown, Key: input.Key(name)}, true
	}
	return input.Event{}, false
}

func button(b uint8) input.Button {
	switch b {
	case sdl.BUTTON_LEFT:
		return input.ButtonLeft
	case sdl.BUTTON_MIDDLE:
		return input.ButtonMiddle
	case sdl.BUTTON_RIGHT:
		return input.ButtonRight
	default:
		return input.ButtonNone
	}
}
