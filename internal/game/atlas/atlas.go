// Package atlas resolves cell and entity appearances to textures.
//
// A Cache owns every texture the view uses. Cell types resolve to a
// sub-rectangle of a server-generated atlas when one is loaded for the
// current theme, otherwise to a procedurally drawn icon or a solid color.
// Atlas generation runs in the background; its result is applied on the
// render thread by Poll.
package atlas

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/engine/gpu"
	"github.com/Faultbox/dungeonview/internal/engine/texture"
	"github.com/Faultbox/dungeonview/internal/game/world"
	"github.com/Faultbox/dungeonview/internal/logger"
)

// UVRect is a cell's region inside an atlas, in 0..1 texture space with the
// origin at the top-left of the image.
type UVRect struct {
	X float32 `json:"uv_x"`
	Y float32 `json:"uv_y"`
	W float32 `json:"uv_width"`
	H float32 `json:"uv_height"`
}

// Atlas is one uploaded atlas texture and its UV table.
type Atlas struct {
	ID      string
	Texture gpu.TextureID
	Cells   map[string]UVRect
}

// AppearanceKind is how a ref is drawn.
type AppearanceKind int

const (
	// AppearanceSolid is a plain color texture.
	AppearanceSolid AppearanceKind = iota
	// AppearanceFallback is a drawn icon on the cell color.
	AppearanceFallback
	// AppearanceAtlas is a region of the current atlas.
	AppearanceAtlas
)

func (k AppearanceKind) String() string {
	switch k {
	case AppearanceAtlas:
		return "atlas"
	case AppearanceFallback:
		return "fallback"
	default:
		return "solid"
	}
}

// Appearance is the resolved, cached decision for one ref.
type Appearance struct {
	Kind AppearanceKind
	UV   UVRect
	Icon texture.IconSpec
	// Color is used by AppearanceSolid.
	Color color.RGBA
}

// View is a texture handle plus the UV transform that selects the region
// to sample. Views share their texture; they never own it.
type View struct {
	Kind    AppearanceKind
	Texture gpu.TextureID
	Offset  mgl32.Vec2
	Repeat  mgl32.Vec2
}

// Apply sets the material's texture and UV transform.
func (v View) Apply(m *gpu.Material) {
	m.Texture = v.Texture
	m.UVOffset = v.Offset
	m.UVRepeat = v.Repeat
}

// Ref describes something to texture.
type Ref struct {
	// Key and AltKey are looked up in the atlas; empty Key never uses the atlas.
	Key        string
	AltKey     string
	Icon       string
	Background color.RGBA
	Foreground color.RGBA
}

var (
	defaultCellColor = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 255}
	white            = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// CellRef builds the ref for a terrain cell.
func CellRef(c world.CellType) Ref {
	return Ref{
		Key:        c.Key(),
		AltKey:     c.Name,
		Icon:       c.Icon,
		Background: texture.ParseHexOr(c.MapColor, defaultCellColor),
		Foreground: white,
	}
}

// IconRef builds a ref for an entity icon on a solid background.
func IconRef(icon string, bg color.RGBA) Ref {
	return Ref{Icon: icon, Background: bg, Foreground: texture.Contrast(bg)}
}

func (r Ref) id() string {
	if r.Key != "" {
		return r.Key
	}
	return "icon:" + r.Icon + ":" + texture.Hex(r.Background)
}

// Theme identifies which atlas a snapshot wants.
type Theme struct {
	GeneratorID string
	Description string
}

// ThemeOf returns the atlas theme of a snapshot.
func ThemeOf(s *world.Snapshot) Theme {
	t := Theme{GeneratorID: s.GeneratorID, Description: s.ThemeDescription}
	if t.GeneratorID == "" {
		t.GeneratorID = "default"
	}
	if t.Description == "" {
		t.Description = s.Title
	}
	if t.Description == "" {
		t.Description = "Generic fantasy world"
	}
	return t
}

// Options configures a Cache.
type Options struct {
	IconSize  int
	Padding   int
	AtlasSize int
	GridSize  int
}

// DefaultOptions matches the texture service defaults.
func DefaultOptions() Options {
	return Options{IconSize: 64, Padding: 8, AtlasSize: 1024, GridSize: 4}
}

type appearanceKey struct {
	atlasID string
	ref     string
}

type loadResult struct {
	theme Theme
	resp  *Response
	err   error
}

// Cache owns all textures. Every method except the background loader runs on
// the render thread.
type Cache struct {
	dev  gpu.Device
	svc  Service
	opts Options
	log  *zap.Logger

	textures    map[string]gpu.TextureID
	atlases     map[string]*Atlas // by generator id
	current     *Atlas
	appearances map[appearanceKey]Appearance

	loading  *Theme
	cancel   context.CancelFunc
	results  chan loadResult
	fallback bool
	disposed atomic.Bool
}

// New creates a cache. A nil service puts the cache in fallback-only mode.
func New(dev gpu.Device, svc Service, opts Options) *Cache {
	if opts.IconSize <= 0 {
		opts.IconSize = DefaultOptions().IconSize
	}
	return &Cache{
		dev:         dev,
		svc:         svc,
		opts:        opts,
		log:         logger.Named("atlas"),
		textures:    make(map[string]gpu.TextureID),
		atlases:     make(map[string]*Atlas),
		appearances: make(map[appearanceKey]Appearance),
		results:     make(chan loadResult, 1),
		fallback:    svc == nil,
	}
}

// FallbackOnly reports whether atlases are disabled for this session.
func (c *Cache) FallbackOnly() bool { return c.fallback }

// Loading reports whether an atlas load is in flight.
func (c *Cache) Loading() bool { return c.loading != nil }

// Current returns the atlas in use, or nil.
func (c *Cache) Current() *Atlas { return c.current }

// Request starts loading the atlas for theme unless it is already loaded or
// loading. It never blocks.
func (c *Cache) Request(theme Theme, cells []world.CellType) {
	if c.fallback || c.disposed.Load() {
		return
	}
	if a, ok := c.atlases[theme.GeneratorID]; ok {
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.loading = nil
		c.current = a
		return
	}
	if c.loading != nil && c.loading.GeneratorID == theme.GeneratorID {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	// Regions of another theme's atlas must not leak into this one.
	c.current = nil

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.loading = &theme

	req := Request{
		GeneratorID:      theme.GeneratorID,
		ThemeDescription: theme.Description,
		CellTypes:        cells,
		AtlasSize:        c.opts.AtlasSize,
		GridSize:         c.opts.GridSize,
	}
	c.log.Info("requesting texture atlas",
		zap.String("generator", theme.GeneratorID),
		zap.Int("cell_types", len(cells)),
	)

	results := c.results
	go func() {
		resp, err := c.svc.Generate(ctx, req)
		select {
		case results <- loadResult{theme: theme, resp: resp, err: err}:
		case <-ctx.Done():
		}
	}()
}

// Poll applies a finished atlas load, if any. It returns true when a new
// atlas became current. Tiles built before that keep their old textures.
func (c *Cache) Poll() bool {
	if c.disposed.Load() {
		return false
	}
	select {
	case res := <-c.results:
		return c.apply(res)
	default:
		return false
	}
}

func (c *Cache) apply(res loadResult) bool {
	if c.loading == nil || c.loading.GeneratorID != res.theme.GeneratorID {
		return false // superseded
	}
	c.loading = nil
	c.cancel()
	c.cancel = nil

	if res.err == nil && res.resp == nil {
		res.err = fmt.Errorf("empty atlas response")
	}
	if res.err != nil {
		c.enterFallback(res.err)
		return false
	}

	tex, err := c.dev.CreateTexture(texture.ImageToRGBA(res.resp.Image))
	if err != nil {
		c.enterFallback(fmt.Errorf("uploading atlas: %w", err))
		return false
	}

	a := &Atlas{ID: res.resp.AtlasID, Texture: tex, Cells: res.resp.Cells}
	c.atlases[res.theme.GeneratorID] = a
	c.current = a
	c.log.Info("texture atlas ready",
		zap.String("atlas", a.ID),
		zap.Int("cells", len(a.Cells)),
	)
	return true
}

// enterFallback disables atlases for the rest of the session.
func (c *Cache) enterFallback(err error) {
	if c.fallback {
		return
	}
	c.fallback = true
	c.current = nil
	c.log.Warn("texture atlas unavailable, using fallback textures", zap.Error(err))
}

// Resolve returns the view for ref, creating fallback textures on demand.
// A disposed cache resolves to an empty view.
func (c *Cache) Resolve(ref Ref) View {
	if c.disposed.Load() {
		return View{}
	}
	key := appearanceKey{ref: ref.id()}
	if c.current != nil {
		key.atlasID = c.current.ID
	}

	app, ok := c.appearances[key]
	if !ok {
		app = c.classify(ref)
		c.appearances[key] = app
	}

	switch app.Kind {
	case AppearanceAtlas:
		return View{
			Kind:    AppearanceAtlas,
			Texture: c.current.Texture,
			Offset:  mgl32.Vec2{app.UV.X, app.UV.Y},
			Repeat:  mgl32.Vec2{app.UV.W, app.UV.H},
		}
	case AppearanceFallback:
		return c.owned(AppearanceFallback, app.Icon.Key(), func() *image.RGBA {
			return texture.RenderIcon(app.Icon)
		})
	default:
		return c.owned(AppearanceSolid, texture.SolidKey(app.Color, c.opts.IconSize), func() *image.RGBA {
			return texture.Solid(c.opts.IconSize, app.Color)
		})
	}
}

func (c *Cache) classify(ref Ref) Appearance {
	if c.current != nil && ref.Key != "" {
		if uv, ok := c.current.Cells[ref.Key]; ok {
			return Appearance{Kind: AppearanceAtlas, UV: uv}
		}
		if uv, ok := c.current.Cells[ref.AltKey]; ok && ref.AltKey != "" {
			return Appearance{Kind: AppearanceAtlas, UV: uv}
		}
		c.log.Debug("no atlas region for cell, using fallback", zap.String("key", ref.Key))
	}
	if ref.Icon != "" {
		return Appearance{
			Kind: AppearanceFallback,
			Icon: texture.IconSpec{
				Icon:       ref.Icon,
				Size:       c.opts.IconSize,
				Background: ref.Background,
				Foreground: ref.Foreground,
				Padding:    c.opts.Padding,
			},
		}
	}
	return Appearance{Kind: AppearanceSolid, Color: ref.Background}
}

// owned returns a full-texture view of a cached procedural texture.
func (c *Cache) owned(kind AppearanceKind, key string, render func() *image.RGBA) View {
	tex, ok := c.textures[key]
	if !ok {
		var err error
		tex, err = c.dev.CreateTexture(render())
		if err != nil {
			c.log.Debug("creating texture failed", zap.String("key", key), zap.Error(err))
			return View{Kind: kind, Repeat: mgl32.Vec2{1, 1}}
		}
		c.textures[key] = tex
	}
	return View{Kind: kind, Texture: tex, Repeat: mgl32.Vec2{1, 1}}
}

// Textures returns the number of textures the cache owns.
func (c *Cache) Textures() int {
	n := len(c.textures)
	for _, a := range c.atlases {
		if a.Texture != 0 {
			n++
		}
	}
	return n
}

// Dispose cancels any load and deletes every texture. Safe to call twice.
func (c *Cache) Dispose() {
	if c.disposed.Swap(true) {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = nil

	for _, tex := range c.textures {
		c.dev.DeleteTexture(tex)
	}
	for _, a := range c.atlases {
		c.dev.DeleteTexture(a.Texture)
	}
	c.textures = nil
	c.atlases = nil
	c.appearances = nil
	c.current = nil
}
