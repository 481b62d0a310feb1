package view

import (
	"github.com/Faultbox/dungeonview/internal/config"
	"github.com/Faultbox/dungeonview/internal/engine/camera"
)

// OptionsFrom maps a loaded configuration onto view options.
func OptionsFrom(cfg *config.Config) Options {
	opts := DefaultOptions()

	opts.Scene.Width = cfg.Graphics.Width
	opts.Scene.Height = cfg.Graphics.Height
	opts.Scene.FrustumSize = cfg.Camera.FrustumSize
	opts.Scene.FollowRate = cfg.Camera.FollowRate
	opts.Scene.Thresholds = camera.Thresholds{
		Angle: cfg.Camera.AngleThreshold,
		Pan:   cfg.Camera.PanThreshold,
		Zoom:  cfg.Camera.ZoomThreshold,
	}
	opts.Scene.MinZoom = cfg.Camera.MinZoom
	opts.Scene.MaxZoom = cfg.Camera.MaxZoom

	opts.Tiles.TileSize = cfg.Graphics.TileSize
	opts.Tiles.FogRadius = cfg.Fog.Radius
	opts.Tiles.FogOpacity = cfg.Fog.Opacity
	opts.Tiles.FogTint = cfg.Fog.Tint
	opts.Tiles.FogDesaturate = cfg.Fog.Desaturate

	opts.Atlas.AtlasSize = cfg.Atlas.AtlasSize
	opts.Atlas.GridSize = cfg.Atlas.GridSize
	if cfg.Atlas.IconSize > 0 {
		opts.Atlas.IconSize = cfg.Atlas.IconSize
	}
	return opts
}
