// Package config handles view configuration loading and management.
package config

import "time"

// Config holds all client settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	Fog      FogConfig      `yaml:"fog"`
	Atlas    AtlasConfig    `yaml:"atlas"`
	Feed     FeedConfig     `yaml:"feed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FPSLimit   int     `yaml:"fps_limit"`
	TileSize   float32 `yaml:"tile_size"` // world units per grid cell
}

// CameraConfig holds orbit camera and drag detection settings.
type CameraConfig struct {
	FrustumSize    float32 `yaml:"frustum_size"`    // orthographic view height in world units
	FollowRate     float32 `yaml:"follow_rate"`     // exponential follow rate per second
	AngleThreshold float32 `yaml:"angle_threshold"` // radians
	PanThreshold   float32 `yaml:"pan_threshold"`   // world units
	ZoomThreshold  float32 `yaml:"zoom_threshold"`  // relative zoom change
	MinZoom        float32 `yaml:"min_zoom"`
	MaxZoom        float32 `yaml:"max_zoom"`
}

// FogConfig controls which unexplored cells are drawn and how.
type FogConfig struct {
	Radius     int     `yaml:"radius"` // Chebyshev distance from an explored cell
	Opacity    float32 `yaml:"opacity"`
	Tint       float32 `yaml:"tint"`
	Desaturate float32 `yaml:"desaturate"`
}

// AtlasConfig holds texture atlas service settings.
type AtlasConfig struct {
	ServiceURL string        `yaml:"service_url"`
	Timeout    time.Duration `yaml:"timeout"`
	AtlasSize  int           `yaml:"atlas_size"`
	GridSize   int           `yaml:"grid_size"`
	IconSize   int           `yaml:"icon_size"`
	Disabled   bool          `yaml:"disabled"` // fallback icons only
}

// FeedConfig holds state feed connection settings.
type FeedConfig struct {
	URL         string        `yaml:"url"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			TileSize:   1,
		},
		Camera: CameraConfig{
			FrustumSize:    15,
			FollowRate:     4,
			AngleThreshold: 0.01,
			PanThreshold:   0.05,
			ZoomThreshold:  0.01,
			MinZoom:        0.25,
			MaxZoom:        4,
		},
		Fog: FogConfig{
			Radius:     1,
			Opacity:    0.55,
			Tint:       0.45,
			Desaturate: 0.6,
		},
		Atlas: AtlasConfig{
			ServiceURL: "http://127.0.0.1:8000",
			Timeout:    30 * time.Second,
			AtlasSize:  1024,
			GridSize:   4,
			IconSize:   64,
		},
		Feed: FeedConfig{
			URL:         "ws://127.0.0.1:8000/ws/game",
			DialTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
