package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if cfg.Graphics.TileSize != 1 {
		t.Errorf("expected tile size 1, got %v", cfg.Graphics.TileSize)
	}

	if cfg.Camera.FrustumSize != 15 {
		t.Errorf("expected frustum size 15, got %v", cfg.Camera.FrustumSize)
	}
	if cfg.Camera.AngleThreshold != 0.01 {
		t.Errorf("expected angle threshold 0.01, got %v", cfg.Camera.AngleThreshold)
	}

	if cfg.Fog.Radius != 1 {
		t.Errorf("expected fog radius 1, got %d", cfg.Fog.Radius)
	}

	if cfg.Atlas.AtlasSize != 1024 || cfg.Atlas.GridSize != 4 {
		t.Errorf("expected atlas 1024/4, got %d/%d", cfg.Atlas.AtlasSize, cfg.Atlas.GridSize)
	}
	if cfg.Atlas.Timeout != 30*time.Second {
		t.Errorf("expected atlas timeout 30s, got %v", cfg.Atlas.Timeout)
	}

	if cfg.Feed.URL != "ws://127.0.0.1:8000/ws/game" {
		t.Errorf("unexpected feed url %s", cfg.Feed.URL)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  tile_size: 2

camera:
  frustum_size: 20
  follow_rate: 6

fog:
  radius: 2
  opacity: 0.4

atlas:
  service_url: "http://atlas.local:9000"
  timeout: 5s
  disabled: true

feed:
  url: "ws://game.local/ws"

logging:
  level: "debug"
  log_file: "view.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.TileSize != 2 {
		t.Errorf("expected tile size 2, got %v", cfg.Graphics.TileSize)
	}
	if !cfg.Graphics.VSync {
		t.Error("vsync not in file, default should survive")
	}
	if cfg.Camera.FrustumSize != 20 || cfg.Camera.FollowRate != 6 {
		t.Errorf("unexpected camera config %+v", cfg.Camera)
	}
	if cfg.Camera.PanThreshold != 0.05 {
		t.Errorf("pan threshold not in file, expected default 0.05, got %v", cfg.Camera.PanThreshold)
	}
	if cfg.Fog.Radius != 2 || cfg.Fog.Opacity != 0.4 {
		t.Errorf("unexpected fog config %+v", cfg.Fog)
	}
	if cfg.Atlas.ServiceURL != "http://atlas.local:9000" || cfg.Atlas.Timeout != 5*time.Second || !cfg.Atlas.Disabled {
		t.Errorf("unexpected atlas config %+v", cfg.Atlas)
	}
	if cfg.Feed.URL != "ws://game.local/ws" {
		t.Errorf("unexpected feed url %s", cfg.Feed.URL)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "view.log" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
		{"zero tile size", func(c *Config) { c.Graphics.TileSize = 0 }},
		{"negative fog radius", func(c *Config) { c.Fog.Radius = -1 }},
		{"inverted zoom", func(c *Config) { c.Camera.MinZoom = 3; c.Camera.MaxZoom = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Fog.Radius = 3
	cfg.Feed.URL = "ws://saved/ws"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Fog.Radius != 3 || loaded.Feed.URL != "ws://saved/ws" {
		t.Errorf("saved values not restored: fog=%d feed=%s", loaded.Fog.Radius, loaded.Feed.URL)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "server flag",
			setup: func() { *flagServer = "ws://custom:7000/ws" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Feed.URL != "ws://custom:7000/ws" {
					t.Errorf("expected feed url override, got %s", cfg.Feed.URL)
				}
			},
			teardown: func() { *flagServer = "" },
		},
		{
			name:  "atlas flags",
			setup: func() { *flagAtlas = "http://atlas:1"; *flagNoAtlas = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Atlas.ServiceURL != "http://atlas:1" {
					t.Errorf("expected atlas url override, got %s", cfg.Atlas.ServiceURL)
				}
				if !cfg.Atlas.Disabled {
					t.Error("expected atlas disabled with no-atlas flag")
				}
			},
			teardown: func() { *flagAtlas = ""; *flagNoAtlas = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name:  "width and height flags",
			setup: func() { *flagWidth = 2560; *flagHeight = 1440 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() { *flagWidth = 0; *flagHeight = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}
