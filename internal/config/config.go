package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds flowviz configuration.
type Config struct {
	Render RenderConfig      `toml:"render"`
	Solid  SolidConfig       `toml:"solid"`
	Icons  map[string]string `toml:"icons"`
	Events EventsConfig      `toml:"events"`
	Log    LogConfig         `toml:"log"`
	Live   LiveConfig        `toml:"live"`
}

// RenderConfig controls the scene and the headless render command.
type RenderConfig struct {
	Renderer    string  `toml:"renderer"` // "vector", "solid"
	Width       int     `toml:"width"`
	Height      int     `toml:"height"`
	NodeRadius  float64 `toml:"node_radius"`
	CurveOffset float64 `toml:"curve_offset"`
	FlowStep    float64 `toml:"flow_step"`
	Threshold   float64 `toml:"drag_threshold"`
	FPS         int     `toml:"fps"`
	Frames      int     `toml:"frames"`
	Format      string  `toml:"format"` // "svg", "png"
	Concurrency int     `toml:"concurrency"`
}

// SolidConfig controls the volumetric backend.
type SolidConfig struct {
	Scale       [3]float64        `toml:"scale"`
	Distance    float64           `toml:"camera_distance"`
	FOV         float64           `toml:"fov"`
	MeshHalf    float64           `toml:"mesh_half"`
	Highlight   []string          `toml:"highlight"`
	TextureDir  string            `toml:"texture_dir"`
	TextureSize int               `toml:"texture_size"`
	Textures    map[string]string `toml:"textures"`
}

// EventsConfig controls the JSONL event log.
type EventsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	RecordMoves bool   `toml:"record_moves"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console", "json"
}

// LiveConfig controls the browser front end.
type LiveConfig struct {
	Addr  string `toml:"addr"`
	Watch bool   `toml:"watch"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Renderer:    "vector",
			Width:       800,
			Height:      600,
			NodeRadius:  30,
			CurveOffset: 0.5,
			FlowStep:    0.015,
			Threshold:   3,
			FPS:         60,
			Frames:      1,
			Format:      "svg",
			Concurrency: 4,
		},
		Solid: SolidConfig{
			Scale:       [3]float64{0.05, -0.05, 0.05},
			Distance:    20,
			FOV:         60,
			MeshHalf:    0.6,
			Highlight:   []string{"database", "service"},
			TextureSize: 64,
		},
		Icons: map[string]string{
			"service":  "S",
			"database": "DB",
			"cache":    "C",
			"queue":    "Q",
			"user":     "U",
		},
		Events: EventsConfig{Enabled: false, RecordMoves: false},
		Log:    LogConfig{Level: "warn", Format: "console"},
		Live:   LiveConfig{Addr: "127.0.0.1:7070", Watch: true},
	}
}

// ConfigDir returns the flowviz config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flowviz")
}

// Path returns the user config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ProjectFile is the per-project override looked up from the working
// directory upwards.
const ProjectFile = ".flowviz.toml"

// Load reads configuration. An explicit path must exist. With no path the
// user config is read if present, then the nearest project file overlays it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	if err := decodeFile(Path(), cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if project := findProjectConfig(); project != "" {
		if err := decodeFile(project, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// findProjectConfig walks up from the working directory looking for
// ProjectFile.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Validate rejects settings no command can work with.
func (c *Config) Validate() error {
	switch c.Render.Renderer {
	case "vector", "solid":
	default:
		return fmt.Errorf("render.renderer: unknown renderer %q", c.Render.Renderer)
	}
	switch c.Render.Format {
	case "svg", "png":
	default:
		return fmt.Errorf("render.format: unknown format %q", c.Render.Format)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render: size must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.FlowStep <= 0 || c.Render.FlowStep >= 1 {
		return fmt.Errorf("render.flow_step must be in (0,1), got %g", c.Render.FlowStep)
	}
	return nil
}

// Save writes the config to the user config path.
func Save(cfg *Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil
	}
	return Save(Default())
}
