package quads

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig holds the window and runtime settings for Run and RunHeadless.
// It can be loaded from YAML; unset keys keep their defaults.
type RunConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	ShowFPS   bool   `yaml:"show_fps"`
	Resizable bool   `yaml:"resizable"`

	// ClearColor is "#rrggbb", "#rrggbbaa" or a color name. Empty means
	// DefaultClearColor.
	ClearColor string `yaml:"clear_color"`

	// Texture is the sprite image path. Empty lets the program supply one.
	Texture  string  `yaml:"texture"`
	Sprites  int     `yaml:"sprites"`
	Seed     uint64  `yaml:"seed"`
	MaxSpeed float64 `yaml:"max_speed"`

	Debug         bool   `yaml:"debug"`
	LogLevel      string `yaml:"log_level"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	Script        string `yaml:"script"`

	// Headless runs against the in-memory backend for Frames ticks at
	// FrameRate ticks per second.
	Headless  bool `yaml:"headless"`
	Frames    int  `yaml:"frames"`
	FrameRate int  `yaml:"frame_rate"`
}

// DefaultRunConfig returns the settings used when no file is given.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Title:         "quads",
		Width:         600,
		Height:        400,
		Sprites:       1000,
		Seed:          1,
		MaxSpeed:      200,
		LogLevel:      "info",
		ScreenshotDir: DefaultScreenshotDir,
		Frames:        120,
		FrameRate:     60,
	}
}

// ParseRunConfig decodes YAML over the defaults and validates the result.
func ParseRunConfig(data []byte) (RunConfig, error) {
	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("quads: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// LoadRunConfig reads a YAML config file.
func LoadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("quads: load config: %w", err)
	}
	cfg, err := ParseRunConfig(data)
	if err != nil {
		return RunConfig{}, fmt.Errorf("%w (%s)", err, path)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c RunConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("quads: config: %w: %dx%d", ErrInvalidViewport, c.Width, c.Height)
	case c.Sprites < 0:
		return fmt.Errorf("quads: config: sprites %d is negative", c.Sprites)
	case c.MaxSpeed < 0:
		return fmt.Errorf("quads: config: max_speed %g is negative", c.MaxSpeed)
	case c.Frames < 0:
		return fmt.Errorf("quads: config: frames %d is negative", c.Frames)
	case c.FrameRate < 0:
		return fmt.Errorf("quads: config: frame_rate %d is negative", c.FrameRate)
	}
	if _, err := c.Clear(); err != nil {
		return fmt.Errorf("quads: config: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("quads: config: %w", err)
	}
	return nil
}

// Clear parses ClearColor.
func (c RunConfig) Clear() (Color, error) { return ParseColor(c.ClearColor) }

// Level parses LogLevel ("debug", "info", "warn", "error"). Empty means info.
func (c RunConfig) Level() (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Logger returns a text logger writing to w at the configured level. Debug
// forces debug level.
func (c RunConfig) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Interval returns the headless tick interval.
func (c RunConfig) Interval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}
