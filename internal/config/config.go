package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/olivier-w/barscope/internal/capture"
	"github.com/olivier-w/barscope/internal/visualizer"
)

// EnvPrefix is prepended to every environment override, e.g. BARSCOPE_WINDOW_SIZE.
const EnvPrefix = "BARSCOPE"

// UI modes.
const (
	ModeAuto = "auto"
	ModeTUI  = "tui"
	ModeRaw  = "raw"
)

// Config is the effective application configuration.
type Config struct {
	Window  WindowConfig  `mapstructure:"window" yaml:"window"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
}

// WindowConfig shapes the analysis window.
type WindowConfig struct {
	Size int `mapstructure:"size" yaml:"size"`
	// Stride 0 follows capture.channels.
	Stride  int `mapstructure:"stride" yaml:"stride"`
	Channel int `mapstructure:"channel" yaml:"channel"`
}

// RenderConfig controls frame output.
type RenderConfig struct {
	Bins  string `mapstructure:"bins" yaml:"bins"`
	Glyph string `mapstructure:"glyph" yaml:"glyph"`
	// Width and Height override the terminal size when non-zero.
	Width       int  `mapstructure:"width" yaml:"width"`
	Height      int  `mapstructure:"height" yaml:"height"`
	EveryWindow bool `mapstructure:"every_window" yaml:"every_window"`
}

// CaptureConfig describes the input stream.
type CaptureConfig struct {
	// Source is used when no source argument is given.
	Source     string `mapstructure:"source" yaml:"source"`
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int    `mapstructure:"channels" yaml:"channels"`
	Frames     int    `mapstructure:"frames" yaml:"frames"`
	Play       bool   `mapstructure:"play" yaml:"play"`
	MaxErrors  int    `mapstructure:"max_errors" yaml:"max_errors"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// UIConfig selects the presentation.
type UIConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// New returns a viper instance with defaults and environment overrides
// registered. Flags are bound by the caller.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	def := visualizer.DefaultConfig()

	v.SetDefault("window.size", def.WindowSize)
	v.SetDefault("window.stride", 0)
	v.SetDefault("window.channel", def.Channel)

	v.SetDefault("render.bins", string(def.Bins))
	v.SetDefault("render.glyph", string(def.Glyph))
	v.SetDefault("render.width", 0)
	v.SetDefault("render.height", 0)
	v.SetDefault("render.every_window", false)

	v.SetDefault("capture.source", "monitor")
	v.SetDefault("capture.sample_rate", 44100)
	v.SetDefault("capture.channels", def.Stride)
	v.SetDefault("capture.frames", 512)
	v.SetDefault("capture.play", true)
	v.SetDefault("capture.max_errors", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("ui.mode", ModeAuto)
}

// AddConfigPaths points v at barscope.yaml in the user config directory and ./configs.
func AddConfigPaths(v *viper.Viper) {
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "barscope"))
	}
	v.AddConfigPath("./configs")
	v.SetConfigName("barscope")
	v.SetConfigType("yaml")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("capture sample rate must be positive")
	}
	if c.Capture.Channels <= 0 {
		return fmt.Errorf("capture channels must be positive")
	}
	if c.Capture.Frames <= 0 {
		return fmt.Errorf("capture frames must be positive")
	}
	if c.Capture.MaxErrors < 0 {
		return fmt.Errorf("capture max errors cannot be negative")
	}
	if utf8.RuneCountInString(c.Render.Glyph) != 1 {
		return fmt.Errorf("render glyph must be a single character, got %q", c.Render.Glyph)
	}
	if c.Render.Width < 0 || c.Render.Height < 0 {
		return fmt.Errorf("render size cannot be negative")
	}
	if err := c.Visualizer().Validate(); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.UI.Mode {
	case ModeAuto, ModeTUI, ModeRaw:
	default:
		return fmt.Errorf("unknown ui mode %q", c.UI.Mode)
	}
	return nil
}

// Visualizer derives the analysis configuration.
func (c *Config) Visualizer() visualizer.Config {
	stride := c.Window.Stride
	if stride == 0 {
		stride = c.Capture.Channels
	}
	glyph, _ := utf8.DecodeRuneInString(c.Render.Glyph)
	if glyph == utf8.RuneError {
		glyph = 0
	}
	return visualizer.Config{
		WindowSize: c.Window.Size,
		Stride:     stride,
		Channel:    c.Window.Channel,
		Bins:       visualizer.BinPolicy(c.Render.Bins),
		Glyph:      glyph,
	}
}

// CaptureOptions derives the options for capture.Open.
func (c *Config) CaptureOptions() capture.Options {
	return capture.Options{
		Format: capture.Format{SampleRate: c.Capture.SampleRate, Channels: c.Capture.Channels},
		Frames: c.Capture.Frames,
		Play:   c.Capture.Play,
	}
}

// YAML renders the configuration in config-file form.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
