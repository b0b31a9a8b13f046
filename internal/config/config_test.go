package config

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/olivier-w/barscope/internal/visualizer"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	vc := cfg.Visualizer()
	if vc != visualizer.DefaultConfig() {
		t.Fatalf("Visualizer() = %+v, want %+v", vc, visualizer.DefaultConfig())
	}
	if cfg.UI.Mode != ModeAuto || cfg.Log.Level != "info" || !cfg.Capture.Play {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	opts := cfg.CaptureOptions()
	if opts.Format.SampleRate != 44100 || opts.Format.Channels != 2 || opts.Frames != 512 {
		t.Fatalf("CaptureOptions() = %+v", opts)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("BARSCOPE_WINDOW_SIZE", "64")
	t.Setenv("BARSCOPE_RENDER_BINS", "drop-last")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Window.Size != 64 || cfg.Render.Bins != "drop-last" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestStrideFollowsChannels(t *testing.T) {
	v := New()
	v.Set("capture.channels", 1)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Visualizer().Stride; got != 1 {
		t.Fatalf("Stride = %d, want 1", got)
	}

	v.Set("window.stride", 4)
	v.Set("window.channel", 3)
	cfg, err = Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if vc := cfg.Visualizer(); vc.Stride != 4 || vc.Channel != 3 {
		t.Fatalf("Visualizer() = %+v", vc)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"window not power of two", "window.size", 12, "invalid window size: 12"},
		{"window too small", "window.size", 1, "invalid window size: 1"},
		{"channel out of range", "window.channel", 2, "channel 2 out of range"},
		{"unknown bins", "render.bins", "all", "unknown bin policy"},
		{"empty glyph", "render.glyph", "", "single character"},
		{"wide glyph", "render.glyph", "##", "single character"},
		{"zero rate", "capture.sample_rate", 0, "sample rate"},
		{"zero frames", "capture.frames", 0, "frames"},
		{"negative max errors", "capture.max_errors", -1, "max errors"},
		{"log format", "log.format", "xml", "log format"},
		{"ui mode", "ui.mode", "gui", "ui mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateWrapsSizeError(t *testing.T) {
	v := New()
	v.Set("window.size", 24)
	_, err := Load(v)
	var se *visualizer.SizeError
	if !errors.As(err, &se) || se.Size != 24 || !errors.Is(err, visualizer.ErrInvalidWindowSize) {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatal(err)
	}
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	if !strings.Contains(string(out), "every_window: false") {
		t.Fatalf("YAML() missing snake_case keys:\n%s", out)
	}

	var back Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back != *cfg {
		t.Fatalf("round trip = %+v, want %+v", back, *cfg)
	}
}
