package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/olivier-w/barscope/internal/capture"
	"github.com/olivier-w/barscope/internal/config"
	"github.com/olivier-w/barscope/internal/media"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommandAppliesFlags(t *testing.T) {
	out, err := runCommand(t, "config", "--window-size", "32", "--bins", "drop-last", "--play=false")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"size: 32", "bins: drop-last", "play: false", "source: monitor"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommandReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barscope.yaml")
	data := "window:\n  size: 64\nrender:\n  glyph: \"#\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "config", "--config", path, "--glyph", "*")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "size: 64") {
		t.Fatalf("config file value not applied:\n%s", out)
	}
	if !strings.Contains(out, `glyph: '*'`) && !strings.Contains(out, `glyph: "*"`) {
		t.Fatalf("flag should override the config file:\n%s", out)
	}
}

func TestConfigCommandRejectsMissingFile(t *testing.T) {
	_, err := runCommand(t, "config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestInvalidWindowSizeFailsBeforeOpening(t *testing.T) {
	_, err := runCommand(t, "--window-size", "12", "-")
	if err == nil || !strings.Contains(err.Error(), "invalid window size: 12") {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestBindFlagsReportsUnknownFlags(t *testing.T) {
	if err := bindFlags(pflag.NewFlagSet("empty", pflag.ContinueOnError), viper.New()); err == nil {
		t.Fatal("expected errors for unregistered flags")
	}
}

func TestUseTUI(t *testing.T) {
	tests := []struct {
		mode     string
		terminal bool
		want     bool
	}{
		{config.ModeTUI, false, true},
		{config.ModeRaw, true, false},
		{config.ModeAuto, true, true},
		{config.ModeAuto, false, false},
	}
	for _, tt := range tests {
		got, err := useTUI(tt.mode, tt.terminal)
		if err != nil || got != tt.want {
			t.Fatalf("useTUI(%q, %v) = %v, %v; want %v", tt.mode, tt.terminal, got, err, tt.want)
		}
	}
	if _, err := useTUI("gui", true); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

type monoSource struct{}

func (monoSource) ReadFrame() ([]int16, error) { return nil, errors.New("unused") }
func (monoSource) Format() capture.Format      { return capture.Format{SampleRate: 8000, Channels: 1} }
func (monoSource) Close() error                { return nil }

func TestOpenSessionWarnsOnStrideMismatch(t *testing.T) {
	cfg, err := config.Load(config.New())
	if err != nil {
		t.Fatal(err)
	}
	core, logs := observer.New(zapcore.InfoLevel)

	var gotTarget string
	open := func(_ context.Context, target string, opts capture.Options) (capture.Source, capture.Info, error) {
		gotTarget = target
		if opts.Frames != cfg.Capture.Frames {
			t.Fatalf("Frames = %d, want %d", opts.Frames, cfg.Capture.Frames)
		}
		return monoSource{}, capture.Info{Kind: media.KindStdin, Title: "stdin"}, nil
	}

	s, err := openSession(context.Background(), cfg, "-", open, zap.New(core))
	if err != nil {
		t.Fatalf("openSession() error = %v", err)
	}
	if gotTarget != "-" || s.analyzer.WindowSize() != 16 || !readsStdin(s.info) {
		t.Fatalf("unexpected session: target %q, info %+v", gotTarget, s.info)
	}
	if logs.FilterMessage("window stride differs from the capture channel count").Len() != 1 {
		t.Fatalf("expected stride warning, got %v", logs.All())
	}
	if logs.FilterField(zap.String("kind", "stdin")).Len() != 1 {
		t.Fatal("expected source opened entry")
	}
}

func TestOpenSessionPropagatesOpenError(t *testing.T) {
	cfg, err := config.Load(config.New())
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	open := func(context.Context, string, capture.Options) (capture.Source, capture.Info, error) {
		return nil, capture.Info{}, boom
	}
	if _, err := openSession(context.Background(), cfg, "x.mp3", open, zap.NewNop()); !errors.Is(err, boom) {
		t.Fatalf("openSession() error = %v", err)
	}
}
