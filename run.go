package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/olivier-w/barscope/internal/capture"
	"github.com/olivier-w/barscope/internal/config"
	"github.com/olivier-w/barscope/internal/logging"
	"github.com/olivier-w/barscope/internal/pipeline"
	"github.com/olivier-w/barscope/internal/ui"
	"github.com/olivier-w/barscope/internal/viewport"
)

func run(ctx context.Context, cfg *config.Config, target string) error {
	tui, err := useTUI(cfg.UI.Mode, term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		return err
	}

	newLogger := logging.New
	if tui {
		newLogger = logging.NewTUI
	}
	log, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := openSession(ctx, cfg, target, capture.Open, log)
	if err != nil {
		return err
	}
	defer s.source.Close()

	if tui {
		return runTUI(ctx, cfg, s, log)
	}
	return runRaw(ctx, cfg, s, log)
}

func runRaw(ctx context.Context, cfg *config.Config, s *session, log *zap.Logger) error {
	// unblock a pending read on interrupt
	stop := context.AfterFunc(ctx, func() { s.source.Close() })
	defer stop()

	r := &pipeline.Runner{
		Source:    s.source,
		Assembler: s.assembler,
		Analyzer:  s.analyzer,
		Viewport: viewport.Override{
			Base:   viewport.Stdout(),
			Width:  cfg.Render.Width,
			Height: cfg.Render.Height,
		},
		Out:         os.Stdout,
		Logger:      log,
		MaxErrors:   cfg.Capture.MaxErrors,
		EveryWindow: cfg.Render.EveryWindow,
		Home:        term.IsTerminal(int(os.Stdout.Fd())),
	}
	return r.Run(ctx)
}

func runTUI(ctx context.Context, cfg *config.Config, s *session, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pipeline.Event, 1)
	go func() {
		dropped := pipeline.Assemble(ctx, s.source, s.assembler, events)
		log.Info("capture stopped", zap.Int("dropped_windows", dropped))
	}()

	opts := ui.Options{
		Title:     s.info.Title,
		Analyzer:  s.analyzer,
		Events:    events,
		Width:     cfg.Render.Width,
		Height:    cfg.Render.Height,
		MaxErrors: cfg.Capture.MaxErrors,
		Logger:    log,
	}
	if p, ok := s.source.(capture.Progress); ok {
		opts.Progress = p
	}
	if d, ok := s.source.(interface{ Dropped() int64 }); ok {
		opts.Dropped = d.Dropped
	}

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if readsStdin(s.info) {
		progOpts = append(progOpts, tea.WithInputTTY())
	}

	final, err := tea.NewProgram(ui.New(opts), progOpts...).Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("running ui: %w", err)
	}
	cancel()
	s.source.Close()

	if m, ok := final.(ui.Model); ok {
		log.Info("visualizer stopped", zap.Int("frames", m.Frames()))
		return m.Err()
	}
	return nil
}
