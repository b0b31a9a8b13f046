package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/olivier-w/barscope/internal/capture"
	"github.com/olivier-w/barscope/internal/config"
	"github.com/olivier-w/barscope/internal/media"
	"github.com/olivier-w/barscope/internal/visualizer"
)

// session holds everything one visualization needs.
type session struct {
	source    capture.Source
	info      capture.Info
	assembler *visualizer.Assembler
	analyzer  *visualizer.Analyzer
}

// openFunc opens a capture source; replaced in tests.
type openFunc func(ctx context.Context, target string, opts capture.Options) (capture.Source, capture.Info, error)

// openSession validates the analysis settings against the opened source and
// builds the pipeline stages. The caller closes session.source.
func openSession(ctx context.Context, cfg *config.Config, target string, open openFunc, log *zap.Logger) (*session, error) {
	vcfg := cfg.Visualizer()
	asm, err := visualizer.NewAssembler(vcfg)
	if err != nil {
		return nil, err
	}
	an, err := visualizer.NewAnalyzer(vcfg)
	if err != nil {
		return nil, err
	}

	src, info, err := open(ctx, target, cfg.CaptureOptions())
	if err != nil {
		return nil, err
	}
	format := src.Format()
	if vcfg.Stride != format.Channels {
		log.Warn("window stride differs from the capture channel count",
			zap.Int("stride", vcfg.Stride), zap.Int("channels", format.Channels))
	}

	log.Info("source opened",
		zap.String("kind", info.Kind.String()),
		zap.String("title", info.Title),
		zap.Int("sample_rate", format.SampleRate),
		zap.Int("channels", format.Channels),
		zap.Int("window_size", vcfg.WindowSize),
		zap.String("bins", string(vcfg.Bins)),
	)
	return &session{source: src, info: info, assembler: asm, analyzer: an}, nil
}

// useTUI resolves the ui mode; auto picks the TUI only on a terminal.
func useTUI(mode string, stdoutIsTerminal bool) (bool, error) {
	switch mode {
	case config.ModeTUI:
		return true, nil
	case config.ModeRaw:
		return false, nil
	case config.ModeAuto:
		return stdoutIsTerminal, nil
	}
	return false, fmt.Errorf("unknown ui mode %q", mode)
}

// readsStdin reports whether the source occupies stdin, so the TUI must read
// keys from the controlling terminal instead.
func readsStdin(info capture.Info) bool {
	return info.Kind == media.KindStdin
}
