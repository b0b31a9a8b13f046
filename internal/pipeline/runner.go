package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/olivier-w/barscope/internal/capture"
	"github.com/olivier-w/barscope/internal/viewport"
	"github.com/olivier-w/barscope/internal/visualizer"
)

// DefaultMaxErrors is the number of consecutive capture failures tolerated
// before Run gives up.
const DefaultMaxErrors = 5

// homeCursor moves the terminal cursor to the top-left corner so each frame
// overwrites the previous one.
const homeCursor = "\x1b[H"

// Stats counts what happened during a run.
type Stats struct {
	Reads         int
	Windows       int
	Frames        int
	Dropped       int
	CaptureErrors int
	Skipped       int
}

func (s Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int("reads", s.Reads),
		zap.Int("windows", s.Windows),
		zap.Int("frames", s.Frames),
		zap.Int("dropped", s.Dropped),
		zap.Int("capture_errors", s.CaptureErrors),
		zap.Int("skipped", s.Skipped),
	}
}

// Runner drives the single-threaded loop: read, assemble, analyze, write.
type Runner struct {
	Source    capture.Source
	Assembler *visualizer.Assembler
	Analyzer  *visualizer.Analyzer
	Viewport  viewport.Provider
	Out       io.Writer
	Logger    *zap.Logger

	// MaxErrors caps consecutive capture read failures; 0 uses DefaultMaxErrors.
	MaxErrors int
	// EveryWindow renders every window a read completes instead of only the latest.
	EveryWindow bool
	// Home prefixes each frame with a cursor-home sequence.
	Home bool

	stats Stats
	buf   bytes.Buffer
}

// Run loops until the source ends, ctx is cancelled, or a fatal error occurs.
// A source that ends with io.EOF is a clean finish.
func (r *Runner) Run(ctx context.Context) error {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxErrors := r.MaxErrors
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	defer func() { log.Info("visualizer stopped", r.stats.fields()...) }()

	consecutive := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		samples, err := r.Source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, capture.ErrClosed) && ctx.Err() != nil {
				return nil
			}
			r.stats.CaptureErrors++
			consecutive++
			log.Warn("capture read failed", zap.Error(err), zap.Int("consecutive", consecutive))
			if consecutive >= maxErrors {
				return fmt.Errorf("capture failed %d times in a row: %w", consecutive, err)
			}
			continue
		}
		consecutive = 0
		r.stats.Reads++

		windows := r.Assembler.PushFrame(samples)
		r.stats.Windows += len(windows)
		if len(windows) == 0 {
			continue
		}
		if !r.EveryWindow {
			r.stats.Dropped += len(windows) - 1
			windows = windows[len(windows)-1:]
		}

		for _, w := range windows {
			if err := r.renderWindow(w, log); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) renderWindow(w visualizer.Window, log *zap.Logger) error {
	vp, ok := r.Viewport.Dimensions()
	if !ok {
		r.stats.Skipped++
		log.Debug("no viewport, skipping frame")
		return nil
	}

	frame, err := r.Analyzer.Process(w, vp)
	if err != nil {
		return err
	}

	r.buf.Reset()
	if r.Home {
		r.buf.WriteString(homeCursor)
	}
	if _, err := frame.WriteTo(&r.buf); err != nil {
		return err
	}
	if _, err := r.Out.Write(r.buf.Bytes()); err != nil {
		log.Warn("writing frame failed", zap.Error(err))
		return nil
	}
	r.stats.Frames++
	return nil
}

// Stats returns the counters of the last or current run.
func (r *Runner) Stats() Stats { return r.stats }
