package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/olivier-w/barscope/internal/config"
)

// New builds a logger from cfg writing to stderr, or to cfg.File when set.
// The returned close function flushes and releases the log file.
func New(cfg config.LogConfig) (*zap.Logger, func() error, error) {
	if cfg.File == "" {
		return build(cfg, zapcore.Lock(os.Stderr))
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	log, sync, err := build(cfg, zapcore.Lock(f))
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return log, func() error {
		sync()
		return f.Close()
	}, nil
}

// NewTUI builds a logger that never writes to the terminal: it logs to
// cfg.File when set and discards otherwise.
func NewTUI(cfg config.LogConfig) (*zap.Logger, func() error, error) {
	if cfg.File == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}
	return New(cfg)
}

// NewWriter builds a logger writing to w.
func NewWriter(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	log, _, err := build(cfg, zapcore.AddSync(w))
	return log, err
}

func build(cfg config.LogConfig, ws zapcore.WriteSyncer) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	log := zap.New(zapcore.NewCore(enc, ws, level))
	return log, log.Sync, nil
}
