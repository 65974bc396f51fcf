package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	BackendZap  = "zap"
	BackendSlog = "slog"
)

// New builds the process logger. backend is "zap" (JSON, default) or "slog"
// (text on stdout); level is one of debug, info, warn, error.
func New(backend, level string) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendZap:
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		l, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("zap init: %w", err)
		}
		return NewZapLogger(l), nil
	case BackendSlog:
		return newSlogText(os.Stdout, level)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
