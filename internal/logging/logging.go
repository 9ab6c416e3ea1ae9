// internal/logging/logging.go
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects level and encoding.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	Quiet  bool   // raise the level to warn
}

// New builds a logger that writes to w. Every entry carries run_id.
// The returned AtomicLevel can be adjusted after construction.
func New(o Options, w io.Writer, runID string) (*zap.Logger, zap.AtomicLevel, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(o.Level)))); err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", o.Level, err)
	}
	if o.Quiet && lvl < zapcore.WarnLevel {
		lvl = zapcore.WarnLevel
	}
	level := zap.NewAtomicLevelAt(lvl)

	var enc zapcore.Encoder
	switch o.Format {
	case "", "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	case "json":
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log format %q (want console or json)", o.Format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	log := zap.New(core).With(zap.String("run_id", runID))
	return log, level, nil
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string { return uuid.NewString() }
