// Package logging builds the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the callcheck logger. Verbose enables Debug-level output.
// Timestamps use ISO8601 so log lines line up with run artifacts.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// NewNop returns a no-op logger for tests and optional dependencies.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
