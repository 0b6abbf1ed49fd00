// Package logging builds the zap logger used by the CLI.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr. human selects the console
// encoder used in development; otherwise entries are JSON. Only warnings
// and errors are shown unless verbose is set.
func New(verbose, human bool) (*zap.Logger, error) {
	var cfg zap.Config
	if human {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}
