package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		human   bool
		debug   bool
	}{
		{"json quiet", false, false, false},
		{"json verbose", true, false, true},
		{"console quiet", false, true, false},
		{"console verbose", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.verbose, tt.human)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if !logger.Core().Enabled(zapcore.WarnLevel) {
				t.Error("warnings should always be enabled")
			}
		})
	}
}
