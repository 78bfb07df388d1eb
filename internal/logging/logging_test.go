package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-logr/zapr"
	"go.uber.org/zap/zapcore"
)

func TestNewZapVerbosity(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    []string
		absent  []string
	}{
		{"Quiet", false, []string{"INFO\tinfo message"}, []string{"debug message"}},
		{"Verbose", true, []string{"INFO\tinfo message", "debug message"}, nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := zapr.NewLogger(newZap(tt.verbose, false, zapcore.AddSync(&buf)))

			log.Info("info message", "key", "value")
			log.V(1).Info("debug message")

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Expected %q in %q", w, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("Unexpected %q in %q", a, out)
				}
			}
		})
	}
}
