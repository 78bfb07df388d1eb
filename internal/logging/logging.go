package logging

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger for the command line tools. Verbose enables
// V(1) messages.
func New(verbose bool) logr.Logger {
	return zapr.NewLogger(newZap(verbose, isTerminal(os.Stderr), zapcore.Lock(os.Stderr)))
}

func newZap(verbose, color bool, out zapcore.WriteSyncer) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		// logr V(n) maps to zap level -n.
		level.SetLevel(zapcore.Level(-1))
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), out, level)
	return zap.New(core)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
