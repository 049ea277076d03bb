// Package log provides the zap-backed logger shared by the runtime, the model
// backends and the weather agent.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level names accepted by SetLevel and New.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Logger is the sugared zap logger used throughout weatherpod. Components
// take key/value pairs, e.g. logger.Infow("Running tool", "tool", name).
type Logger = *zap.SugaredLogger

var zapLevel = zap.NewAtomicLevelAt(zapcore.ErrorLevel)

// Default writes to stderr so that stdout only carries the agent's output.
var Default Logger = New(os.Stderr, zapLevel)

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	NameKey:        "name",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// New builds a console logger writing to w at the given level.
func New(w io.Writer, level zapcore.LevelEnabler) Logger {
	return zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(w),
			level,
		),
		zap.AddCaller(),
	).Sugar()
}

// SetLevel changes the level of Default. Unknown names fall back to error,
// which keeps stdout quiet the way the demo expects.
func SetLevel(level string) {
	zapLevel.SetLevel(parseLevel(level))
}

// Level returns the current level name of Default.
func Level() string {
	return zapLevel.Level().String()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
