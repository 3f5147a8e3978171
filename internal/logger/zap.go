package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

const defaultZapLevel = zapcore.InfoLevel

func toZapLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

func newConsoleCore(level zapcore.Level) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(level),
	)
}

// New builds a console logger at the given level. Unknown levels fall back to info.
func New(level string) *Logger {
	return &Logger{
		SugaredLogger: zap.New(newConsoleCore(toZapLevel(level))).Sugar(),
	}
}

// Named returns a child logger tagged with the component name.
func (l *Logger) Named(component string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(component)}
}
