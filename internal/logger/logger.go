// Package logger provides the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the shared logger. Only the first call's level is honoured.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = New(level)
	})
	return globalLogger
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
