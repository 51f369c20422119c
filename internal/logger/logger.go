package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Encodings accepted by Config.Encoding.
const (
	ConsoleEncoding = "console"
	JSONEncoding    = "json"
)

// Config selects the level and line format of the process logger.
type Config struct {
	Level    string
	Encoding string
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process-wide logger. Only the first call's cfg is used.
func Get(cfg Config) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(cfg)
	})
	return globalLogger
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return nopLogger()
}
