// Package sklogimpl holds the pluggable logging backend used by sklog.
package sklogimpl

import (
	"fmt"
	"os"
	"sync"
)

// Severity of a log line.
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Logger is implemented by logging backends.
type Logger interface {
	// Log writes a single line. If format is empty the args are formatted
	// with fmt.Sprint, otherwise with fmt.Sprintf.
	Log(depth int, severity Severity, format string, args ...interface{})

	// Flush any buffered lines.
	Flush()
}

var (
	mutex  sync.RWMutex
	logger Logger
)

// SetLogger replaces the active backend.
func SetLogger(l Logger) {
	mutex.Lock()
	defer mutex.Unlock()
	logger = l
}

// Log forwards to the active backend. Fatal lines flush and exit.
func Log(depth int, severity Severity, format string, args ...interface{}) {
	mutex.RLock()
	l := logger
	mutex.RUnlock()
	if l == nil {
		return
	}
	l.Log(depth+1, severity, format, args...)
	if severity == Fatal {
		l.Flush()
		os.Exit(1)
	}
}

// Flush the active backend.
func Flush() {
	mutex.RLock()
	defer mutex.RUnlock()
	if logger != nil {
		logger.Flush()
	}
}
