package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel orders log severities.
type LogLevel int32

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Logger writes leveled messages tagged with a component name.
type Logger struct {
	component string
	out       *log.Logger
	minLevel  *atomic.Int32
}

func newLogger(component string, out *log.Logger, minLevel *atomic.Int32) *Logger {
	return &Logger{component: component, out: out, minLevel: minLevel}
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level LogLevel) bool {
	return int32(level) >= l.minLevel.Load()
}

func (l *Logger) logf(level LogLevel, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	l.out.Printf("[%s] [%s] %s", level, l.component, fmt.Sprintf(format, args...))
}

func (l *Logger) Trace(format string, args ...any) { l.logf(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.logf(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.logf(WARN, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.logf(ERROR, format, args...) }

// Discard returns a logger that drops everything.
func Discard() *Logger {
	lvl := &atomic.Int32{}
	lvl.Store(int32(ERROR) + 1)
	return newLogger("discard", log.New(io.Discard, "", 0), lvl)
}

var defaultOutput = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
