package logging

import (
	"io"
	"log"
	"sync"
	"sync/atomic"
)

// LoggerManager hands out one logger per component, all sharing an output and threshold.
type LoggerManager struct {
	mu       sync.RWMutex
	loggers  map[string]*Logger
	out      *log.Logger
	minLevel atomic.Int32
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager returns the process-wide manager.
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager(defaultOutput.Writer(), INFO)
	})
	return globalManager
}

// NewLoggerManager builds an independent manager, mostly for tests.
func NewLoggerManager(w io.Writer, level LogLevel) *LoggerManager {
	lm := &LoggerManager{
		loggers: make(map[string]*Logger),
		out:     log.New(w, "", defaultOutput.Flags()),
	}
	lm.minLevel.Store(int32(level))
	return lm
}

// GetLogger returns the logger for a component, creating it on first use.
func (lm *LoggerManager) GetLogger(component string) *Logger {
	lm.mu.RLock()
	if logger, ok := lm.loggers[component]; ok {
		lm.mu.RUnlock()
		return logger
	}
	lm.mu.RUnlock()

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger
	}
	logger := newLogger(component, lm.out, &lm.minLevel)
	lm.loggers[component] = logger
	return logger
}

// SetLevel changes the threshold of every logger from this manager.
func (lm *LoggerManager) SetLevel(level LogLevel) {
	lm.minLevel.Store(int32(level))
}

// SetOutput redirects every logger from this manager.
func (lm *LoggerManager) SetOutput(w io.Writer) {
	lm.out.SetOutput(w)
}

// Component is shorthand for GetLoggerManager().GetLogger(name).
func Component(name string) *Logger {
	return GetLoggerManager().GetLogger(name)
}
