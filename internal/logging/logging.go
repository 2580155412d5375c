package logging

import (
	"log"
	"strings"
	"sync/atomic"
)

// Level represents logging verbosity
type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = map[Level]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel maps a LOG_LEVEL value to a Level, case-insensitively
func ParseLevel(s string) (Level, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == s {
			return level, true
		}
	}
	return LevelInfo, false
}

var current atomic.Int32

func init() {
	current.Store(int32(LevelInfo))
}

// SetLevel changes the process-wide verbosity
func SetLevel(level Level) {
	current.Store(int32(level))
}

// CurrentLevel returns the process-wide verbosity
func CurrentLevel() Level {
	return Level(current.Load())
}

// Logger writes "[Component] message" lines through the standard logger,
// dropping anything above the process-wide level
type Logger struct {
	component string
}

// New creates a logger for a component
func New(component string) *Logger {
	return &Logger{component: component}
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level Level) bool {
	return level <= CurrentLevel()
}

func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(LevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	prefix := "[" + l.component + "] "
	if level != LevelInfo {
		prefix += level.String() + ": "
	}
	log.Printf(prefix+format, args...)
}
