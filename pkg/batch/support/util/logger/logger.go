// Package logger provides the leveled logger used across sheetload.
// It wraps the standard `log` package and drops messages below the configured level.
package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// LogLevel is a type representing the logging level.
// Smaller numbers indicate more detailed log levels.
type LogLevel int

const (
	// LevelDebug is used for chunk-by-chunk progress and GORM statements.
	LevelDebug LogLevel = iota
	// LevelInfo is used for run summaries and lifecycle messages.
	LevelInfo
	// LevelWarn is used for chunk fallbacks and non-fatal sink failures.
	LevelWarn
	// LevelError is used for systemic failures.
	LevelError
	// LevelFatal is used right before the process exits.
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	std      = log.New(log.Writer(), "", log.LstdFlags)
)

// ParseLogLevel converts a level name ("DEBUG", "INFO", "WARN", "ERROR", "FATAL") to a LogLevel.
// "TRACE" is accepted as an alias of DEBUG.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level '%s'", level)
	}
}

// SetLogLevel sets the global log level.
// An unknown value falls back to INFO and prints a notice.
func SetLogLevel(level string) {
	parsed, err := ParseLogLevel(level)
	if err != nil {
		fmt.Printf("%v. Defaulting to INFO level.\n", err)
	}
	mu.Lock()
	logLevel = parsed
	mu.Unlock()
}

// GetLogLevel returns the current global log level.
func GetLogLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

// SetOutput redirects log output. Tests use it to capture messages.
func SetOutput(w io.Writer) {
	mu.Lock()
	std.SetOutput(w)
	mu.Unlock()
}

func enabled(level LogLevel) bool {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel <= level
}

func output(level LogLevel, format string, v ...interface{}) {
	if !enabled(level) {
		return
	}
	std.Output(3, fmt.Sprintf("["+level.String()+"] "+format, v...))
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) {
	output(LevelDebug, format, v...)
}

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) {
	output(LevelInfo, format, v...)
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	output(LevelWarn, format, v...)
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	output(LevelError, format, v...)
}

// Fatalf outputs a FATAL level log message and terminates the program with os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	std.Fatalf("[FATAL] "+format, v...)
}
