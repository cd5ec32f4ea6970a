// Package logger provides leveled logging for the round server.
// Every phase change and every rejected player command should be traceable through this.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level is the minimum severity a Logger writes.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("Level(%d)", int32(l))
}

// ParseLevel maps a config string onto a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger provides structured logging with context.
type Logger struct {
	level       atomic.Int32
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a new logger instance writing info and above.
func NewLogger() *Logger {
	return New(LevelInfo, os.Stdout, os.Stderr)
}

// New creates a logger writing to out, with errors going to errOut.
func New(level Level, out, errOut io.Writer) *Logger {
	l := &Logger{
		debugLogger: log.New(out, "[TOYS-DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile),
		infoLogger:  log.New(out, "[TOYS-INFO] ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(out, "[TOYS-WARN] ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(errOut, "[TOYS-ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
	l.level.Store(int32(level))
	return l
}

// Discard returns a logger that drops everything. Used by tests and benchmarks.
func Discard() *Logger {
	return New(LevelError+1, io.Discard, io.Discard)
}

// SetLevel changes the minimum severity at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) enabled(level Level) bool {
	return Level(l.level.Load()) <= level
}

// Debug logs tick-level detail.
func (l *Logger) Debug(msg string) {
	if l.enabled(LevelDebug) {
		_ = l.debugLogger.Output(2, msg)
	}
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	if l.enabled(LevelInfo) {
		_ = l.infoLogger.Output(2, msg)
	}
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	if l.enabled(LevelWarn) {
		_ = l.warnLogger.Output(2, msg)
	}
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	if l.enabled(LevelError) {
		_ = l.errorLogger.Output(2, msg)
	}
}

// Event logs a game event announced by the engine.
func (l *Logger) Event(eventType string, sessionID string, details string) {
	if l.enabled(LevelDebug) {
		_ = l.debugLogger.Output(2, fmt.Sprintf("[EVENT:%s] Session:%s | %s", eventType, sessionID, details))
	}
}
