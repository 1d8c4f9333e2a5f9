// Package log provides a global logger with configurable logging level.

package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelNone    Level = iota // Disables logging.
	LevelError                // Logs anomalies that are not expected to occur during normal use.
	LevelWarning              // Logs anomalies that are expected to occur occasionally during normal use.
	LevelInfo                 // Logs major events.
	LevelDebug                // Logs detailed IO
)

var zapLevels = map[Level]zapcore.Level{
	LevelNone:    zapcore.InvalidLevel,
	LevelError:   zapcore.ErrorLevel,
	LevelWarning: zapcore.WarnLevel,
	LevelInfo:    zapcore.InfoLevel,
	LevelDebug:   zapcore.DebugLevel,
}

var (
	logMutex       sync.Mutex
	globalLogLevel = LevelNone
	atom           = zap.NewAtomicLevelAt(zapcore.InvalidLevel)
	logger         = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), atom)
	return zap.New(core).Sugar()
}

func SetLevel(level Level) {
	logMutex.Lock()
	defer logMutex.Unlock()
	zl, ok := zapLevels[level]
	if !ok {
		zl = zapcore.DebugLevel
	}
	globalLogLevel = level
	atom.SetLevel(zl)
}

func logLevel() Level {
	logMutex.Lock()
	defer logMutex.Unlock()
	return globalLogLevel
}

// SetOutput redirects log output to w. Used by tests and by callers that want to capture logs.
func SetOutput(w io.Writer) {
	l := newLogger(w)
	logMutex.Lock()
	defer logMutex.Unlock()
	logger = l
}

func current() *zap.SugaredLogger {
	logMutex.Lock()
	defer logMutex.Unlock()
	return logger
}

// Sync flushes buffered log entries.
func Sync() {
	_ = current().Sync()
}

func log(level Level, format string, a ...interface{}) {
	if level > logLevel() {
		return
	}
	msg := fmt.Sprintf(format, a...)
	l := current()
	switch level {
	case LevelDebug:
		l.Debug(msg)
	case LevelInfo:
		l.Info(msg)
	case LevelWarning:
		l.Warn(msg)
	case LevelError:
		l.Error(msg)
	}
}

func Debug(format string, a ...interface{}) {
	log(LevelDebug, format, a...)
}
func Info(format string, a ...interface{}) {
	log(LevelInfo, format, a...)
}
func Warning(format string, a ...interface{}) {
	log(LevelWarning, format, a...)
}
func Error(format string, a ...interface{}) {
	log(LevelError, format, a...)
}
