package qiprog

import (
	"log/slog"
	"os"
	"sync"
)

// Logging is diagnostics only; nothing in the package branches on it.

var (
	logLevel = new(slog.LevelVar)
	logMu    sync.RWMutex
	logger   *slog.Logger
)

func init() {
	logLevel.Set(slog.LevelWarn)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// SetLogLevel sets the minimum severity the package logs at.
func SetLogLevel(level slog.Level) {
	logMu.Lock()
	defer logMu.Unlock()
	logLevel.Set(level)
}

// SetLogger replaces the package logger.
func SetLogger(l *slog.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = l
}

func currentLogger() *slog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

func logDebug(msg string, args ...any) { currentLogger().Debug(msg, args...) }
func logInfo(msg string, args ...any)  { currentLogger().Info(msg, args...) }
func logWarn(msg string, args ...any)  { currentLogger().Warn(msg, args...) }
