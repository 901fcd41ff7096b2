// Package logging initializes the application loggers: structured JSON to stdout,
// human-readable text to stderr, plus rotating file loggers for services.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// replaceLevelNames customizes level names for TRACE and FATAL levels.
func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Init initializes the logging system with structured and human-readable loggers.
// It configures JSON output for structured logs and Text output for human-readable logs.
func Init() {
	SetLevel(slog.LevelInfo)
}

// SetLevel sets the minimum logging level for both structured and human-readable loggers.
func SetLevel(level slog.Level) {
	structuredHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	structuredLogger = slog.New(structuredHandler)

	humanReadableHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	humanReadableLogger = slog.New(humanReadableHandler)

	// Structured logger is the application default.
	slog.SetDefault(structuredLogger)
}

// StructuredLogger returns the JSON logger writing to stdout.
func StructuredLogger() *slog.Logger {
	if structuredLogger == nil {
		Init()
	}
	return structuredLogger
}

// HumanReadableLogger returns the text logger writing to stderr.
func HumanReadableLogger() *slog.Logger {
	if humanReadableLogger == nil {
		Init()
	}
	return humanReadableLogger
}

// FileRotation controls rotation of file loggers created by NewFileLogger.
type FileRotation struct {
	MaxSizeMB  int // rotate after this many megabytes
	MaxBackups int // number of rotated files to keep
	MaxAgeDays int // days to keep rotated files
}

// DefaultFileRotation is used when the caller passes a zero-value FileRotation.
var DefaultFileRotation = FileRotation{
	MaxSizeMB:  100,
	MaxBackups: 3,
	MaxAgeDays: 28,
}

// NewFileLogger creates a structured JSON logger writing to a rotating log file.
// It returns the logger, a close function for the underlying writer, and an error.
// The level argument may be a *slog.LevelVar for dynamic level control.
func NewFileLogger(filePath, serviceName string, level slog.Leveler, rotation FileRotation) (*slog.Logger, func() error, error) {
	// lumberjack doesn't create directories
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	if rotation == (FileRotation{}) {
		rotation = DefaultFileRotation
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   false,
	}

	fileHandler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})

	logger := slog.New(fileHandler).With("service", serviceName)
	return logger, logWriter.Close, nil
}

// ForService returns the default structured logger tagged with a service name.
func ForService(serviceName string) *slog.Logger {
	return StructuredLogger().With("service", serviceName)
}
