// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the structured logger shared by every
// component. It is a thin wrapper over charmbracelet/log, adding a
// component tag (via With) instead of the bracketed string prefixes
// ("[NM]", "[CTL]") used by older parts of the codebase.
package logging

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Level mirrors the subset of charmbracelet/log levels the controller
// exposes in configuration.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config controls how a Logger is constructed.
type Config struct {
	Level     Level
	Output    io.Writer // defaults to os.Stderr
	Timestamp bool
}

// DefaultConfig returns the logger configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Timestamp: true}
}

// Logger is a leveled, structured logger with persistent key/value fields.
type Logger struct {
	inner *charmlog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: cfg.Timestamp,
		Level:           toCharmLevel(cfg.Level),
	})
	return &Logger{inner: l}
}

// Discard returns a Logger that drops everything, for tests and
// callers that don't care about log output.
func Discard() *Logger {
	return New(Config{Level: LevelError, Output: io.Discard})
}

func toCharmLevel(l Level) charmlog.Level {
	switch l {
	case LevelDebug:
		return charmlog.DebugLevel
	case LevelWarn:
		return charmlog.WarnLevel
	case LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// With returns a child Logger that always includes the given key/value
// pairs, following charmbracelet/log's own With semantics.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{inner: l.inner.With(kv...)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.inner.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.inner.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.inner.Error(msg, kv...) }
