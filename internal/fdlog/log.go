// Package fdlog is a thin leveled wrapper over the standard library logger,
// matching the plain stdlib-log style the teacher's own cmd tooling uses
// rather than pulling in a structured-logging framework.
package fdlog

import (
	"log"
	"os"
)

// Level controls which messages reach the underlying writer.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger prefixes every line with a stage name and a level tag.
type Logger struct {
	stage string
	level Level
	std   *log.Logger
}

// New returns a Logger that writes to stderr with the given stage name.
func New(stage string) *Logger {
	return &Logger{
		stage: stage,
		level: LevelInfo,
		std:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// WithLevel returns a copy of l that only emits messages at or above level.
func (l *Logger) WithLevel(level Level) *Logger {
	cp := *l
	cp.level = level
	return &cp
}

func (l *Logger) logf(level Level, tag, format string, args ...any) {
	if level < l.level {
		return
	}
	l.std.Printf("["+l.stage+"] "+tag+" "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, "DEBUG", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, "INFO", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, "WARN", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, "ERROR", format, args...) }
