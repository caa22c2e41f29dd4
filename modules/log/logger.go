// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package log provides leveled logging for the commit graph service.
//
// The package keeps a single process-wide logger. Writers and levels are
// settable at init time from the configuration; the zero configuration
// logs INFO and above to stderr.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LevelLogger provides level-related logging functions
type LevelLogger interface {
	LevelEnabled(level Level) bool

	Trace(format string, v ...any)
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

type loggerImpl struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

var logger = &loggerImpl{out: os.Stderr, level: INFO}

func (l *loggerImpl) LevelEnabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *loggerImpl) log(level Level, format string, v ...any) {
	if !l.LevelEnabled(level) {
		return
	}
	msg := fmt.Sprintf(format, v...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s [%c] %s\n", time.Now().Format("2006/01/02 15:04:05"), level.PrefixRune(), msg)
}

func (l *loggerImpl) Trace(format string, v ...any) { l.log(TRACE, format, v...) }
func (l *loggerImpl) Debug(format string, v ...any) { l.log(DEBUG, format, v...) }
func (l *loggerImpl) Info(format string, v ...any)  { l.log(INFO, format, v...) }
func (l *loggerImpl) Warn(format string, v ...any)  { l.log(WARN, format, v...) }
func (l *loggerImpl) Error(format string, v ...any) { l.log(ERROR, format, v...) }

// GetLogger returns the process-wide logger
func GetLogger() LevelLogger {
	return logger
}

// GetLevel returns the minimum logger level
func GetLevel() Level {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	return logger.level
}

// SetLevel sets the minimum logger level
func SetLevel(level Level) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.level = level
}

// SetOutput redirects log output, mainly for tests and the CLI
func SetOutput(w io.Writer) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.out = w
}

// Trace records trace log
func Trace(format string, v ...any) {
	logger.Trace(format, v...)
}

// Debug records debug log
func Debug(format string, v ...any) {
	logger.Debug(format, v...)
}

// Info records info log
func Info(format string, v ...any) {
	logger.Info(format, v...)
}

// Warn records warning log
func Warn(format string, v ...any) {
	logger.Warn(format, v...)
}

// Error records error log
func Error(format string, v ...any) {
	logger.Error(format, v...)
}

// Fatal records fatal log and exits the process
func Fatal(format string, v ...any) {
	logger.log(FATAL, format, v...)
	os.Exit(1)
}
