// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package logger provides the process-wide structured logger for the
// Profitelligence MCP server. Initialize is called once at startup; the
// package-level functions are safe for concurrent use from any goroutine.
package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// singleton is the package-level logger created by Initialize.
// Accessed atomically to be safe for concurrent use across goroutines.
var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	// Set a default logger so callers that skip Initialize() don't panic.
	l, _ := zap.NewProduction()
	singleton.Store(l.Sugar())
}

// Initialize creates the global logger. Output is JSON unless
// UNSTRUCTURED_LOGS=true selects a human-readable console encoder.
// The level is taken from LOG_LEVEL (debug, info, warn, error);
// anything unrecognized falls back to info.
func Initialize() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if unstructuredLogs() {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Building the configs above cannot fail in practice; keep
		// the init() default if it somehow does.
		return
	}
	singleton.Store(l.Sugar())
}

// Get returns the underlying logger for injection into components that
// accept a *zap.SugaredLogger directly.
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

func levelFromEnv() zapcore.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func unstructuredLogs() bool {
	return strings.EqualFold(os.Getenv("UNSTRUCTURED_LOGS"), "true")
}

// Debug logs a message at debug level.
func Debug(args ...any) { singleton.Load().Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(template string, args ...any) { singleton.Load().Debugf(template, args...) }

// Debugw logs a message at debug level with key-value pairs.
func Debugw(msg string, keysAndValues ...any) { singleton.Load().Debugw(msg, keysAndValues...) }

// Info logs a message at info level.
func Info(args ...any) { singleton.Load().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(template string, args ...any) { singleton.Load().Infof(template, args...) }

// Infow logs a message at info level with key-value pairs.
func Infow(msg string, keysAndValues ...any) { singleton.Load().Infow(msg, keysAndValues...) }

// Warn logs a message at warn level.
func Warn(args ...any) { singleton.Load().Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(template string, args ...any) { singleton.Load().Warnf(template, args...) }

// Warnw logs a message at warn level with key-value pairs.
func Warnw(msg string, keysAndValues ...any) { singleton.Load().Warnw(msg, keysAndValues...) }

// Error logs a message at error level.
func Error(args ...any) { singleton.Load().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(template string, args ...any) { singleton.Load().Errorf(template, args...) }

// Errorw logs a message at error level with key-value pairs.
func Errorw(msg string, keysAndValues ...any) { singleton.Load().Errorw(msg, keysAndValues...) }

// Panic logs a message at panic level and then panics.
func Panic(args ...any) { singleton.Load().Panic(args...) }

// Panicf logs a formatted message at panic level and then panics.
func Panicf(template string, args ...any) { singleton.Load().Panicf(template, args...) }
