// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitializeReplacesDefault(t *testing.T) {
	before := Get()
	require.NotNil(t, before)

	Initialize()
	after := Get()
	require.NotNil(t, after)
	assert.NotSame(t, before, after)
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  zapcore.Level
	}{
		{name: "debug", value: "debug", want: zapcore.DebugLevel},
		{name: "warn", value: "warn", want: zapcore.WarnLevel},
		{name: "warning alias", value: "WARNING", want: zapcore.WarnLevel},
		{name: "error", value: "error", want: zapcore.ErrorLevel},
		{name: "empty defaults to info", value: "", want: zapcore.InfoLevel},
		{name: "garbage defaults to info", value: "loud", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			assert.Equal(t, tt.want, levelFromEnv())
		})
	}
}

func TestUnstructuredLogs(t *testing.T) {
	t.Setenv("UNSTRUCTURED_LOGS", "TRUE")
	assert.True(t, unstructuredLogs())

	t.Setenv("UNSTRUCTURED_LOGS", "false")
	assert.False(t, unstructuredLogs())
}

func TestPackageFunctionsDoNotPanic(t *testing.T) {
	Initialize()
	Debug("debug")
	Debugf("debug %d", 1)
	Debugw("debug", "k", "v")
	Info("info")
	Infof("info %d", 1)
	Infow("info", "k", "v")
	Warn("warn")
	Warnf("warn %d", 1)
	Warnw("warn", "k", "v")
	Error("error")
	Errorf("error %d", 1)
	Errorw("error", "k", "v")
}
