//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestSetLevel verifies that SetLevel updates the shared atomic level.
func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })
	cases := []struct {
		in       string
		expected zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{LevelFatal, zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, c := range cases {
		SetLevel(c.in)
		assert.Equal(t, c.expected, zapLevel.Level(), "SetLevel(%q)", c.in)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatJSON)
	logger.Infof("records=%d", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["lvl"])
	assert.Equal(t, "records=3", entry["message"])
}

func TestNewRespectsLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })
	var buf bytes.Buffer
	logger := New(&buf, FormatConsole)
	SetLevel(LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.True(t, strings.Contains(buf.String(), "shown"))
}

func TestPackageHelpersUseDefault(t *testing.T) {
	old := Default
	stub := &countLogger{}
	Default = stub
	t.Cleanup(func() { Default = old })

	Debugf("a")
	Infof("b")
	Warnf("c")
	Warn("d")
	Errorf("e")
	assert.Equal(t, 5, stub.calls)
}

type countLogger struct {
	calls int
}

func (c *countLogger) Debug(args ...any)                 { c.calls++ }
func (c *countLogger) Debugf(format string, args ...any) { c.calls++ }
func (c *countLogger) Info(args ...any)                  { c.calls++ }
func (c *countLogger) Infof(format string, args ...any)  { c.calls++ }
func (c *countLogger) Warn(args ...any)                  { c.calls++ }
func (c *countLogger) Warnf(format string, args ...any)  { c.calls++ }
func (c *countLogger) Error(args ...any)                 { c.calls++ }
func (c *countLogger) Errorf(format string, args ...any) { c.calls++ }
func (c *countLogger) Fatal(args ...any)                 { c.calls++ }
func (c *countLogger) Fatalf(format string, args ...any) { c.calls++ }
