// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFallsBackToDefault(t *testing.T) {
	logger := Logger(context.Background())
	require.NotNil(t, logger)
	assert.Same(t, DefaultLogger, logger)
}

func TestNewAndLoggerRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := New(context.Background(), logger)
	Logger(ctx).Debug("hello", "key", "value")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "key=value")
}

func TestNewNilLoggerUsesDefault(t *testing.T) {
	ctx := New(context.Background(), nil)
	assert.Same(t, DefaultLogger, Logger(ctx))
}

func TestPrettyHandlerWritesMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelDebug},
		WithDestinationWriter(buf),
	)
	logger := slog.New(h)

	logger.Info("process started", "pid", 42)

	out := buf.String()
	assert.Contains(t, out, "process started")
	assert.Contains(t, out, "42")
}
