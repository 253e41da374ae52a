package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"Warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextLogger checks that names and fields attached to a context reach the output.
func TestContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := ToContext(context.Background(), New(zapcore.DebugLevel, &buf))
	ctx = WithName(ctx, "packager")
	ctx = WithKV(ctx, "course", "geocomp")

	InfoKV(ctx, "Created archive", "path", "geocomp.zip")

	out := buf.String()
	require.Contains(t, out, "packager")
	require.Contains(t, out, "Created archive")
	require.Contains(t, out, "geocomp.zip")
	require.Contains(t, out, "geocomp")
	require.NotContains(t, out, "\x1b[")
}

// TestFromContextFallback ensures a bare context yields the global logger.
func TestFromContextFallback(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}
