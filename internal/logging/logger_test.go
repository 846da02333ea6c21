package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":       slog.LevelDebug,
		"Trace":       slog.LevelDebug,
		"info":        slog.LevelInfo,
		"Information": slog.LevelInfo,
		"WARNING":     slog.LevelWarn,
		"error":       slog.LevelError,
		"":            slog.LevelInfo,
		"nonsense":    slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewWithFormat(t *testing.T) {
	t.Run("JSON Renames Error Key", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithFormat(slog.LevelInfo, "json", &buf)
		logger.Error("failed", "error", errors.New("boom"))

		assert.Contains(t, buf.String(), `"err":"boom"`)
		assert.NotContains(t, buf.String(), `"error":`)
	})

	t.Run("Text Respects Level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithFormat(slog.LevelWarn, "text", &buf)
		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
	})
}
