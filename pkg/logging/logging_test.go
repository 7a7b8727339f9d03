package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	logger.Info("graph loaded", "vertices", 12, "file", "my map.json")
	logger.Debug("hidden")

	line := buf.String()
	require.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, " INFO graph loaded vertices=12 file=\"my map.json\"")
	assert.NotContains(t, line, "hidden")
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestHandlerAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug).With("component", "api").WithGroup("req")

	logger.Debug("served", "status", 200)
	assert.Contains(t, buf.String(), "DEBUG served component=api req.status=200")
}

func TestHandlerFlattensGroupValues(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo).With(slog.Group("map", "rooms", 3)).WithGroup("req")

	logger.Info("routed",
		slog.Group("from", "floor", "1", "x", 2.5),
		slog.Group("", "inline", true),
		slog.Group("empty"),
	)
	line := buf.String()
	assert.Contains(t, line, "INFO routed map.rooms=3 req.from.floor=1 req.from.x=2.5 req.inline=true\n")
	assert.NotContains(t, line, "[")
	assert.NotContains(t, line, "empty")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"Warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
