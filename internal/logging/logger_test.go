package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestSetupJSONWithRunID(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	Setup(&buf, "info", "json")

	ctx := WithRunID(context.Background(), "run-1")
	FromContext(ctx).Debug("hidden")
	FromContext(ctx).Info("shown", "values", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, float64(3), entry["values"])
}

func TestSetupText(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	Setup(&buf, "debug", "text")
	FromContext(context.Background()).Debug("hello")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.NotContains(t, buf.String(), "run_id")
}
