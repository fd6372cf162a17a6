package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(&buf, "debug"))
	t.Cleanup(func() { global = nil })

	Named("pipeline").Info(context.Background(), "derived", Int("rows", 3), String("sheet", "2024"))
	Get().Debug(context.Background(), "detail", Error(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "component=pipeline")
	assert.Contains(t, out, "rows=3")
	assert.Contains(t, out, "sheet=2024")
	assert.Contains(t, out, "error=boom")
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(&buf, "warn"))
	t.Cleanup(func() { global = nil })

	Get().Info(context.Background(), "hidden")
	Get().Warn(context.Background(), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	require.Error(t, SetLevelString("verbose"))
}

func TestGetWithoutInitIsUsable(t *testing.T) {
	global = nil
	assert.NotPanics(t, func() { Get().Info(context.Background(), "noop") })
}
