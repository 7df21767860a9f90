package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Setup("debug", "json")
	t.Cleanup(func() { Setup("warn", "text") })

	WithComponent("suggest").WithField("count", 3).Debug("rule finished")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "rule finished", entry["msg"])
	assert.Equal(t, "suggest", entry["component"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, "debug", entry["level"])
}

func TestSetup_UnknownLevelFallsBackToWarn(t *testing.T) {
	Setup("chatty", "text")
	assert.Equal(t, "warning", Level())
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Setup("warn", "text")

	Infof("hidden %d", 1)
	assert.Empty(t, buf.String())

	Warnf("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
}

func TestFromContext_RunID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Setup("info", "json")
	t.Cleanup(func() { Setup("warn", "text") })

	ctx := WithRunID(context.Background(), "run-42")
	assert.Equal(t, "run-42", RunIDFromContext(ctx))
	assert.Empty(t, RunIDFromContext(context.Background()))

	FromContext(ctx).Info("started")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-42", entry["run_id"])
}
