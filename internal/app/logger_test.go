package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "unit", "git")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "shown", entry["msg"])
	require.Equal(t, "git", entry["unit"])
	require.Equal(t, "ensure", entry["component"])

	buf.Reset()
	newLogger("bogus", "text", &buf).Debug("dropped")
	require.Empty(t, buf.String(), "unknown levels fall back to info")
}
