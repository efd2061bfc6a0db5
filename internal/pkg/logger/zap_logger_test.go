package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.log")
	l := NewIsolatedLogger(path)

	l.Debug("PIPELINE", "prompt built", map[string]interface{}{"chunks": 2})
	l.Warn("PIPELINE", "malformed response", nil)
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "PIPELINE", lines[0]["module"])
	assert.Equal(t, "prompt built", lines[0]["message"])
	assert.Equal(t, "WARN", lines[1]["level"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Info("X", "ignored", nil)
		l.Error("X", "ignored", map[string]interface{}{"error": "boom"})
	})
}
