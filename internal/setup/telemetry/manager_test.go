package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalyx/invitegate/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lm := NewManager(dir, "bot", &config.Debug{LogLevel: "info", MaxLogsToKeep: 3, MaxLogLines: 100})
	lm.stderr = false

	mainLogger, dbLogger, err := lm.GetLoggers()
	require.NoError(t, err)
	t.Cleanup(func() { _ = lm.Close() })

	mainLogger.Info("hello main")
	dbLogger.Info("hello database")
	dbLogger.Debug("below level")

	main, err := os.ReadFile(filepath.Join(lm.SessionDir(), "main.log"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "hello main")
	assert.Contains(t, string(main), lm.InstanceID())

	db, err := os.ReadFile(filepath.Join(lm.SessionDir(), "database.log"))
	require.NoError(t, err)
	assert.Contains(t, string(db), "hello database")
	assert.NotContains(t, string(db), "below level")
}

func TestInvalidLevel(t *testing.T) {
	t.Parallel()

	lm := NewManager(t.TempDir(), "bot", &config.Debug{LogLevel: "loud", MaxLogsToKeep: 3, MaxLogLines: 100})
	lm.stderr = false

	_, _, err := lm.GetLoggers()
	require.Error(t, err)
}

func TestRotateLogSessions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"a", "b", "c", "d"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.Mkdir(path, 0o755))
		stamp := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}

	lm := NewManager(dir, "bot", &config.Debug{LogLevel: "info", MaxLogsToKeep: 3, MaxLogLines: 100})
	require.NoError(t, lm.rotateLogSessions())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Equal(t, []string{"c", "d"}, names)
}

func TestLineRotatorKeepsRecentLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	r, err := openRotator(path, 3)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	for _, line := range []string{"1", "2", "3", "4", "5", "6"} {
		_, err := r.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "5", "6"}, strings.Fields(string(content)))

	// Appends continue after compaction
	_, err = r.Write([]byte("7\n"))
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "5", "6", "7"}, strings.Fields(string(content)))
}
