package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systemrepair/internal/config"
)

func newFileConfig(t *testing.T, appendMode bool) (*config.Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Desktop", LogFileName)
	cfg := config.Default()
	cfg.Logging.File = path
	cfg.Logging.Append = appendMode
	return cfg, path
}

func TestLoggerCreatesFileAndFormatsRecords(t *testing.T) {
	cfg, path := newFileConfig(t, false)

	logger, err := NewEnterpriseLogger(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, path, logger.Path())

	logger.Log("INFO", "Creating System Restore Point...")
	logger.Log("WARN", "Could not remove item", "path", `C:\Windows\Temp\locked.tmp`)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], " - INFO - Creating System Restore Point...")
	assert.Contains(t, lines[1], " - WARN - Could not remove item")
	assert.Contains(t, lines[1], `"path"`)
}

func TestLoggerAppendsWithinRunAndTruncatesNextRun(t *testing.T) {
	cfg, path := newFileConfig(t, false)

	first, err := NewEnterpriseLogger(cfg, false)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		first.Log("INFO", "step finished", "index", i)
	}
	require.NoError(t, first.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, strings.Count(string(data), "step finished"))

	second, err := NewEnterpriseLogger(cfg, false)
	require.NoError(t, err)
	second.Log("INFO", "new run")
	require.NoError(t, second.Close())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "step finished")
	assert.Contains(t, string(data), "new run")
}

func TestLoggerAppendModeKeepsPreviousRuns(t *testing.T) {
	cfg, path := newFileConfig(t, true)

	for _, msg := range []string{"run one", "run two"} {
		logger, err := NewEnterpriseLogger(cfg, false)
		require.NoError(t, err)
		logger.Log("INFO", msg)
		require.NoError(t, logger.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run one")
	assert.Contains(t, string(data), "run two")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "WARN")
	require.NoError(t, err)

	logger.Log("DEBUG", "hidden debug")
	logger.Log("INFO", "hidden info")
	logger.Log("WARN", "shown warn")
	logger.Log("FATAL", "shown fatal")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "shown fatal")
	assert.Contains(t, out, `"severity": "FATAL"`)
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "LOUD"
	_, err := NewEnterpriseLogger(cfg, false)
	require.Error(t, err)
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := Nop()
	logger.Log("ERROR", "nobody listens")
	assert.Empty(t, logger.Path())
	assert.NoError(t, logger.Close())
}
