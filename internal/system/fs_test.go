package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestClearDirectoryRemovesEntriesAndKeepsDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.tmp"), "a")
	writeFile(t, filepath.Join(dir, "nested", "b.tmp"), "b")

	stats, err := ClearDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Removed)
	assert.Empty(t, stats.Failed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClearDirectoryMissingDir(t *testing.T) {
	stats, err := ClearDirectory(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Zero(t, stats.Removed)
}

func TestRecreateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "PRINTERS")
	writeFile(t, filepath.Join(dir, "00001.SPL"), "job")

	require.NoError(t, RecreateDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestRenamePathReplacesLeftover(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "SoftwareDistribution")
	to := from + ".old"
	writeFile(t, filepath.Join(from, "new.txt"), "new")
	writeFile(t, filepath.Join(to, "stale.txt"), "stale")

	require.NoError(t, RenamePath(from, to))

	assert.NoDirExists(t, from)
	assert.FileExists(t, filepath.Join(to, "new.txt"))
	assert.NoFileExists(t, filepath.Join(to, "stale.txt"))
}

func TestRenamePathMissingSource(t *testing.T) {
	root := t.TempDir()
	err := RenamePath(filepath.Join(root, "catroot2"), filepath.Join(root, "catroot2.old"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRemoveTreeMissingPathIsFine(t *testing.T) {
	require.NoError(t, RemoveTree(filepath.Join(t.TempDir(), "nope")))
}

func TestIsFileInUse(t *testing.T) {
	assert.False(t, IsFileInUse(nil))
	assert.False(t, IsFileInUse(errors.New("access is denied")))
	assert.True(t, IsFileInUse(fmt.Errorf("remove x: %w",
		errors.New("The process cannot access the file because it is being used by another process."))))
}
