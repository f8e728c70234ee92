package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systemrepair/internal/config"
	"systemrepair/internal/logging"
)

type recorder struct {
	info, errs []string
}

func (r *recorder) Info(format string, args ...interface{}) {
	r.info = append(r.info, fmt.Sprintf(format, args...))
}

func (r *recorder) Error(format string, args ...interface{}) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func TestRender(t *testing.T) {
	text, err := Render(`C:\Tools\systemrepair.exe`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "@echo off\r\n"))
	assert.Contains(t, text, `"C:\Tools\systemrepair.exe" %*`)
	assert.Contains(t, text, "echo An error occurred! Check the log file on your Desktop.")
	assert.Contains(t, text, "echo Script completed successfully!")
	assert.NotContains(t, strings.ReplaceAll(text, "\r\n", ""), "\n")
}

func TestWriteCreatesBatchAndDesktopCopy(t *testing.T) {
	root := t.TempDir()
	exe := filepath.Join(root, "bin", "systemrepair.exe")
	require.NoError(t, os.MkdirAll(filepath.Dir(exe), 0755))
	desktop := filepath.Join(root, "Desktop")

	out := &recorder{}
	l := New(config.Default().Launcher, exe, desktop, logging.Nop(), out)

	batch, shortcut, err := l.Write()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "bin", "Run_Repair_Tool.bat"), batch)
	assert.Equal(t, filepath.Join(desktop, "System Repair Tool.bat"), shortcut)

	a, err := os.ReadFile(batch)
	require.NoError(t, err)
	b, err := os.ReadFile(shortcut)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, out.info, 2)
}

func TestInstallSwallowsFailure(t *testing.T) {
	root := t.TempDir()
	// The executable's directory does not exist, so the batch cannot be written.
	exe := filepath.Join(root, "missing", "systemrepair.exe")

	out := &recorder{}
	l := New(config.Default().Launcher, exe, filepath.Join(root, "Desktop"), logging.Nop(), out)
	l.Install()

	require.Len(t, out.errs, 1)
	assert.Contains(t, out.errs[0], "Error creating batch file")
	assert.NoFileExists(t, filepath.Join(root, "Desktop", "System Repair Tool.bat"))
}
