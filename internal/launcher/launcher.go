// Package launcher writes the double-clickable batch file that starts the
// tool, plus a copy of it on the Desktop.
package launcher

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"systemrepair/internal/config"
	"systemrepair/internal/logging"
)

var batchTemplate = template.Must(template.New("launcher").Parse(`@echo off
echo Starting System Repair Tool...
echo.
"{{.Executable}}" %*
if errorlevel 1 (
    echo.
    echo An error occurred! Check the log file on your Desktop.
    pause
) else (
    echo.
    echo Script completed successfully!
    pause
)
`))

// Notifier prints user-facing lines; *cli.Console satisfies it.
type Notifier interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Launcher creates the batch launcher for Executable.
type Launcher struct {
	Executable   string
	Desktop      string
	BatchName    string
	ShortcutName string

	Logger *logging.EnterpriseLogger
	Out    Notifier
}

// New builds a Launcher from the launcher section of cfg.
func New(cfg config.LauncherConfig, executable, desktop string, logger *logging.EnterpriseLogger, out Notifier) *Launcher {
	return &Launcher{
		Executable:   executable,
		Desktop:      desktop,
		BatchName:    cfg.BatchName,
		ShortcutName: cfg.ShortcutName,
		Logger:       logger,
		Out:          out,
	}
}

// Render returns the batch file text with CRLF line endings.
func Render(executable string) (string, error) {
	var buf bytes.Buffer
	if err := batchTemplate.Execute(&buf, struct{ Executable string }{executable}); err != nil {
		return "", fmt.Errorf("render launcher: %w", err)
	}
	return strings.ReplaceAll(buf.String(), "\n", "\r\n"), nil
}

// Write creates the batch file next to the executable and copies it to the
// Desktop. It returns the paths it wrote.
func (l *Launcher) Write() (batchPath, shortcutPath string, err error) {
	content, err := Render(l.Executable)
	if err != nil {
		return "", "", err
	}

	batchPath = filepath.Join(filepath.Dir(l.Executable), l.BatchName)
	if err := os.WriteFile(batchPath, []byte(content), 0755); err != nil {
		return "", "", fmt.Errorf("write batch file: %w", err)
	}
	l.Logger.Log("INFO", "Batch file created", "path", batchPath)
	l.info("\nCreated batch file at: %s", batchPath)

	shortcutPath = filepath.Join(l.Desktop, l.ShortcutName)
	if err := copyFile(batchPath, shortcutPath); err != nil {
		return batchPath, "", fmt.Errorf("create desktop shortcut: %w", err)
	}
	l.Logger.Log("INFO", "Desktop shortcut created", "path", shortcutPath)
	l.info("Created desktop shortcut: %s", shortcutPath)

	return batchPath, shortcutPath, nil
}

// Install runs Write and reports a failure without returning it: a missing
// launcher never stops the maintenance run.
func (l *Launcher) Install() {
	if _, _, err := l.Write(); err != nil {
		l.Logger.Log("ERROR", "Failed to create batch file", "error", err.Error())
		if l.Out != nil {
			l.Out.Error("Error creating batch file: %v", err)
		}
	}
}

func (l *Launcher) info(format string, args ...interface{}) {
	if l.Out != nil {
		l.Out.Info(format, args...)
	}
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
