package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// Paths holds the well-known locations the maintenance steps touch.
type Paths struct {
	Home         string
	Desktop      string
	Temp         string
	WinDir       string
	SystemDrive  string
	LocalAppData string
	ProgramFiles string
}

// ResolvePaths reads the current user's profile and the Windows environment.
func ResolvePaths() (Paths, error) {
	home, err := homedir.Dir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve home directory: %w", err)
	}

	winDir := envOr("WINDIR", `C:\Windows`)
	return Paths{
		Home:         home,
		Desktop:      filepath.Join(home, "Desktop"),
		Temp:         os.TempDir(),
		WinDir:       winDir,
		SystemDrive:  systemDriveOf(winDir),
		LocalAppData: envOr("LOCALAPPDATA", filepath.Join(home, "AppData", "Local")),
		ProgramFiles: envOr("ProgramFiles", `C:\Program Files`),
	}, nil
}

// DesktopFile returns the path of name on the user's Desktop.
func (p Paths) DesktopFile(name string) string {
	return filepath.Join(p.Desktop, name)
}

// SystemRoot returns the system drive root, e.g. "C:\".
func (p Paths) SystemRoot() string {
	return p.SystemDrive + string(filepath.Separator)
}

func systemDriveOf(winDir string) string {
	if len(winDir) >= 2 && winDir[1] == ':' {
		return winDir[:2]
	}
	return "C:"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
