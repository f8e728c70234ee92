//go:build !windows

package security

import (
	"fmt"
	"os"
)

// IsAdmin reports whether the process runs as root.
func IsAdmin() (bool, error) {
	return os.Geteuid() == 0, nil
}

// RelaunchElevated has no UAC equivalent off Windows.
func RelaunchElevated(args []string) error {
	return fmt.Errorf("automatic elevation is not available on this platform, run the tool as root")
}
