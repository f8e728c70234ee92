//go:build !windows

package system

import "os/exec"

// Raw command lines only matter to Windows programs; elsewhere the argv is
// passed as is.
func applyRawCommandLine(cmd *exec.Cmd, c Command) {}
