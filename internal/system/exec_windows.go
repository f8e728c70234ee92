//go:build windows

package system

import (
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

func applyRawCommandLine(cmd *exec.Cmd, c Command) {
	if !c.Raw {
		return
	}
	line := windows.EscapeArg(cmd.Path)
	if len(c.Args) > 0 {
		line += " " + strings.Join(c.Args, " ")
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: line}
}
