//go:build windows

package security

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

// IsAdmin проверяет, что токен процесса повышен (UAC). Если TokenElevation
// недоступен, проверяется членство в группе Administrators.
func IsAdmin() (bool, error) {
	return tokenCheck{Elevated: processElevated, Member: adminMember}.IsAdmin()
}

func processElevated() (bool, error) {
	var token windows.Token
	if err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token); err != nil {
		return false, fmt.Errorf("open process token: %w", err)
	}
	defer token.Close()
	return token.IsElevated(), nil
}

// adminMember checks BUILTIN\Administrators through the pseudo token: the
// process token is a primary token, which CheckTokenMembership rejects.
// A non-elevated admin carries the group as deny-only, so this stays false
// until UAC elevation.
func adminMember() (bool, error) {
	adminSID, err := windows.CreateWellKnownSid(windows.WinBuiltinAdministratorsSid)
	if err != nil {
		return false, fmt.Errorf("create administrators SID: %w", err)
	}
	member, err := windows.Token(0).IsMember(adminSID)
	if err != nil {
		return false, fmt.Errorf("check administrators membership: %w", err)
	}
	return member, nil
}

// RelaunchElevated starts the current executable with the "runas" verb.
func RelaunchElevated(args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = windows.EscapeArg(a)
	}

	verbPtr, _ := windows.UTF16PtrFromString("runas")
	exePtr, _ := windows.UTF16PtrFromString(exe)
	cwdPtr, _ := windows.UTF16PtrFromString(cwd)
	argsPtr, _ := windows.UTF16PtrFromString(strings.Join(quoted, " "))

	if err := windows.ShellExecute(0, verbPtr, exePtr, argsPtr, cwdPtr, windows.SW_NORMAL); err != nil {
		return fmt.Errorf("ShellExecute runas: %w", err)
	}
	return nil
}
