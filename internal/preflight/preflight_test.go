package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systemrepair/internal/config"
	"systemrepair/internal/logging"
)

func fixedVersion(v string, err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return v, err }
}

func TestOSCheck(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		min     string
		version string
		verErr  error
		wantErr bool
	}{
		{name: "windows 11", goos: "windows", min: "10.0", version: "10.0.22631 Build 22631"},
		{name: "exact minimum", goos: "windows", min: "10.0", version: "10.0"},
		{name: "windows 8.1 too old", goos: "windows", min: "10.0", version: "6.3.9600 Build 9600", wantErr: true},
		{name: "not windows", goos: "linux", min: "10.0", version: "22.04", wantErr: true},
		{name: "version unreadable", goos: "windows", min: "10.0", verErr: errors.New("wmi down"), wantErr: true},
		{name: "garbage version", goos: "windows", min: "10.0", version: "unknown", wantErr: true},
		{name: "bad minimum", goos: "windows", min: "ten", version: "10.0", wantErr: true},
		{name: "no minimum", goos: "windows", version: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &OSCheck{GOOS: tt.goos, MinVersion: tt.min, PlatformVersion: fixedVersion(tt.version, tt.verErr)}
			err := c.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, c.Critical())
		})
	}
}

func TestToolCheck(t *testing.T) {
	found := &ToolCheck{Tool: "netsh.exe", LookPath: func(string) (string, error) { return `C:\Windows\System32\netsh.exe`, nil }}
	assert.NoError(t, found.Run(context.Background()))
	assert.Equal(t, "tool:netsh.exe", found.Name())

	missing := &ToolCheck{Tool: "powershell.exe", IsCritical: true, LookPath: func(string) (string, error) { return "", errors.New("not found") }}
	assert.Error(t, missing.Run(context.Background()))
	assert.True(t, missing.Critical())
}

func TestRunCriticalFailureIsFatal(t *testing.T) {
	checks := []Check{
		&OSCheck{GOOS: "windows", MinVersion: "10.0", PlatformVersion: fixedVersion("10.0.19045", nil)},
		&ToolCheck{Tool: "powershell.exe", IsCritical: true, LookPath: func(string) (string, error) { return "", errors.New("missing") }},
		&ToolCheck{Tool: "fsutil.exe", LookPath: func(string) (string, error) { return "", errors.New("missing") }},
	}

	results, err := Run(context.Background(), checks, logging.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreflight))
	require.Len(t, results, 3)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.False(t, results[2].Passed)
	assert.Contains(t, err.Error(), "powershell.exe")
	assert.NotContains(t, err.Error(), "fsutil.exe")
}

func TestRunWarningsOnly(t *testing.T) {
	checks := []Check{
		&ToolCheck{Tool: "cleanmgr.exe", LookPath: func(string) (string, error) { return "", errors.New("missing") }},
	}

	results, err := Run(context.Background(), checks, logging.Nop())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestDefaultChecks(t *testing.T) {
	checks := DefaultChecks(config.Default())
	require.Len(t, checks, 1+len(RequiredTools))
	assert.Equal(t, "operating_system", checks[0].Name())

	var critical []string
	for _, c := range checks[1:] {
		if c.Critical() {
			critical = append(critical, c.Name())
		}
	}
	assert.Equal(t, []string{"tool:powershell.exe"}, critical)
}
