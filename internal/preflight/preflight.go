// Package preflight verifies that the host can run the maintenance steps
// before any of them touches the system.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	version "github.com/hashicorp/go-version"
	"github.com/shirou/gopsutil/v3/host"

	"systemrepair/internal/config"
	"systemrepair/internal/logging"
)

// ErrPreflight is returned when a critical check fails.
var ErrPreflight = errors.New("preflight check failed")

// Check is one environment requirement.
type Check interface {
	Name() string
	// Critical checks abort the run when they fail.
	Critical() bool
	Run(ctx context.Context) error
}

// Result is the outcome of one check.
type Result struct {
	Name     string `json:"name" yaml:"name"`
	Critical bool   `json:"critical" yaml:"critical"`
	Passed   bool   `json:"passed" yaml:"passed"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
}

// OSCheck requires Windows at or above MinVersion.
type OSCheck struct {
	GOOS       string
	MinVersion string
	// PlatformVersion returns the OS version string, e.g. "10.0.19045 Build 19045".
	PlatformVersion func(ctx context.Context) (string, error)
}

// NewOSCheck inspects the running host.
func NewOSCheck(minVersion string) *OSCheck {
	return &OSCheck{
		GOOS:            runtime.GOOS,
		MinVersion:      minVersion,
		PlatformVersion: hostPlatformVersion,
	}
}

func hostPlatformVersion(ctx context.Context) (string, error) {
	_, _, v, err := host.PlatformInformationWithContext(ctx)
	return v, err
}

func (c *OSCheck) Name() string   { return "operating_system" }
func (c *OSCheck) Critical() bool { return true }

func (c *OSCheck) Run(ctx context.Context) error {
	if c.GOOS != "windows" {
		return fmt.Errorf("this tool requires Windows, running on %s", c.GOOS)
	}
	if c.MinVersion == "" {
		return nil
	}

	want, err := version.NewVersion(c.MinVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum Windows version %q: %w", c.MinVersion, err)
	}

	raw, err := c.PlatformVersion(ctx)
	if err != nil {
		return fmt.Errorf("read Windows version: %w", err)
	}
	have, err := parseWindowsVersion(raw)
	if err != nil {
		return err
	}

	if have.LessThan(want) {
		return fmt.Errorf("windows %s is older than the required %s", have, want)
	}
	return nil
}

// parseWindowsVersion keeps the leading dotted number of strings such as
// "10.0.22631 Build 22631".
func parseWindowsVersion(raw string) (*version.Version, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty Windows version")
	}
	v, err := version.NewVersion(fields[0])
	if err != nil {
		return nil, fmt.Errorf("parse Windows version %q: %w", raw, err)
	}
	return v, nil
}

// ToolCheck requires an executable to be on PATH.
type ToolCheck struct {
	Tool       string
	IsCritical bool
	LookPath   func(file string) (string, error)
}

func (c *ToolCheck) Name() string   { return "tool:" + c.Tool }
func (c *ToolCheck) Critical() bool { return c.IsCritical }

func (c *ToolCheck) Run(ctx context.Context) error {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(c.Tool); err != nil {
		return fmt.Errorf("%s not found: %w", c.Tool, err)
	}
	return nil
}

// RequiredTools lists the executables the steps shell out to. Only
// powershell.exe is critical: the restore point depends on it.
var RequiredTools = []struct {
	Name     string
	Critical bool
}{
	{"powershell.exe", true},
	{"powercfg.exe", false},
	{"netsh.exe", false},
	{"sfc.exe", false},
	{"DISM.exe", false},
	{"fsutil.exe", false},
	{"cleanmgr.exe", false},
	{"shutdown.exe", false},
}

// DefaultChecks builds the checks for cfg.
func DefaultChecks(cfg *config.Config) []Check {
	checks := []Check{NewOSCheck(cfg.Security.MinWindowsVersion)}
	for _, tool := range RequiredTools {
		checks = append(checks, &ToolCheck{Tool: tool.Name, IsCritical: tool.Critical})
	}
	return checks
}

// Run executes every check, logs the outcome and returns ErrPreflight
// wrapping the critical failures, if any.
func Run(ctx context.Context, checks []Check, logger *logging.EnterpriseLogger) ([]Result, error) {
	logger.Log("INFO", "Running preflight checks", "count", len(checks))

	results := make([]Result, 0, len(checks))
	var critical []error
	for _, check := range checks {
		res := Result{Name: check.Name(), Critical: check.Critical(), Passed: true}
		if err := check.Run(ctx); err != nil {
			res.Passed = false
			res.Message = err.Error()
			if check.Critical() {
				logger.Log("ERROR", "Critical preflight check failed", "check", check.Name(), "error", err.Error())
				critical = append(critical, err)
			} else {
				logger.Log("WARN", "Preflight check failed", "check", check.Name(), "error", err.Error())
			}
		} else {
			logger.Log("DEBUG", "Preflight check passed", "check", check.Name())
		}
		results = append(results, res)
	}

	if len(critical) > 0 {
		return results, fmt.Errorf("%w: %w", ErrPreflight, errors.Join(critical...))
	}
	logger.Log("INFO", "Initialization successful. Starting main program.")
	return results, nil
}
