package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"systemrepair/internal/cli"
	"systemrepair/internal/config"
	"systemrepair/internal/launcher"
	"systemrepair/internal/logging"
	"systemrepair/internal/maintenance"
	"systemrepair/internal/preflight"
	"systemrepair/internal/reporting"
	"systemrepair/internal/security"
	"systemrepair/internal/system"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Options are the command line overrides of the configuration file.
type Options struct {
	ConfigPath string
	Profile    string
	Plan       string
	Skip       []string
	DryRun     bool
	Verbose    bool
	Yes        bool
	NoRestart  bool
	NoElevate  bool
}

// App is one run of the repair tool, from elevation to restart.
type App struct {
	cfg        *config.Config
	logger     *logging.EnterpriseLogger
	console    *cli.Console
	env        *maintenance.Env
	elevator   *security.Elevator
	checks     []preflight.Check
	executable string
}

// LoadConfig reads the configuration file and applies opts on top of it.
// An empty log file or report path is resolved against the user's Desktop.
func LoadConfig(opts Options, paths system.Paths) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if opts.Profile != "" {
		if err := config.ApplyProfile(cfg, opts.Profile); err != nil {
			return nil, err
		}
	}
	if opts.DryRun {
		cfg.Run.DryRun = true
	}
	if opts.Yes {
		cfg.Run.Pause = false
	}
	if opts.NoRestart {
		cfg.Restart.Enabled = false
	}
	if opts.Plan != "" {
		cfg.Run.Plan = opts.Plan
	}
	if len(opts.Skip) > 0 {
		cfg.Run.Skip = append(cfg.Run.Skip, opts.Skip...)
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = paths.DesktopFile(logging.LogFileName)
	}
	if cfg.Reporting.Path == "" {
		cfg.Reporting.Path = paths.Desktop
	}

	if maintenance.GetPlanByName(cfg.Run.Plan) == nil {
		return nil, fmt.Errorf("unknown plan %q (available: %s)", cfg.Run.Plan, strings.Join(maintenance.ListPlanNames(), ", "))
	}
	if err := maintenance.ValidateStepIDs(cfg.Run.Skip); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewApp builds an App bound to the host: real registry, services, disks
// and the console on stdin/stdout.
func NewApp(opts Options) (*App, error) {
	paths, err := system.ResolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(opts, paths)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := logging.NewEnterpriseLogger(cfg, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	console := cli.NewStdConsole(!cfg.Run.Pause)
	env := &maintenance.Env{
		Exec:     system.NewShellExecutor(),
		Registry: system.NewRegistry(),
		Services: system.NewServiceManager(),
		Disk:     system.NewDiskInspector(),
		Paths:    paths,
		Logger:   logger,
		Out:      console,
		DryRun:   cfg.Run.DryRun,
	}

	executable, err := os.Executable()
	if err != nil {
		logger.Log("WARN", "Could not resolve executable path", "error", err.Error())
		executable = os.Args[0]
	}

	return NewAppWithDependencies(cfg, logger, console, env, newElevator(opts, logger, console), preflight.DefaultChecks(cfg), executable), nil
}

// newElevator binds the elevation bootstrap to this process. --no-elevate
// keeps the admin check but never shows the UAC prompt.
func newElevator(opts Options, logger *logging.EnterpriseLogger, out security.Notifier) *security.Elevator {
	e := security.NewElevator(logger, out)
	e.NoRelaunch = opts.NoElevate
	return e
}

// ExportConfig writes the configuration a run with opts would use to path,
// or to the default location when path is empty. It returns the written path.
func ExportConfig(opts Options, paths system.Paths, path string) (string, error) {
	cfg, err := LoadConfig(opts, paths)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Save(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}

// NewAppWithDependencies creates an App from prepared parts.
func NewAppWithDependencies(cfg *config.Config, logger *logging.EnterpriseLogger, console *cli.Console, env *maintenance.Env,
	elevator *security.Elevator, checks []preflight.Check, executable string) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		console:    console,
		env:        env,
		elevator:   elevator,
		checks:     checks,
		executable: executable,
	}
}

// Logger returns the run logger.
func (a *App) Logger() *logging.EnterpriseLogger {
	return a.logger
}

// Close flushes and closes the log file.
func (a *App) Close() error {
	return a.logger.Close()
}

// Run executes the whole tool and returns the process exit code.
func (a *App) Run(ctx context.Context) int {
	a.console.Banner("System Repair Tool - Initialization")
	a.logger.Log("INFO", "System repair tool started",
		"version", reporting.Version,
		"plan", a.cfg.Run.Plan,
		"dry_run", a.cfg.Run.DryRun,
		"pauses", !a.console.AutoContinue(),
		"log_file", a.logger.Path())

	relaunched, err := security.SecurityChecks(a.cfg, a.elevator)
	if err != nil {
		a.fatal(ctx, err)
		return ExitError
	}
	if relaunched {
		return ExitSuccess
	}
	elevated, err := a.elevator.IsAdmin()
	if err != nil {
		a.logger.Log("DEBUG", "Could not determine elevation status for the report", "error", err.Error())
	}

	a.installLauncher()

	checks, err := preflight.Run(ctx, a.checks, a.logger)
	if err != nil {
		a.fatal(ctx, err)
		return ExitError
	}
	a.console.Success("Initialization successful! Starting main program...")

	drive := a.env.Paths.SystemRoot()
	freeBefore := a.freeSpace(drive)

	run, runErr := maintenance.NewTaskOrchestrator(a.env, a.console).ExecutePlan(ctx, a.cfg.Run.Plan, a.cfg.Run.Skip)
	if run == nil {
		a.fatal(ctx, runErr)
		return ExitError
	}
	if runErr != nil {
		a.logger.Log("WARN", "Run interrupted", "error", runErr.Error())
		a.console.Warn("Run interrupted: %v", runErr)
	}

	a.writeReport(run, reporting.RunInfo{
		Elevated:   elevated,
		Preflight:  checks,
		Drive:      drive,
		FreeBefore: freeBefore,
		FreeAfter:  a.freeSpace(drive),
	})

	if a.shouldRestart(ctx, run) {
		a.console.Success("\nAll optimization tasks completed successfully!")
		if run.Failed > 0 {
			a.console.Warn("%d step(s) reported errors; see %s for details.", run.Failed, a.logger.Path())
		}
		a.console.Info("System needs to restart to apply changes.")
		if err := a.console.WaitEnter(ctx, "\nPress Enter to restart your computer..."); err != nil {
			a.logger.Log("WARN", "Restart cancelled", "error", err.Error())
		} else if err := maintenance.ScheduleRestart(ctx, a.env, a.cfg.Restart.RestorePoint, a.cfg.Restart.DelaySeconds); err != nil {
			a.logger.Log("ERROR", "Restart sequence reported errors", "error", err.Error())
		}
	}

	a.logger.Log("INFO", "Script execution completed.")
	_ = a.console.WaitEnter(ctx, "\nPress Enter to exit...")
	return ExitSuccess
}

func (a *App) shouldRestart(ctx context.Context, run *maintenance.Report) bool {
	if ctx.Err() != nil || run.Status == maintenance.StatusAborted {
		return false
	}
	if !a.cfg.Restart.Enabled {
		a.logger.Log("INFO", "Restart disabled, skipping")
		return false
	}
	return true
}

func (a *App) installLauncher() {
	if !a.cfg.Launcher.Enabled {
		return
	}
	if a.cfg.Run.DryRun {
		a.logger.Log("INFO", "DRY RUN: launcher not written", "batch", a.cfg.Launcher.BatchName)
		a.console.Info("[DRY RUN] create %s and %s", a.cfg.Launcher.BatchName, a.env.Paths.DesktopFile(a.cfg.Launcher.ShortcutName))
		return
	}
	launcher.New(a.cfg.Launcher, a.executable, a.env.Paths.Desktop, a.logger, a.console).Install()
}

func (a *App) freeSpace(drive string) uint64 {
	free, err := a.env.Disk.FreeSpace(drive)
	if err != nil {
		a.logger.Log("DEBUG", "Could not read free space", "drive", drive, "error", err.Error())
		return 0
	}
	return free
}

func (a *App) writeReport(run *maintenance.Report, info reporting.RunInfo) {
	report := reporting.GenerateReport(run, a.cfg, info)
	path, err := reporting.SaveReport(report, a.cfg, a.env.Paths.Desktop)
	if err != nil {
		a.logger.Log("ERROR", "Failed to save report", "error", err.Error())
		a.console.Warn("Could not save report: %v", err)
	} else if path != "" {
		a.logger.Log("INFO", "Report saved", "path", path)
		a.console.Info("Report saved to: %s", path)
	}
	reporting.WriteSummary(a.console.Writer(), report)
}

// fatal reports a bootstrap failure and waits so a double-clicked console
// window stays open.
func (a *App) fatal(ctx context.Context, err error) {
	a.logger.Log("FATAL", "A critical error occurred during initialization!", "error", err.Error())

	title := "A critical error occurred during initialization!"
	if errors.Is(err, security.ErrElevation) {
		title = "Failed to get admin rights!"
	}
	a.console.ErrorBlock(title, err)
	if path := a.logger.Path(); path != "" {
		a.console.Info("Check the log file for details: %s", path)
	}
	_ = a.console.WaitEnter(ctx, "\nPress Enter to exit...")
}
