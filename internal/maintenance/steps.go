package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"systemrepair/internal/system"
)

// Step IDs in execution order.
const (
	StepRestorePoint    = "restore_point"
	StepStartupPrograms = "startup_programs"
	StepTempFiles       = "temp_files"
	StepBrowserData     = "browser_data"
	StepServices        = "services"
	StepRegistryCleanup = "registry_cleanup"
	StepPerformance     = "performance"
	StepSystemDrives    = "system_drives"
	StepNetwork         = "network"
	StepCPUPower        = "cpu_power"
	StepPrintSpooler    = "print_spooler"
	StepGaming          = "gaming"
	StepDefenderHistory = "defender_history"
	StepSSD             = "ssd"
	StepWindowsUpdate   = "windows_update"
	StepFontCache       = "font_cache"
	StepSystemRepair    = "system_repair"
)

// StepInfo describes a step for listings.
type StepInfo struct {
	ID          string
	Title       string
	Description string
}

// Catalog returns every step in the fixed execution order.
func Catalog() []StepInfo {
	return []StepInfo{
		{StepRestorePoint, "Creating System Restore Point", "Enable System Restore on the system drive and create a restore point"},
		{StepStartupPrograms, "Disabling startup programs", "Back up HKCU Run entries to the Desktop, then delete them"},
		{StepTempFiles, "Clearing temporary files", "Empty the user and Windows temp folders"},
		{StepBrowserData, "Clearing browser data", "Remove Chrome and Edge default profiles and Firefox profiles"},
		{StepServices, "Optimizing Windows services", "Disable and stop telemetry, SysMain and Windows Search"},
		{StepRegistryCleanup, "Cleaning registry", "Clear Explorer RunMRU, TypedPaths and RecentDocs"},
		{StepPerformance, "Optimizing performance settings", "Best-performance visual effects, High Performance plan, hibernation off"},
		{StepSystemDrives, "Cleaning system drives", "Disk Cleanup, Windows Update cache, event logs"},
		{StepNetwork, "Optimizing network settings", "Tune global TCP parameters with netsh"},
		{StepCPUPower, "Optimizing CPU power settings", "Pin processor state to 100%"},
		{StepPrintSpooler, "Clearing print spooler", "Drop stuck print jobs and restart the spooler"},
		{StepGaming, "Optimizing gaming settings", "Disable Game DVR and raise game scheduling priority"},
		{StepDefenderHistory, "Clearing Windows Defender history", "Remove Defender definitions and restore points"},
		{StepSSD, "Optimizing SSD settings", "NTFS tweaks and TRIM when the system disk is an SSD"},
		{StepWindowsUpdate, "Repairing Windows Updates", "Reset SoftwareDistribution and catroot2"},
		{StepFontCache, "Clearing font cache", "Rebuild the Windows font cache"},
		{StepSystemRepair, "Running system repair commands", "sfc, DISM, chkdsk, network stack reset, defrag"},
	}
}

// StepIDs returns the IDs of Catalog in order.
func StepIDs() []string {
	steps := Catalog()
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

// ValidateStepIDs rejects IDs that name no step.
func ValidateStepIDs(ids []string) error {
	known := make(map[string]bool)
	for _, id := range StepIDs() {
		known[id] = true
	}
	var unknown []string
	for _, id := range ids {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown step ID(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}

const (
	runKey         = `Software\Microsoft\Windows\CurrentVersion\Run`
	explorerKey    = `Software\Microsoft\Windows\CurrentVersion\Explorer`
	systemProfile  = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\Multimedia\SystemProfile`
	highPerfScheme = "8c5e7fda-e8bf-4a96-9a85-a6e23a8c635c"

	// StartupBackupName is written to the Desktop before startup entries are deleted.
	StartupBackupName = "startup_backup.txt"
)

func title(id string) string {
	for _, s := range Catalog() {
		if s.ID == id {
			return s.Title
		}
	}
	return id
}

func restorePointStep(env *Env) Task {
	drive := env.Paths.SystemRoot()
	return &ActionTask{
		ID:        StepRestorePoint,
		StepTitle: title(StepRestorePoint),
		Intro:     "Creating System Restore Point...",
		Actions: []Action{
			CommandAction{Cmd: system.PowerShell(fmt.Sprintf(`Enable-ComputerRestore -Drive "%s"`, drive))},
			CommandAction{Cmd: system.PowerShell(`Checkpoint-Computer -Description "Before System Optimization" -RestorePointType "MODIFY_SETTINGS"`)},
		},
		StopOnError: true,
		Done:        "Restore point created successfully!",
		env:         env,
	}
}

func tempFilesStep(env *Env) Task {
	return &ActionTask{
		ID:        StepTempFiles,
		StepTitle: title(StepTempFiles),
		Actions: []Action{
			ClearDirectory{Path: env.Paths.Temp},
			ClearDirectory{Path: filepath.Join(env.Paths.WinDir, "Temp")},
		},
		env: env,
	}
}

var telemetryServices = []string{"DiagTrack", "dmwappushservice", "SysMain", "WSearch"}

func servicesStep(env *Env) Task {
	actions := make([]Action, 0, len(telemetryServices))
	for _, name := range telemetryServices {
		actions = append(actions, Noted(
			Group("disable and stop service "+name, DisableService(name), StopService(name)),
			fmt.Sprintf("Service %s disabled and stopped.", name),
		))
	}
	return &ActionTask{ID: StepServices, StepTitle: title(StepServices), Actions: actions, env: env}
}

func registryCleanupStep(env *Env) Task {
	var actions []Action
	for _, sub := range []string{"RunMRU", "TypedPaths", "RecentDocs"} {
		actions = append(actions, RegistryClearValues{Root: system.CurrentUser, Path: explorerKey + `\` + sub})
	}
	return &ActionTask{ID: StepRegistryCleanup, StepTitle: title(StepRegistryCleanup), Actions: actions, env: env}
}

func performanceStep(env *Env) Task {
	return &ActionTask{
		ID:        StepPerformance,
		StepTitle: title(StepPerformance),
		Actions: []Action{
			Noted(RegistrySetDWORD{Root: system.CurrentUser, Path: explorerKey + `\VisualEffects`, ValueName: "VisualFXSetting", Value: 2}, "Disabled visual effects."),
			Noted(Run("powercfg", "/setactive", highPerfScheme), "Set power plan to High Performance."),
			Noted(Run("powercfg", "/hibernate", "off"), "Disabled hibernation."),
		},
		StopOnError: true,
		env:         env,
	}
}

func systemDrivesStep(env *Env) Task {
	return &ActionTask{
		ID:        StepSystemDrives,
		StepTitle: title(StepSystemDrives),
		Intro:     "Running Disk Cleanup...",
		Actions: []Action{
			Run("cleanmgr", "/sagerun:1"),
			StopService("wuauserv"),
			RemoveTree{Path: filepath.Join(env.Paths.WinDir, "SoftwareDistribution"), IgnoreErrors: true},
			Noted(StartService("wuauserv"), "Windows Update cache cleared."),
			Noted(CommandAction{Cmd: system.PowerShell("Get-EventLog -LogName * | Clear-EventLog")}, "Event Logs cleared."),
		},
		StopOnError: true,
		env:         env,
	}
}

var tcpTuning = [][]string{
	{"global", "autotuninglevel=normal"},
	{"global", "chimney=enabled"},
	{"global", "dca=enabled"},
	{"global", "netdma=enabled"},
	{"global", "ecncapability=enabled"},
	{"global", "timestamps=disabled"},
	{"heuristics", "disabled"},
	{"global", "rss=enabled"},
}

func networkStep(env *Env) Task {
	actions := make([]Action, 0, len(tcpTuning))
	for _, setting := range tcpTuning {
		actions = append(actions, Run("netsh", append([]string{"int", "tcp", "set"}, setting...)...))
	}
	return &ActionTask{ID: StepNetwork, StepTitle: title(StepNetwork), Actions: actions, env: env}
}

func cpuPowerStep(env *Env) Task {
	return &ActionTask{
		ID:        StepCPUPower,
		StepTitle: title(StepCPUPower),
		Actions: []Action{
			Run("powercfg", "-setacvalueindex", "scheme_current", "sub_processor", "PROCTHROTTLEMAX", "100"),
			Run("powercfg", "-setacvalueindex", "scheme_current", "sub_processor", "PROCTHROTTLEMIN", "100"),
			Run("powercfg", "-setactive", "scheme_current"),
		},
		StopOnError: true,
		Done:        "Optimized CPU power settings.",
		env:         env,
	}
}

func printSpoolerStep(env *Env) Task {
	return &ActionTask{
		ID:        StepPrintSpooler,
		StepTitle: title(StepPrintSpooler),
		Actions: []Action{
			StopService("Spooler"),
			Noted(RecreateDir{
				Path:         filepath.Join(env.Paths.WinDir, "System32", "spool", "PRINTERS"),
				OnlyExisting: true,
			}, "Cleared print spooler."),
			StartService("Spooler"),
		},
		StopOnError: true,
		env:         env,
	}
}

func gamingStep(env *Env) Task {
	return &ActionTask{
		ID:        StepGaming,
		StepTitle: title(StepGaming),
		Actions: []Action{
			RegistrySetDWORD{Root: system.LocalMachine, Path: `SOFTWARE\Policies\Microsoft\Windows\GameDVR`, ValueName: "AllowGameDVR", Value: 0},
			RegistrySetDWORD{Root: system.CurrentUser, Path: `System\GameConfigStore`, ValueName: "GameDVR_Enabled", Value: 0},
			RegistrySetDWORD{Root: system.LocalMachine, Path: systemProfile, ValueName: "SystemResponsiveness", Value: 0},
			RegistrySetDWORD{Root: system.LocalMachine, Path: systemProfile + `\Tasks\Games`, ValueName: "GPU Priority", Value: 8},
			RegistrySetDWORD{Root: system.LocalMachine, Path: systemProfile + `\Tasks\Games`, ValueName: "Priority", Value: 6},
		},
		StopOnError: true,
		Done:        "Optimized gaming settings.",
		env:         env,
	}
}

func defenderHistoryStep(env *Env) Task {
	mpCmdRun := filepath.Join(env.Paths.ProgramFiles, "Windows Defender", "MpCmdRun.exe")
	return &ActionTask{
		ID:        StepDefenderHistory,
		StepTitle: title(StepDefenderHistory),
		Actions: []Action{
			Run(mpCmdRun, "-RemoveDefinitions", "-All"),
			Run(mpCmdRun, "-DeleteAllRestorePoints"),
		},
		StopOnError: true,
		Done:        "Cleared Windows Defender history and quarantine.",
		env:         env,
	}
}

var updateServices = []string{"wuauserv", "cryptSvc", "bits", "msiserver"}

func windowsUpdateStep(env *Env) Task {
	var actions []Action
	for _, name := range updateServices {
		actions = append(actions, StopService(name))
	}
	distribution := filepath.Join(env.Paths.WinDir, "SoftwareDistribution")
	catroot := filepath.Join(env.Paths.WinDir, "System32", "catroot2")
	actions = append(actions,
		RenamePath{From: distribution, To: distribution + ".old"},
		RenamePath{From: catroot, To: catroot + ".old"},
	)
	for _, name := range updateServices {
		actions = append(actions, StartService(name))
	}
	return &ActionTask{ID: StepWindowsUpdate, StepTitle: title(StepWindowsUpdate), Actions: actions, env: env}
}

func fontCacheStep(env *Env) Task {
	return &ActionTask{
		ID:        StepFontCache,
		StepTitle: title(StepFontCache),
		Actions: []Action{
			StopService("FontCache"),
			StopService("FontCache3.0.0.0"),
			RemoveTree{Path: filepath.Join(env.Paths.WinDir, "ServiceProfiles", "LocalService", "AppData", "Local", "FontCache")},
			StartService("FontCache"),
			StartService("FontCache3.0.0.0"),
		},
		StopOnError: true,
		Done:        "Cleared font cache.",
		env:         env,
	}
}

func systemRepairStep(env *Env) Task {
	drive := env.Paths.SystemDrive
	return &ActionTask{
		ID:        StepSystemRepair,
		StepTitle: title(StepSystemRepair),
		Actions: []Action{
			Run("sfc", "/scannow"),
			Run("DISM", "/Online", "/Cleanup-Image", "/RestoreHealth"),
			// chkdsk cannot lock the system volume and asks to schedule the
			// check for the next restart.
			CommandAction{Cmd: system.Command{Name: "chkdsk", Args: []string{"/f", "/r", drive}, Stdin: "Y\n"}},
			Run("ipconfig", "/flushdns"),
			Run("netsh", "winsock", "reset"),
			Run("netsh", "int", "ip", "reset"),
			Run("defrag", drive, "/U", "/V"),
		},
		env: env,
	}
}

// StartupTask backs up and clears the current user's Run key.
type StartupTask struct {
	env *Env
}

func (t *StartupTask) Name() string  { return StepStartupPrograms }
func (t *StartupTask) Title() string { return title(StepStartupPrograms) }

func (t *StartupTask) Execute(ctx context.Context) error {
	env := t.env
	env.log("INFO", "Disabling startup programs.")
	env.out().Info("Disabling startup programs...")

	values, err := env.Registry.ReadValues(system.CurrentUser, runKey)
	if err != nil {
		return fmt.Errorf("read startup entries: %w", err)
	}

	backupPath := env.Paths.DesktopFile(StartupBackupName)
	if env.DryRun {
		env.log("INFO", "DRY RUN: startup entries not changed", "count", len(values), "backup", backupPath)
		env.out().Info("[DRY RUN] would back up %d startup entries to %s and delete them", len(values), backupPath)
		return nil
	}

	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "%s: %s\n", v.Name, v.Data)
	}
	if err := os.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	if err := os.WriteFile(backupPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write startup backup: %w", err)
	}
	env.log("INFO", "Startup programs backed up", "path", backupPath, "count", len(values))
	env.out().Info("Startup programs backed up to %s", backupPath)

	var errs []error
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := env.Registry.DeleteValue(system.CurrentUser, runKey, v.Name); err != nil {
			errs = append(errs, err)
			env.log("WARN", "Could not delete startup item", "name", v.Name, "error", err.Error())
			continue
		}
		env.log("INFO", "Deleted startup item", "name", v.Name)
		env.out().Info("Deleted startup item: %s", v.Name)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	env.log("INFO", "Startup programs disabled.")
	env.out().Success("Startup programs disabled.")
	return nil
}

// BrowserTask removes browser profile data.
type BrowserTask struct {
	env *Env
}

type browserProfile struct {
	name string
	path string
	// perProfile removes each child of path instead of path itself.
	perProfile bool
}

func (t *BrowserTask) profiles() []browserProfile {
	local := t.env.Paths.LocalAppData
	return []browserProfile{
		{name: "Chrome", path: filepath.Join(local, "Google", "Chrome", "User Data", "Default")},
		{name: "Firefox", path: filepath.Join(local, "Mozilla", "Firefox", "Profiles"), perProfile: true},
		{name: "Edge", path: filepath.Join(local, "Microsoft", "Edge", "User Data", "Default")},
	}
}

func (t *BrowserTask) Name() string  { return StepBrowserData }
func (t *BrowserTask) Title() string { return title(StepBrowserData) }

func (t *BrowserTask) Execute(ctx context.Context) error {
	env := t.env
	var errs []error

	for _, b := range t.profiles() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := os.Stat(b.path); err != nil {
			env.log("DEBUG", "Browser data not found", "browser", b.name, "path", b.path)
			continue
		}

		env.log("INFO", "Clearing browser data", "browser", b.name, "path", b.path)
		env.out().Info("Clearing %s data...", b.name)

		targets := []string{b.path}
		if b.perProfile {
			entries, err := os.ReadDir(b.path)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
				env.out().Warn("Error clearing %s data: %v", b.name, err)
				continue
			}
			targets = targets[:0]
			for _, e := range entries {
				targets = append(targets, filepath.Join(b.path, e.Name()))
			}
		}

		actions := make([]Action, len(targets))
		for i, p := range targets {
			actions[i] = RemoveTree{Path: p}
		}
		if err := runActions(ctx, env, actions, false); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
			continue
		}
		env.log("INFO", "Browser data cleared", "browser", b.name)
		env.out().Success("%s data cleared.", b.name)
	}

	return errors.Join(errs...)
}

// SSDTask applies NTFS settings suited to solid state system disks.
type SSDTask struct {
	env *Env
}

func (t *SSDTask) Name() string  { return StepSSD }
func (t *SSDTask) Title() string { return title(StepSSD) }

func (t *SSDTask) Execute(ctx context.Context) error {
	env := t.env
	ssd, err := env.Disk.IsSSD(ctx, env.Paths.SystemDrive)
	if err != nil {
		return fmt.Errorf("detect SSD: %w", err)
	}
	if !ssd {
		env.log("INFO", "No SSD detected. Skipping SSD optimizations.")
		env.out().Info("No SSD detected. Skipping SSD optimizations.")
		return ErrSkipped
	}

	actions := []Action{
		Run("fsutil", "behavior", "set", "DisableLastAccess", "1"),
		Run("fsutil", "behavior", "set", "EncryptPagingFile", "0"),
		Run("fsutil", "behavior", "set", "DisableDeleteNotify", "0"),
	}
	if err := runActions(ctx, env, actions, true); err != nil {
		return err
	}
	env.log("INFO", "Optimized SSD settings.")
	env.out().Success("Optimized SSD settings.")
	return nil
}
