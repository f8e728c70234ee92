package maintenance

import (
	"context"
	"errors"
	"strconv"

	"systemrepair/internal/system"
)

// RestorePointCommand creates the "Before System Restart" restore point via WMI.
func RestorePointCommand() system.Command {
	return system.Command{
		Name: "wmic.exe",
		Args: []string{`/Namespace:\\root\default`, "Path", "SystemRestore", "Call", "CreateRestorePoint", `"Before System Restart",`, "100,", "7"},
		Raw:  true,
	}
}

// ScheduleRestart creates a restore point (when restorePoint is set) and asks
// Windows to reboot after delaySeconds. Failures are returned for logging;
// a failed restore point does not cancel the restart.
func ScheduleRestart(ctx context.Context, env *Env, restorePoint bool, delaySeconds int) error {
	env.log("INFO", "System restart initiated.")

	var errs []error
	if restorePoint {
		if err := runActions(ctx, env, []Action{CommandAction{Cmd: RestorePointCommand()}}, true); err != nil {
			env.log("ERROR", "Failed to create restore point before restart", "error", err.Error())
			env.out().Error("Failed to create restore point: %v", err)
			errs = append(errs, err)
		}
	}

	shutdown := Run("shutdown", "/r", "/t", strconv.Itoa(delaySeconds))
	if err := runActions(ctx, env, []Action{shutdown}, true); err != nil {
		env.log("ERROR", "Failed to schedule restart", "error", err.Error())
		env.out().Error("Failed to schedule restart: %v", err)
		return errors.Join(append(errs, err)...)
	}

	env.out().Info("System will restart in %d seconds...", delaySeconds)
	env.log("INFO", "System restart scheduled", "delay_seconds", delaySeconds)
	return errors.Join(errs...)
}
