package config

import (
	"fmt"
	"strings"
)

// ApplyProfile применяет профиль запуска к конфигурации
func ApplyProfile(cfg *Config, profile string) error {
	switch profile {
	case "interactive":
		cfg.Run.Pause = true
		cfg.Run.DryRun = false
		cfg.Restart.Enabled = true
	case "unattended":
		// No prompts at all; the machine still reboots at the end.
		cfg.Run.Pause = false
		cfg.Run.DryRun = false
		cfg.Restart.Enabled = true
	case "preview":
		cfg.Run.Pause = false
		cfg.Run.DryRun = true
		cfg.Restart.Enabled = false
		cfg.Launcher.Enabled = false
	default:
		return fmt.Errorf("unknown profile: %s (available: %s)", profile, strings.Join(Profiles(), ", "))
	}
	return nil
}

// Profiles lists the names accepted by ApplyProfile.
func Profiles() []string {
	return []string{"interactive", "unattended", "preview"}
}
