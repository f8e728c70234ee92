package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up next to the executable when no --config is given.
const DefaultFileName = "systemrepair.yaml"

// Config is the on-disk configuration of the repair tool.
type Config struct {
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Run       RunConfig       `yaml:"run"`
	Restart   RestartConfig   `yaml:"restart"`
	Launcher  LauncherConfig  `yaml:"launcher"`
	Reporting ReportingConfig `yaml:"reporting"`
}

type SecurityConfig struct {
	RequireAdmin      bool   `yaml:"require_admin"`
	MinWindowsVersion string `yaml:"min_windows_version"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File defaults to repair_tool_log.txt on the user's Desktop.
	File   string `yaml:"file"`
	Append bool   `yaml:"append"`
}

type RunConfig struct {
	Pause  bool     `yaml:"pause"`
	Plan   string   `yaml:"plan"`
	Skip   []string `yaml:"skip"`
	DryRun bool     `yaml:"dry_run"`
}

type RestartConfig struct {
	Enabled      bool `yaml:"enabled"`
	DelaySeconds int  `yaml:"delay_seconds"`
	RestorePoint bool `yaml:"restore_point"`
}

type LauncherConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BatchName    string `yaml:"batch_name"`
	ShortcutName string `yaml:"shortcut_name"`
}

type ReportingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path defaults to the user's Desktop.
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Security: SecurityConfig{
			RequireAdmin:      true,
			MinWindowsVersion: "10.0",
		},
		Logging: LoggingConfig{
			Level:  "DEBUG",
			File:   "",
			Append: false,
		},
		Run: RunConfig{
			Pause:  true,
			Plan:   "full",
			Skip:   []string{},
			DryRun: false,
		},
		Restart: RestartConfig{
			Enabled:      true,
			DelaySeconds: 10,
			RestorePoint: true,
		},
		Launcher: LauncherConfig{
			Enabled:      true,
			BatchName:    "Run_Repair_Tool.bat",
			ShortcutName: "System Repair Tool.bat",
		},
		Reporting: ReportingConfig{
			Enabled: true,
			Path:    "",
			Format:  "json",
		},
	}
}

// Load загружает конфигурацию из файла. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Fields absent from the file keep their default values.
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	config.Logging.Level = strings.ToUpper(config.Logging.Level)

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию на валидность
func Validate(config *Config) error {
	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLevels[config.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if config.Restart.DelaySeconds < 0 || config.Restart.DelaySeconds > 600 {
		return fmt.Errorf("restart delay must be between 0 and 600 seconds, got %d", config.Restart.DelaySeconds)
	}

	switch config.Reporting.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid report format: %s", config.Reporting.Format)
	}

	if config.Launcher.Enabled {
		if config.Launcher.BatchName == "" || config.Launcher.ShortcutName == "" {
			return fmt.Errorf("launcher batch_name and shortcut_name must not be empty")
		}
		for _, name := range []string{config.Launcher.BatchName, config.Launcher.ShortcutName} {
			if filepath.Base(name) != name {
				return fmt.Errorf("launcher file name must not contain a directory: %s", name)
			}
		}
	}

	for _, id := range config.Run.Skip {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("empty step id in run.skip")
		}
	}

	return nil
}

// Save сохраняет конфигурацию в файл
func Save(config *Config, path string) error {
	if err := Validate(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultPath returns systemrepair.yaml next to the running executable.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}
