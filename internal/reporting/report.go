package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"
	"gopkg.in/yaml.v3"

	"systemrepair/internal/config"
	"systemrepair/internal/maintenance"
	"systemrepair/internal/preflight"
)

// Version is stamped into every report.
const Version = "1.0.0"

// Report представляет отчёт о запуске
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Version   string    `json:"version" yaml:"version"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Hostname  string    `json:"hostname" yaml:"hostname"`
	OS        string    `json:"os" yaml:"os"`
	Plan      string    `json:"plan" yaml:"plan"`
	DryRun    bool      `json:"dry_run" yaml:"dry_run"`
	Elevated  bool      `json:"elevated" yaml:"elevated"`
	Status    string    `json:"status" yaml:"status"`

	Config    map[string]interface{}   `json:"config" yaml:"config"`
	Preflight []preflight.Result       `json:"preflight,omitempty" yaml:"preflight,omitempty"`
	Steps     []maintenance.StepResult `json:"steps" yaml:"steps"`
	Summary   SummaryReport            `json:"summary" yaml:"summary"`
	Disk      DiskReport               `json:"disk" yaml:"disk"`

	Duration string `json:"duration" yaml:"duration"`
}

// SummaryReport представляет сводную информацию
type SummaryReport struct {
	Total       int     `json:"total" yaml:"total"`
	Completed   int     `json:"completed" yaml:"completed"`
	Failed      int     `json:"failed" yaml:"failed"`
	Skipped     int     `json:"skipped" yaml:"skipped"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

// DiskReport compares free space on the system drive around the run.
type DiskReport struct {
	Drive           string `json:"drive" yaml:"drive"`
	FreeBytesBefore uint64 `json:"free_bytes_before" yaml:"free_bytes_before"`
	FreeBytesAfter  uint64 `json:"free_bytes_after" yaml:"free_bytes_after"`
	FreedBytes      int64  `json:"freed_bytes" yaml:"freed_bytes"`
}

// RunInfo is what the caller knows about the run besides the step results.
type RunInfo struct {
	Elevated   bool
	Preflight  []preflight.Result
	Drive      string
	FreeBefore uint64
	FreeAfter  uint64
}

// HostInfo returns the hostname and an OS description.
var HostInfo = func() (hostname, osName string) {
	info, err := host.InfoWithContext(context.Background())
	if err != nil {
		hostname, _ = os.Hostname()
		return hostname, "unknown"
	}
	return info.Hostname, strings.TrimSpace(fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion))
}

// GenerateReport генерирует отчёт о запуске
func GenerateReport(run *maintenance.Report, cfg *config.Config, info RunInfo) *Report {
	hostname, osName := HostInfo()

	report := &Report{
		RunID:     uuid.NewString(),
		Version:   Version,
		Timestamp: run.StartTime,
		Hostname:  hostname,
		OS:        osName,
		Plan:      run.Plan,
		DryRun:    run.DryRun,
		Elevated:  info.Elevated,
		Status:    run.Status,
		Config:    configToMap(cfg),
		Preflight: info.Preflight,
		Steps:     run.Steps,
		Disk: DiskReport{
			Drive:           info.Drive,
			FreeBytesBefore: info.FreeBefore,
			FreeBytesAfter:  info.FreeAfter,
			FreedBytes:      int64(info.FreeAfter) - int64(info.FreeBefore),
		},
		Duration: run.TotalDuration.Round(time.Second).String(),
	}

	report.Summary = SummaryReport{
		Total:     len(run.Steps),
		Completed: run.Completed,
		Failed:    run.Failed,
		Skipped:   run.Skipped,
	}
	if ran := run.Completed + run.Failed; ran > 0 {
		report.Summary.SuccessRate = float64(run.Completed) / float64(ran) * 100
	}

	return report
}

// SaveReport writes the report as repair_report_<timestamp>.<format> into
// cfg.Reporting.Path, or into defaultDir when the path is empty. It returns
// the written path, or "" when reporting is disabled.
func SaveReport(report *Report, cfg *config.Config, defaultDir string) (string, error) {
	if !cfg.Reporting.Enabled {
		return "", nil
	}

	dir := cfg.Reporting.Path
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	format := cfg.Reporting.Format
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = json.MarshalIndent(report, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(report)
	default:
		return "", fmt.Errorf("unsupported report format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("serialize report: %w", err)
	}

	filename := fmt.Sprintf("repair_report_%s.%s", report.Timestamp.Format("20060102_150405"), format)
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// WriteSummary prints a short human-readable summary of the run.
func WriteSummary(w io.Writer, report *Report) {
	fmt.Fprintf(w, "\nRun %s: %s (%s)\n", report.RunID, report.Status, report.Duration)
	fmt.Fprintf(w, "Steps: %d completed, %d failed, %d skipped\n",
		report.Summary.Completed, report.Summary.Failed, report.Summary.Skipped)
	for _, s := range report.Steps {
		if s.Status == maintenance.StatusFailed {
			fmt.Fprintf(w, "  - %s: %s\n", s.Title, s.Error)
		}
	}
	if report.Disk.FreeBytesBefore > 0 && report.Disk.FreedBytes > 0 {
		fmt.Fprintf(w, "Freed on %s: %s\n", report.Disk.Drive, formatBytes(uint64(report.Disk.FreedBytes)))
	}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// configToMap преобразует Config в map для сериализации
func configToMap(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"security": map[string]interface{}{
			"require_admin":       cfg.Security.RequireAdmin,
			"min_windows_version": cfg.Security.MinWindowsVersion,
		},
		"run": map[string]interface{}{
			"pause":   cfg.Run.Pause,
			"plan":    cfg.Run.Plan,
			"skip":    cfg.Run.Skip,
			"dry_run": cfg.Run.DryRun,
		},
		"restart": map[string]interface{}{
			"enabled":       cfg.Restart.Enabled,
			"delay_seconds": cfg.Restart.DelaySeconds,
			"restore_point": cfg.Restart.RestorePoint,
		},
		"logging": map[string]interface{}{
			"level":  cfg.Logging.Level,
			"file":   cfg.Logging.File,
			"append": cfg.Logging.Append,
		},
		"reporting": map[string]interface{}{
			"enabled": cfg.Reporting.Enabled,
			"path":    cfg.Reporting.Path,
			"format":  cfg.Reporting.Format,
		},
	}
}
