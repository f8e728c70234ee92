package reporting

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"systemrepair/internal/config"
	"systemrepair/internal/maintenance"
)

func init() {
	HostInfo = func() (string, string) { return "WORKSTATION-7", "Microsoft Windows 11 Pro 10.0.22631" }
}

func sampleRun() *maintenance.Report {
	start := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &maintenance.Report{
		Plan:          "full",
		StartTime:     start,
		EndTime:       start.Add(42 * time.Minute),
		TotalDuration: 42 * time.Minute,
		Status:        maintenance.StatusPartial,
		Steps: []maintenance.StepResult{
			{Index: 1, ID: maintenance.StepRestorePoint, Title: "Creating System Restore Point", Status: maintenance.StatusCompleted},
			{Index: 2, ID: maintenance.StepNetwork, Title: "Optimizing network settings", Status: maintenance.StatusFailed, Error: "netsh int tcp set global chimney=enabled: exit status 1"},
			{Index: 3, ID: maintenance.StepSSD, Title: "Optimizing SSD settings", Status: maintenance.StatusSkipped},
		},
		Completed: 1,
		Failed:    1,
		Skipped:   1,
	}
}

func TestGenerateReport(t *testing.T) {
	r := GenerateReport(sampleRun(), config.Default(), RunInfo{
		Elevated:   true,
		Drive:      "C:",
		FreeBefore: 10 << 30,
		FreeAfter:  12 << 30,
	})

	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)
	assert.Equal(t, "WORKSTATION-7", r.Hostname)
	assert.Equal(t, maintenance.StatusPartial, r.Status)
	assert.True(t, r.Elevated)
	assert.Equal(t, SummaryReport{Total: 3, Completed: 1, Failed: 1, Skipped: 1, SuccessRate: 50}, r.Summary)
	assert.Equal(t, int64(2<<30), r.Disk.FreedBytes)
	assert.Equal(t, "42m0s", r.Duration)
}

func TestGenerateReportUniqueRunIDs(t *testing.T) {
	a := GenerateReport(sampleRun(), config.Default(), RunInfo{})
	b := GenerateReport(sampleRun(), config.Default(), RunInfo{})
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestSaveReportJSONToDefaultDir(t *testing.T) {
	desktop := t.TempDir()
	r := GenerateReport(sampleRun(), config.Default(), RunInfo{})

	path, err := SaveReport(r, config.Default(), desktop)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(desktop, "repair_report_20260314_092653.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.RunID, decoded.RunID)
	require.Len(t, decoded.Steps, 3)
	assert.Equal(t, maintenance.StepNetwork, decoded.Steps[1].ID)
}

func TestSaveReportYAMLToConfiguredPath(t *testing.T) {
	cfg := config.Default()
	cfg.Reporting.Format = "yaml"
	cfg.Reporting.Path = filepath.Join(t.TempDir(), "reports")

	path, err := SaveReport(GenerateReport(sampleRun(), cfg, RunInfo{}), cfg, "/unused")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, cfg.Reporting.Path))
	assert.True(t, strings.HasSuffix(path, ".yaml"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "PARTIAL", decoded["status"])
}

func TestSaveReportDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Reporting.Enabled = false
	dir := t.TempDir()

	path, err := SaveReport(GenerateReport(sampleRun(), cfg, RunInfo{}), cfg, dir)
	require.NoError(t, err)
	assert.Empty(t, path)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, GenerateReport(sampleRun(), config.Default(), RunInfo{Drive: "C:", FreeBefore: 1 << 30, FreeAfter: 1<<30 + 512<<20}))

	out := buf.String()
	assert.Contains(t, out, "PARTIAL")
	assert.Contains(t, out, "1 completed, 1 failed, 1 skipped")
	assert.Contains(t, out, "Optimizing network settings: netsh int tcp set global chimney=enabled")
	assert.Contains(t, out, "Freed on C:: 512.0 MB")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 GB", formatBytes(2<<30))
}
