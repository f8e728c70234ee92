package maintenance

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"systemrepair/internal/logging"
)

// Status values of steps and reports.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusSkipped   = "SKIPPED"
	StatusPartial   = "PARTIAL"
	StatusAborted   = "ABORTED"
)

// StepResult содержит результат выполнения шага
type StepResult struct {
	Index     int           `json:"index" yaml:"index"`
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	Status    string        `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Report содержит отчёт о выполнении последовательности шагов
type Report struct {
	Plan          string        `json:"plan" yaml:"plan"`
	DryRun        bool          `json:"dry_run" yaml:"dry_run"`
	StartTime     time.Time     `json:"start_time" yaml:"start_time"`
	EndTime       time.Time     `json:"end_time" yaml:"end_time"`
	TotalDuration time.Duration `json:"total_duration" yaml:"total_duration"`
	Status        string        `json:"status" yaml:"status"`
	Steps         []StepResult  `json:"steps" yaml:"steps"`
	Completed     int           `json:"completed" yaml:"completed"`
	Failed        int           `json:"failed" yaml:"failed"`
	Skipped       int           `json:"skipped" yaml:"skipped"`
}

// Console is what the runner needs from the terminal.
type Console interface {
	Output
	Step(index int, title string)
	// Pause blocks between steps. Any error ends the run.
	Pause(ctx context.Context) error
}

// MaintenanceRunner выполняет шаги строго последовательно
type MaintenanceRunner struct {
	tasks   []Task
	skip    map[string]bool
	plan    string
	dryRun  bool
	logger  *logging.EnterpriseLogger
	console Console
}

// NewMaintenanceRunner создает новый экземпляр MaintenanceRunner
func NewMaintenanceRunner(logger *logging.EnterpriseLogger, console Console) *MaintenanceRunner {
	return &MaintenanceRunner{
		tasks:   make([]Task, 0),
		skip:    make(map[string]bool),
		plan:    DefaultPlan,
		logger:  logger,
		console: console,
	}
}

// AddTask добавляет задачу в конец списка
func (mr *MaintenanceRunner) AddTask(task Task) {
	mr.tasks = append(mr.tasks, task)
}

// Skip marks step IDs that are reported as SKIPPED without running.
func (mr *MaintenanceRunner) Skip(ids ...string) {
	for _, id := range ids {
		mr.skip[id] = true
	}
}

// SetPlan records the plan name and dry-run flag in the report.
func (mr *MaintenanceRunner) SetPlan(name string, dryRun bool) {
	mr.plan = name
	mr.dryRun = dryRun
}

// Run executes every task in order. A failing or panicking task is logged
// and the next one runs. A quit answer at a pause or a cancelled context
// ends the run with status ABORTED; only the latter returns an error.
func (mr *MaintenanceRunner) Run(ctx context.Context) (*Report, error) {
	mr.logger.Log("INFO", "Starting maintenance steps", "plan", mr.plan, "steps", len(mr.tasks), "dry_run", mr.dryRun)

	report := &Report{
		Plan:      mr.plan,
		DryRun:    mr.dryRun,
		StartTime: time.Now(),
		Steps:     make([]StepResult, 0, len(mr.tasks)),
	}

	var runErr error
	aborted := false

	for i, task := range mr.tasks {
		if err := ctx.Err(); err != nil {
			mr.logger.Log("WARN", "Run interrupted", "next_step", task.Name(), "error", err.Error())
			runErr = err
			aborted = true
			break
		}

		mr.console.Step(i+1, task.Title())

		result := StepResult{Index: i + 1, ID: task.Name(), Title: task.Title(), StartTime: time.Now()}
		if mr.skip[task.Name()] {
			result.Status = StatusSkipped
			result.EndTime = result.StartTime
			mr.logger.Log("INFO", "Step skipped by request", "step", task.Name())
			mr.console.Info("Skipped.")
			report.add(result)
			continue
		}

		mr.logger.Log("INFO", "Executing step", "index", i+1, "step", task.Name())
		err := mr.execute(ctx, task)
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)

		switch {
		case err == nil:
			result.Status = StatusCompleted
			mr.logger.Log("INFO", "Step completed", "step", task.Name(), "duration", result.Duration)
		case errors.Is(err, ErrSkipped):
			result.Status = StatusSkipped
			mr.logger.Log("INFO", "Step not applicable", "step", task.Name())
		default:
			result.Status = StatusFailed
			result.Error = err.Error()
			mr.logger.Log("ERROR", "Step failed", "step", task.Name(), "error", err.Error(), "duration", result.Duration)
			mr.console.Error("Error in %s: %v", task.Title(), err)
		}
		report.add(result)

		if ctx.Err() != nil {
			continue
		}
		if err := mr.console.Pause(ctx); err != nil {
			aborted = true
			if ctxErr := ctx.Err(); ctxErr != nil {
				mr.logger.Log("WARN", "Run interrupted at pause", "after_step", task.Name(), "error", ctxErr.Error())
				runErr = ctxErr
				break
			}
			mr.logger.Log("INFO", "User requested exit", "after_step", task.Name(), "reason", err.Error())
			break
		}
	}

	report.finish(aborted)
	mr.logger.Log("INFO", "Maintenance steps finished",
		"plan", report.Plan,
		"status", report.Status,
		"duration", report.TotalDuration,
		"completed", report.Completed,
		"failed", report.Failed,
		"skipped", report.Skipped)

	return report, runErr
}

// execute runs one task and turns a panic into an error.
func (mr *MaintenanceRunner) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			mr.logger.Log("ERROR", "Step panicked", "step", task.Name(), "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.Execute(ctx)
}

func (r *Report) add(res StepResult) {
	r.Steps = append(r.Steps, res)
	switch res.Status {
	case StatusCompleted:
		r.Completed++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
}

func (r *Report) finish(aborted bool) {
	r.EndTime = time.Now()
	r.TotalDuration = r.EndTime.Sub(r.StartTime)

	switch {
	case aborted:
		r.Status = StatusAborted
	case r.Failed == 0:
		r.Status = StatusCompleted
	case r.Completed > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusFailed
	}
}
