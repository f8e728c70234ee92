package maintenance

import (
	"context"
	"fmt"

	"systemrepair/internal/logging"
)

// CreateDefaultTasks создает полный набор шагов в фиксированном порядке
func CreateDefaultTasks(env *Env) []Task {
	return []Task{
		restorePointStep(env),
		&StartupTask{env: env},
		tempFilesStep(env),
		&BrowserTask{env: env},
		servicesStep(env),
		registryCleanupStep(env),
		performanceStep(env),
		systemDrivesStep(env),
		networkStep(env),
		cpuPowerStep(env),
		printSpoolerStep(env),
		gamingStep(env),
		defenderHistoryStep(env),
		&SSDTask{env: env},
		windowsUpdateStep(env),
		fontCacheStep(env),
		systemRepairStep(env),
	}
}

// CreateCustomTasks returns the default tasks named by ids, in default order.
func CreateCustomTasks(ids []string, env *Env) ([]Task, error) {
	if err := ValidateStepIDs(ids); err != nil {
		return nil, err
	}
	plan := &MaintenancePlan{Name: "custom", Steps: ids}
	return plan.Select(CreateDefaultTasks(env)), nil
}

// TaskOrchestrator wires a plan, the skip list and the runner together.
type TaskOrchestrator struct {
	env     *Env
	console Console
	logger  *logging.EnterpriseLogger
}

// NewTaskOrchestrator создает новый оркестратор
func NewTaskOrchestrator(env *Env, console Console) *TaskOrchestrator {
	return &TaskOrchestrator{env: env, console: console, logger: env.Logger}
}

// ExecutePlan runs the named plan, skipping the listed step IDs.
func (to *TaskOrchestrator) ExecutePlan(ctx context.Context, planName string, skip []string) (*Report, error) {
	plan := GetPlanByName(planName)
	if plan == nil {
		return nil, fmt.Errorf("unknown plan %q (available: %v)", planName, ListPlanNames())
	}
	if err := ValidateStepIDs(skip); err != nil {
		return nil, err
	}

	tasks := CreateDefaultTasks(to.env)
	if plan.Steps != nil {
		var err error
		if tasks, err = CreateCustomTasks(plan.Steps, to.env); err != nil {
			return nil, fmt.Errorf("plan %s: %w", plan.Name, err)
		}
	}

	runner := NewMaintenanceRunner(to.logger, to.console)
	runner.SetPlan(plan.Name, to.env.DryRun)
	runner.Skip(skip...)
	for _, task := range tasks {
		runner.AddTask(task)
	}

	return runner.Run(ctx)
}
