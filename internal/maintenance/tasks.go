package maintenance

import (
	"context"
	"errors"
	"fmt"

	"systemrepair/internal/logging"
	"systemrepair/internal/system"
)

// ErrSkipped is returned by a task that decided it does not apply to this
// machine. The runner records the step as SKIPPED rather than FAILED.
var ErrSkipped = errors.New("step skipped")

// Task представляет один шаг обслуживания системы
type Task interface {
	// Name is the stable step ID used by plans, --skip and reports.
	Name() string
	Title() string
	Execute(ctx context.Context) error
}

// Output is the console surface tasks print to.
type Output interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Env carries the OS adapters every task works through.
type Env struct {
	Exec     system.Executor
	Registry system.Registry
	Services system.ServiceManager
	Disk     system.DiskInspector
	Paths    system.Paths

	Logger *logging.EnterpriseLogger
	Out    Output

	// DryRun logs every action instead of performing it.
	DryRun bool
}

func (e *Env) out() Output {
	if e.Out == nil {
		return nopOutput{}
	}
	return e.Out
}

func (e *Env) log(level, msg string, fields ...interface{}) {
	if e.Logger != nil {
		e.Logger.Log(level, msg, fields...)
	}
}

type nopOutput struct{}

func (nopOutput) Info(string, ...interface{})    {}
func (nopOutput) Success(string, ...interface{}) {}
func (nopOutput) Warn(string, ...interface{})    {}
func (nopOutput) Error(string, ...interface{})   {}

// ActionTask is a step made of a fixed list of actions.
type ActionTask struct {
	ID        string
	StepTitle string
	// Intro is printed before the first action.
	Intro   string
	Actions []Action
	// StopOnError aborts the step at the first failing action. Otherwise
	// every action runs and the failures are joined.
	StopOnError bool
	// Done is printed when every action succeeded.
	Done string

	env *Env
}

func (t *ActionTask) Name() string  { return t.ID }
func (t *ActionTask) Title() string { return t.StepTitle }

func (t *ActionTask) Execute(ctx context.Context) error {
	if t.Intro != "" {
		t.env.out().Info("%s", t.Intro)
		t.env.log("INFO", t.Intro)
	}

	if err := runActions(ctx, t.env, t.Actions, t.StopOnError); err != nil {
		return err
	}

	if t.Done != "" {
		t.env.out().Success("%s", t.Done)
		t.env.log("INFO", t.Done)
	}
	return nil
}

// runActions выполняет действия по порядку.
func runActions(ctx context.Context, env *Env, actions []Action, stopOnError bool) error {
	var errs []error

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		desc := action.Describe()
		if env.DryRun {
			env.log("INFO", "DRY RUN: action not performed", "action", desc)
			env.out().Info("[DRY RUN] %s", desc)
			continue
		}

		env.log("DEBUG", "Executing action", "action", desc)
		err := action.Do(ctx, env)
		if errors.Is(err, errNotPresent) {
			env.log("DEBUG", "Nothing to do", "action", desc)
			continue
		}
		if err != nil {
			env.log("WARN", "Action failed", "action", desc, "error", err.Error())
			if stopOnError {
				return fmt.Errorf("%s: %w", desc, err)
			}
			env.out().Warn("Error executing '%s': %v", desc, err)
			errs = append(errs, fmt.Errorf("%s: %w", desc, err))
			continue
		}

		env.log("INFO", "Executed action", "action", desc)
		if note := noteOf(action); note != "" {
			env.out().Success("%s", note)
		} else if !stopOnError {
			env.out().Info("Executed: %s", desc)
		}
	}

	return errors.Join(errs...)
}
