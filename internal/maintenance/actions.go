package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"systemrepair/internal/system"
)

// Action is a single OS command, registry call, service call or filesystem
// operation.
type Action interface {
	Describe() string
	Do(ctx context.Context, env *Env) error
}

// CommandAction runs an external program.
type CommandAction struct {
	Cmd system.Command
}

// Run builds a CommandAction for name with args.
func Run(name string, args ...string) CommandAction {
	return CommandAction{Cmd: system.NewCommand(name, args...)}
}

func (a CommandAction) Describe() string { return a.Cmd.String() }

func (a CommandAction) Do(ctx context.Context, env *Env) error {
	res, err := env.Exec.Run(ctx, a.Cmd)
	if res != nil {
		env.log("DEBUG", "Command finished", "command", a.Cmd.String(), "exit_code", res.ExitCode, "duration", res.Duration)
	}
	return err
}

// RegistrySetDWORD writes a REG_DWORD value, creating the key when needed.
type RegistrySetDWORD struct {
	Root      system.Root
	Path      string
	ValueName string
	Value     uint32
}

func (a RegistrySetDWORD) Describe() string {
	return fmt.Sprintf(`set %s\%s\%s = %d`, a.Root, a.Path, a.ValueName, a.Value)
}

func (a RegistrySetDWORD) Do(ctx context.Context, env *Env) error {
	return env.Registry.SetDWORD(a.Root, a.Path, a.ValueName, a.Value)
}

// RegistryClearValues deletes every value of a key and keeps the key.
type RegistryClearValues struct {
	Root system.Root
	Path string
}

func (a RegistryClearValues) Describe() string {
	return fmt.Sprintf(`clear values of %s\%s`, a.Root, a.Path)
}

func (a RegistryClearValues) Do(ctx context.Context, env *Env) error {
	n, err := env.Registry.DeleteAllValues(a.Root, a.Path)
	env.log("DEBUG", "Registry values deleted", "key", a.Root.String()+`\`+a.Path, "count", n)
	return err
}

// ServiceOp is what ServiceAction does to a service.
type ServiceOp string

const (
	ServiceStop    ServiceOp = "stop"
	ServiceStart   ServiceOp = "start"
	ServiceDisable ServiceOp = "disable"
)

// ServiceAction stops, starts or disables one service.
type ServiceAction struct {
	Op      ServiceOp
	Service string
}

func StopService(name string) ServiceAction  { return ServiceAction{Op: ServiceStop, Service: name} }
func StartService(name string) ServiceAction { return ServiceAction{Op: ServiceStart, Service: name} }
func DisableService(name string) ServiceAction {
	return ServiceAction{Op: ServiceDisable, Service: name}
}

func (a ServiceAction) Describe() string {
	return fmt.Sprintf("%s service %s", a.Op, a.Service)
}

func (a ServiceAction) Do(ctx context.Context, env *Env) error {
	switch a.Op {
	case ServiceStop:
		return env.Services.Stop(ctx, a.Service)
	case ServiceStart:
		return env.Services.Start(ctx, a.Service)
	case ServiceDisable:
		return env.Services.Disable(a.Service)
	}
	return fmt.Errorf("unknown service operation %q", a.Op)
}

// RemoveTree deletes a file or directory tree.
type RemoveTree struct {
	Path string
	// IgnoreErrors logs a failed removal instead of failing the action.
	IgnoreErrors bool
}

func (a RemoveTree) Describe() string { return "remove " + a.Path }

func (a RemoveTree) Do(ctx context.Context, env *Env) error {
	err := system.RemoveTree(a.Path)
	if err != nil && a.IgnoreErrors {
		env.log("WARN", "Could not remove path", "path", a.Path, "error", err.Error())
		return nil
	}
	return err
}

// ClearDirectory empties a directory. Entries that cannot be removed are
// logged as warnings; only an unreadable directory fails the action.
type ClearDirectory struct {
	Path string
}

func (a ClearDirectory) Describe() string { return "clear " + a.Path }

func (a ClearDirectory) Do(ctx context.Context, env *Env) error {
	env.log("INFO", "Clearing temporary files", "path", a.Path)
	env.out().Info("Clearing temporary files in %s...", a.Path)

	stats, err := system.ClearDirectory(a.Path)
	if err != nil {
		env.out().Error("Error accessing %s: %v", a.Path, err)
		return err
	}
	for _, ferr := range stats.Failed {
		env.log("WARN", "Could not remove item", "error", ferr.Error())
	}
	env.log("INFO", "Directory cleared", "path", a.Path,
		"removed", stats.Removed, "in_use", stats.InUse, "failed", len(stats.Failed))
	return nil
}

// RenamePath renames a path, replacing a leftover target.
type RenamePath struct {
	From string
	To   string
}

func (a RenamePath) Describe() string { return fmt.Sprintf("rename %s to %s", a.From, a.To) }

func (a RenamePath) Do(ctx context.Context, env *Env) error {
	return system.RenamePath(a.From, a.To)
}

// errNotPresent tells runActions the target is absent and the action was a
// no-op; it is neither reported as a failure nor noted as done.
var errNotPresent = errors.New("target not present")

// RecreateDir removes a directory and creates it empty. With OnlyExisting a
// missing directory is left alone.
type RecreateDir struct {
	Path         string
	OnlyExisting bool
}

func (a RecreateDir) Describe() string { return "recreate " + a.Path }

func (a RecreateDir) Do(ctx context.Context, env *Env) error {
	if a.OnlyExisting {
		if _, err := os.Stat(a.Path); errors.Is(err, fs.ErrNotExist) {
			return errNotPresent
		}
	}
	return system.RecreateDir(a.Path)
}

// group runs its actions in order and stops at the first failure.
type group struct {
	desc    string
	actions []Action
}

// Group bundles actions that only make sense together.
func Group(desc string, actions ...Action) Action {
	return group{desc: desc, actions: actions}
}

func (g group) Describe() string {
	if g.desc != "" {
		return g.desc
	}
	parts := make([]string, len(g.actions))
	for i, a := range g.actions {
		parts[i] = a.Describe()
	}
	return strings.Join(parts, ", ")
}

func (g group) Do(ctx context.Context, env *Env) error {
	for _, a := range g.actions {
		if err := a.Do(ctx, env); err != nil {
			return fmt.Errorf("%s: %w", a.Describe(), err)
		}
	}
	return nil
}

// noted attaches a success message to an action.
type noted struct {
	Action
	note string
}

// Noted prints note after action succeeds.
func Noted(action Action, note string) Action {
	return noted{Action: action, note: note}
}

func noteOf(a Action) string {
	if n, ok := a.(noted); ok {
		return n.note
	}
	return ""
}
