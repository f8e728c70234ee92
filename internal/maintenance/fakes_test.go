package maintenance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"systemrepair/internal/logging"
	"systemrepair/internal/system"
)

type fakeExec struct {
	mu   sync.Mutex
	ran  []system.Command
	fail map[string]error
}

func (f *fakeExec) Run(ctx context.Context, cmd system.Command) (*system.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, cmd)
	for prefix, err := range f.fail {
		if strings.HasPrefix(cmd.String(), prefix) {
			return &system.Result{Command: cmd, ExitCode: 1}, &system.CommandError{Command: cmd, ExitCode: 1, Err: err}
		}
	}
	return &system.Result{Command: cmd}, nil
}

func (f *fakeExec) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ran))
	for i, c := range f.ran {
		out[i] = c.String()
	}
	return out
}

type fakeRegistry struct {
	values map[string][]system.RegistryValue
	dwords map[string]uint32
	fail   map[string]error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		values: make(map[string][]system.RegistryValue),
		dwords: make(map[string]uint32),
		fail:   make(map[string]error),
	}
}

func regKey(root system.Root, path string) string {
	return root.String() + `\` + path
}

func (r *fakeRegistry) ReadValues(root system.Root, path string) ([]system.RegistryValue, error) {
	if err := r.fail[regKey(root, path)]; err != nil {
		return nil, err
	}
	return append([]system.RegistryValue(nil), r.values[regKey(root, path)]...), nil
}

func (r *fakeRegistry) DeleteValue(root system.Root, path, name string) error {
	key := regKey(root, path)
	if err := r.fail[key+`\`+name]; err != nil {
		return err
	}
	kept := r.values[key][:0]
	for _, v := range r.values[key] {
		if v.Name != name {
			kept = append(kept, v)
		}
	}
	r.values[key] = kept
	return nil
}

func (r *fakeRegistry) DeleteAllValues(root system.Root, path string) (int, error) {
	key := regKey(root, path)
	if err := r.fail[key]; err != nil {
		return 0, err
	}
	n := len(r.values[key])
	delete(r.values, key)
	return n, nil
}

func (r *fakeRegistry) SetDWORD(root system.Root, path, name string, value uint32) error {
	key := regKey(root, path) + `\` + name
	if err := r.fail[key]; err != nil {
		return err
	}
	r.dwords[key] = value
	return nil
}

type fakeServices struct {
	ops  []string
	fail map[string]error
}

func (s *fakeServices) do(op, name string) error {
	entry := op + " " + name
	if err := s.fail[entry]; err != nil {
		return err
	}
	s.ops = append(s.ops, entry)
	return nil
}

func (s *fakeServices) Stop(ctx context.Context, name string) error  { return s.do("stop", name) }
func (s *fakeServices) Start(ctx context.Context, name string) error { return s.do("start", name) }
func (s *fakeServices) Disable(name string) error                    { return s.do("disable", name) }

type fakeDisk struct {
	ssd bool
	err error
}

func (d fakeDisk) IsSSD(ctx context.Context, drive string) (bool, error) { return d.ssd, d.err }
func (d fakeDisk) FreeSpace(path string) (uint64, error)                 { return 1 << 30, nil }

// fakeConsole records output and answers pauses from a script.
type fakeConsole struct {
	lines   []string
	steps   []string
	answers []error
	pauses  int
	// onPause runs at the start of every pause.
	onPause func()
}

func (c *fakeConsole) add(kind, format string, args ...interface{}) {
	c.lines = append(c.lines, kind+": "+fmt.Sprintf(format, args...))
}

func (c *fakeConsole) Info(format string, args ...interface{})    { c.add("info", format, args...) }
func (c *fakeConsole) Success(format string, args ...interface{}) { c.add("ok", format, args...) }
func (c *fakeConsole) Warn(format string, args ...interface{})    { c.add("warn", format, args...) }
func (c *fakeConsole) Error(format string, args ...interface{})   { c.add("error", format, args...) }

func (c *fakeConsole) Step(index int, title string) {
	c.steps = append(c.steps, fmt.Sprintf("%d. %s", index, title))
}

func (c *fakeConsole) Pause(ctx context.Context) error {
	c.pauses++
	if c.onPause != nil {
		c.onPause()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(c.answers) == 0 {
		return nil
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a
}

func (c *fakeConsole) output() string {
	return strings.Join(c.lines, "\n")
}

var errQuit = errors.New("quit")

type testEnv struct {
	env      *Env
	exec     *fakeExec
	registry *fakeRegistry
	services *fakeServices
	console  *fakeConsole
	root     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	te := &testEnv{
		exec:     &fakeExec{fail: map[string]error{}},
		registry: newFakeRegistry(),
		services: &fakeServices{fail: map[string]error{}},
		console:  &fakeConsole{},
		root:     root,
	}
	te.env = &Env{
		Exec:     te.exec,
		Registry: te.registry,
		Services: te.services,
		Disk:     fakeDisk{},
		Paths: system.Paths{
			Home:         filepath.Join(root, "home"),
			Desktop:      filepath.Join(root, "home", "Desktop"),
			Temp:         filepath.Join(root, "tmp"),
			WinDir:       filepath.Join(root, "Windows"),
			SystemDrive:  "C:",
			LocalAppData: filepath.Join(root, "home", "AppData", "Local"),
			ProgramFiles: filepath.Join(root, "Program Files"),
		},
		Logger: logging.Nop(),
		Out:    te.console,
	}
	return te
}
