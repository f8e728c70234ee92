package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Command is one external program invocation.
type Command struct {
	Name  string
	Args  []string
	Stdin string
	// Raw passes Args to the program verbatim instead of quoting each one.
	// Needed for tools such as wmic that parse their own command line.
	Raw bool
}

// NewCommand is shorthand for Command{Name: name, Args: args}.
func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// PowerShell runs script through powershell.exe without loading a profile.
func PowerShell(script string) Command {
	return NewCommand("powershell.exe", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", script)
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result describes a finished command.
type Result struct {
	Command  Command
	ExitCode int
	// Output holds the tail of stdout and stderr.
	Output   string
	Duration time.Duration
}

// CommandError is returned when a command could not start or exited non-zero.
type CommandError struct {
	Command  Command
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("command %q exited with code %d", e.Command.String(), e.ExitCode)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command.String(), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Executor runs commands synchronously.
type Executor interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// maxCapturedOutput bounds the output kept for the log.
const maxCapturedOutput = 4096

// ShellExecutor runs commands on the host with exec.CommandContext and streams
// their output to Stdout so the user sees sfc/DISM progress live.
type ShellExecutor struct {
	Stdout io.Writer
}

// NewShellExecutor returns an executor that streams to os.Stdout.
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{Stdout: os.Stdout}
}

// Run выполняет команду и ждёт её завершения.
func (e *ShellExecutor) Run(ctx context.Context, c Command) (*Result, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("command name is required")
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	applyRawCommandLine(cmd, c)

	tail := &tailBuffer{max: maxCapturedOutput}
	var out io.Writer = tail
	if e.Stdout != nil {
		out = io.MultiWriter(e.Stdout, tail)
	}
	cmd.Stdout = out
	cmd.Stderr = out
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Command:  c,
		Duration: time.Since(start),
		Output:   strings.TrimSpace(tail.String()),
	}

	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, &CommandError{Command: c, ExitCode: result.ExitCode, Output: result.Output, Err: err}
	}

	return result, nil
}

// tailBuffer keeps only the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= t.max {
		t.buf.Reset()
		t.buf.Write(p[len(p)-t.max:])
		return n, nil
	}
	if over := t.buf.Len() + len(p) - t.max; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
