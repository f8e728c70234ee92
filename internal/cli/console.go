package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ErrQuit is returned by Pause when the user answers Q.
var ErrQuit = errors.New("quit requested by user")

// Console is the only place that talks to the person at the keyboard.
type Console struct {
	reader *bufio.Reader
	out    io.Writer

	// A single goroutine reads input so a cancelled prompt never leaves two
	// reads racing on reader.
	startReader sync.Once
	lines       chan lineResult

	// autoContinue disables every prompt; set for --yes and for
	// non-interactive stdin.
	autoContinue bool

	success *color.Color
	warn    *color.Color
	fail    *color.Color
	header  *color.Color
}

// NewConsole wires a console to arbitrary streams.
func NewConsole(in io.Reader, out io.Writer, autoContinue bool) *Console {
	return &Console{
		reader:       bufio.NewReader(in),
		out:          out,
		autoContinue: autoContinue,
		success:      color.New(color.FgGreen),
		warn:         color.New(color.FgYellow),
		fail:         color.New(color.FgRed),
		header:       color.New(color.FgCyan, color.Bold),
	}
}

// NewStdConsole uses stdin/stdout. Prompts are disabled when stdin is not a
// terminal so a redirected run never blocks.
func NewStdConsole(autoContinue bool) *Console {
	return NewConsole(os.Stdin, color.Output, autoContinue || !IsInteractive())
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// AutoContinue reports whether prompts are skipped.
func (c *Console) AutoContinue() bool {
	return c.autoContinue
}

// Writer returns the stream the console prints to.
func (c *Console) Writer() io.Writer {
	return c.out
}

func (c *Console) Banner(title string) {
	fmt.Fprintln(c.out)
	c.header.Fprintln(c.out, title)
	fmt.Fprintln(c.out, strings.Repeat("=", 40))
}

// Step prints the numbered header shown before each maintenance step.
func (c *Console) Step(index int, title string) {
	c.header.Fprintf(c.out, "\n%d. %s...\n", index, title)
}

func (c *Console) Info(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Success(format string, args ...interface{}) {
	c.success.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.warn.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Error(format string, args ...interface{}) {
	c.fail.Fprintf(c.out, format+"\n", args...)
}

// ErrorBlock prints a framed error report.
func (c *Console) ErrorBlock(title string, err error) {
	line := strings.Repeat("=", 50)
	fmt.Fprintln(c.out, "\n"+line)
	c.fail.Fprintln(c.out, title)
	if err != nil {
		fmt.Fprintf(c.out, "Error details: %v\n", err)
	}
	fmt.Fprintln(c.out, line)
}

// Pause waits for Enter between steps. Q quits with ErrQuit; end of input
// continues. A cancelled ctx returns ctx.Err() without waiting for input.
func (c *Console) Pause(ctx context.Context) error {
	if c.autoContinue {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprint(c.out, "\nPress Enter to continue or 'Q' to quit...\n")
	answer, err := c.readLine(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if strings.EqualFold(strings.TrimSpace(answer), "q") {
		return ErrQuit
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read answer: %w", err)
	}
	return nil
}

// WaitEnter prints prompt and blocks until Enter, end of input or ctx is
// cancelled. Only the last case returns an error.
func (c *Console) WaitEnter(ctx context.Context, prompt string) error {
	if c.autoContinue {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprint(c.out, prompt)
	_, _ = c.readLine(ctx)
	return ctx.Err()
}

type lineResult struct {
	line string
	err  error
}

// readLine returns the next input line. The read itself is not
// interruptible: after cancellation the pending line goes to the next caller.
func (c *Console) readLine(ctx context.Context) (string, error) {
	c.startReader.Do(func() {
		c.lines = make(chan lineResult, 1)
		go c.readLoop()
	})

	select {
	case res, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Console) readLoop() {
	defer close(c.lines)
	for {
		line, err := c.reader.ReadString('\n')
		c.lines <- lineResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}
