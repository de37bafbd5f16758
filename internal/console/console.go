// Package console prints user-facing progress lines, gated by verbosity.
package console

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/loopwatch/loo/internal/style"
	"github.com/loopwatch/loo/internal/ui"
)

// Always is a level that prints regardless of verbosity.
const Always = math.MinInt32

// Console writes progress to out and warnings to errOut. Verbosity starts
// at 0; -q lowers it and -v raises it.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	errOut    io.Writer
	verbosity int
}

// New returns a console. Nil writers discard.
func New(out, errOut io.Writer, verbosity int) *Console {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &Console{out: out, errOut: errOut, verbosity: verbosity}
}

// Stdio returns a console on the process's stdout and stderr.
func Stdio(verbosity int) *Console {
	return New(os.Stdout, os.Stderr, verbosity)
}

// Discard returns a console that prints nothing.
func Discard() *Console {
	return New(io.Discard, io.Discard, 0)
}

// Verbosity returns the configured verbosity.
func (c *Console) Verbosity() int {
	return c.verbosity
}

// Enabled reports whether messages at level are printed.
func (c *Console) Enabled(level int) bool {
	return c.verbosity >= level
}

// Printf prints one line when verbosity is at least level.
func (c *Console) Printf(level int, format string, args ...interface{}) {
	if !c.Enabled(level) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Rule prints the run separator when verbosity is at least level.
func (c *Console) Rule(level int) {
	if !c.Enabled(level) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, ui.RenderRule())
}

// Warnf prints a warning regardless of verbosity.
func (c *Console) Warnf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	style.FprintWarning(c.errOut, format, args...)
}

// Errorf prints an error regardless of verbosity.
func (c *Console) Errorf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.errOut, style.FormatError(format, args...))
}

// Debugf prints a dimmed diagnostic at verbosity 1 and above.
func (c *Console) Debugf(format string, args ...interface{}) {
	if !c.Enabled(1) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, style.Dim.Render(fmt.Sprintf(format, args...)))
}
