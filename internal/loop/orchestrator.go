// Package loop drives the poll loop: it checks every task of the current
// generation each tick, applies operator resets, sleeps, and handles the
// double-interrupt shutdown.
package loop

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/loopwatch/loo/internal/console"
	"github.com/loopwatch/loo/internal/constants"
	"github.com/loopwatch/loo/internal/eventlog"
)

// Config holds the loop timings.
type Config struct {
	// PollInterval is the sleep between ticks.
	PollInterval time.Duration
	// InputWait bounds the wait for an operator line after each tick.
	InputWait time.Duration
	// GraceWindow is how long a second interrupt is awaited after the
	// first one terminated background processes.
	GraceWindow time.Duration
}

// DefaultConfig returns the built-in timings.
func DefaultConfig() Config {
	return Config{
		PollInterval: constants.PollInterval,
		InputWait:    constants.InputWait,
		GraceWindow:  constants.GraceWindow,
	}
}

// Waker ends a sleep early when a watched path may have changed.
type Waker interface {
	Wake() <-chan struct{}
	Watch(paths []string) error
}

// Orchestrator owns the active generation and runs the loop.
type Orchestrator struct {
	cfg     Config
	gen     *Generation
	input   <-chan string
	signals <-chan os.Signal
	waker   Waker
	console *console.Console
	events  *eventlog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInput sets the channel of operator lines. A closed channel is
// treated as end of input.
func WithInput(ch <-chan string) Option {
	return func(o *Orchestrator) { o.input = ch }
}

// WithSignals sets the channel of interrupt signals.
func WithSignals(ch <-chan os.Signal) Option {
	return func(o *Orchestrator) { o.signals = ch }
}

// WithWaker sets an early wake-up hint.
func WithWaker(w Waker) Option {
	return func(o *Orchestrator) { o.waker = w }
}

// WithConsole sets the progress output.
func WithConsole(c *console.Console) Option {
	return func(o *Orchestrator) { o.console = c }
}

// WithEvents sets the lifecycle event log.
func WithEvents(l *eventlog.Logger) Option {
	return func(o *Orchestrator) { o.events = l }
}

// New returns an orchestrator running gen.
func New(cfg Config, gen *Generation, opts ...Option) *Orchestrator {
	o := &Orchestrator{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.console == nil {
		o.console = console.Discard()
	}
	o.Install(gen)
	return o
}

// Generation returns the active generation.
func (o *Orchestrator) Generation() *Generation {
	return o.gen
}

// Install makes gen the active generation. Background processes of the
// previous generation are terminated first.
func (o *Orchestrator) Install(gen *Generation) {
	if o.gen != nil && o.gen != gen {
		o.gen.TerminateAll()
	}
	o.gen = gen
	if o.waker != nil {
		if err := o.waker.Watch(gen.Paths()); err != nil {
			o.console.Debugf("file notifications: %v", err)
		}
	}
}

// Tick checks every task in order, then the loopfile. It reports whether
// any foreground command ran.
func (o *Orchestrator) Tick(ctx context.Context) bool {
	gen := o.gen
	ran := false
	for _, t := range gen.Tasks {
		if t.CheckForChanges(ctx) {
			ran = true
		}
	}
	if gen.Watcher != nil {
		if next := gen.Watcher.CheckForChanges(); next != nil {
			o.Install(next)
		}
	}
	return ran
}

// HandleInput applies one operator line: blank resets every task, a task
// number resets that task, anything else resets every task.
func (o *Orchestrator) HandleInput(line string) {
	tasks := o.gen.Tasks
	line = strings.TrimSpace(line)
	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(tasks) {
			o.console.Warnf("no task %d; there are %d", n, len(tasks))
			return
		}
		tasks[n-1].Reset()
		return
	}
	for _, t := range tasks {
		t.Reset()
	}
}

// Run loops until an interrupt with nothing left to terminate, a second
// interrupt inside the grace window, or ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.events.Log(eventlog.EventStart, "", fmt.Sprintf("%d tasks", len(o.gen.Tasks)))
	defer o.events.Log(eventlog.EventShutdown, "", "")

	for {
		if ctx.Err() != nil {
			o.stop()
			return nil
		}
		if o.Tick(ctx) {
			// an interrupt during a foreground command belonged to the command
			o.drainSignals()
		}
		if line, ok := o.pollInput(ctx); ok {
			o.HandleInput(line)
			continue
		}
		if o.sleep(ctx) {
			return nil
		}
	}
}

// Interrupt handles a cancellation signal: it terminates every live
// background process and, if there were any, waits out the grace window
// for a second signal. It reports whether the loop should exit.
func (o *Orchestrator) Interrupt(ctx context.Context) bool {
	killed := o.gen.TerminateAll()
	if killed == 0 {
		return true
	}
	o.console.Printf(console.Always, "Terminated %d background process(es)", killed)
	o.console.Printf(console.Always, "^C again to quit")

	timer := time.NewTimer(o.cfg.GraceWindow)
	defer timer.Stop()
	select {
	case <-o.signals:
		return true
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

func (o *Orchestrator) stop() {
	o.gen.TerminateAll()
}

func (o *Orchestrator) drainSignals() {
	for {
		select {
		case <-o.signals:
		default:
			return
		}
	}
}

func (o *Orchestrator) pollInput(ctx context.Context) (string, bool) {
	if o.input == nil {
		return "", false
	}
	timer := time.NewTimer(o.cfg.InputWait)
	defer timer.Stop()
	select {
	case line, ok := <-o.input:
		if !ok {
			o.input = nil
			return "", false
		}
		return line, true
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// sleep waits for the poll interval and reports whether the loop should
// exit. Operator input or a wake hint ends it early.
func (o *Orchestrator) sleep(ctx context.Context) bool {
	timer := time.NewTimer(o.cfg.PollInterval)
	defer timer.Stop()

	var wake <-chan struct{}
	if o.waker != nil {
		wake = o.waker.Wake()
	}

	select {
	case <-timer.C:
		return false
	case <-wake:
		return false
	case line, ok := <-o.input:
		if !ok {
			o.input = nil
			return false
		}
		o.HandleInput(line)
		return false
	case <-o.signals:
		return o.Interrupt(ctx)
	case <-ctx.Done():
		o.stop()
		return true
	}
}
