// Package task implements the per-task state machine: each tick a task
// compares a fresh fingerprint of its watch set with the last one and runs
// its command (foreground) or restarts its process (background).
package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/loopwatch/loo/internal/console"
	"github.com/loopwatch/loo/internal/eventlog"
	"github.com/loopwatch/loo/internal/fingerprint"
	"github.com/loopwatch/loo/internal/proc"
	"github.com/loopwatch/loo/internal/taskspec"
)

// Runner is the process supervisor as seen by a task.
type Runner interface {
	Spawn(argv []string) (proc.Handle, error)
	Execute(ctx context.Context, argv []string, limit int) error
	Probe(h proc.Handle) bool
	Terminate(h proc.Handle) error
	Restart(old proc.Handle, argv []string) (proc.Handle, error)
}

// Deps are the collaborators shared by every task of a generation.
type Deps struct {
	Detector *fingerprint.Detector
	Runner   Runner
	Console  *console.Console
	Events   *eventlog.Logger
}

// Task owns one spec, its last fingerprint and, for background tasks, the
// handle of its current process.
type Task struct {
	spec  taskspec.Spec
	name  string
	watch []string
	deps  Deps

	last   fingerprint.Fingerprint
	handle proc.Handle

	// stopped is set when the process was terminated on request, so its
	// death is not reported as an unexpected exit.
	stopped bool
	// spawnFailing suppresses repeated warnings while a spawn keeps failing.
	spawnFailing bool
}

// New builds the task for spec, the index-th of its generation (0-based).
func New(spec taskspec.Spec, index int, deps Deps) *Task {
	if deps.Console == nil {
		deps.Console = console.Discard()
	}
	t := &Task{
		spec:  spec,
		name:  fmt.Sprintf("task-%d", index+1),
		watch: WatchSet(spec, deps.Detector.Exists),
		deps:  deps,
	}
	if spec.SkipInitialWait {
		t.last = fingerprint.Force()
	} else {
		t.last = deps.Detector.Snapshot(t.watch)
	}
	deps.Console.Printf(0, "%sLooping: %s -- %s", spec.Label, spec.CommandLine(), strings.Join(t.watch, " "))
	return t
}

// Spec returns the task's descriptor.
func (t *Task) Spec() taskspec.Spec { return t.spec }

// Label returns the display prefix, e.g. "[2] ".
func (t *Task) Label() string { return t.spec.Label }

// Name identifies the task in the event log.
func (t *Task) Name() string { return t.name }

// WatchSet returns a copy of the watched paths.
func (t *Task) WatchSet() []string {
	out := make([]string, len(t.watch))
	copy(out, t.watch)
	return out
}

// Handle returns the current process handle of a background task, or nil.
func (t *Task) Handle() proc.Handle { return t.handle }

// Live reports whether the task holds a running background process.
func (t *Task) Live() bool {
	return t.deps.Runner.Probe(t.handle)
}

// Reset makes the next check treat the task as changed.
func (t *Task) Reset() {
	t.last = fingerprint.Force()
}

// CheckForChanges is called once per tick. It reports whether a foreground
// command ran.
func (t *Task) CheckForChanges(ctx context.Context) bool {
	cur := fingerprint.Force()
	if !t.spec.AlwaysRestart {
		cur = t.deps.Detector.Snapshot(t.watch)
	}
	changed := fingerprint.Changed(t.last, cur)

	if !t.spec.Background {
		if !changed {
			return false
		}
		t.run(ctx)
		t.last = cur
		return true
	}

	if changed {
		t.restart()
		t.last = cur
		return false
	}
	if !t.deps.Runner.Probe(t.handle) {
		if t.handle != nil && !t.stopped {
			ctxt := fmt.Sprintf("pid %d", t.handle.Pid())
			if err := proc.ExitError(t.handle); err != nil {
				ctxt += ": " + err.Error()
			}
			t.deps.Console.Debugf("%s%s exited, restarting", t.spec.Label, ctxt)
			t.deps.Events.Log(eventlog.EventExit, t.name, ctxt)
		}
		t.restart()
	}
	return false
}

// Terminate asks a live background process to stop and reports whether
// there was one.
func (t *Task) Terminate() bool {
	if !t.deps.Runner.Probe(t.handle) {
		return false
	}
	pid := t.handle.Pid()
	t.deps.Console.Printf(console.Always, "%sKilling pid %d", t.spec.Label, pid)
	if err := t.deps.Runner.Terminate(t.handle); err != nil {
		t.deps.Console.Warnf("%s%v", t.spec.Label, err)
	}
	t.stopped = true
	t.deps.Events.Log(eventlog.EventKill, t.name, fmt.Sprintf("pid %d", pid))
	return true
}

func (t *Task) run(ctx context.Context) {
	c := t.deps.Console
	line := t.spec.CommandLine()

	c.Rule(0)
	c.Printf(0, "%sRunning: %s", t.spec.Label, line)
	if err := t.deps.Runner.Execute(ctx, t.spec.Command, t.spec.LineLimit); err != nil {
		c.Debugf("%s%v", t.spec.Label, err)
	}
	t.deps.Events.Log(eventlog.EventRun, t.name, line)

	level := 0
	if t.spec.AlwaysRestart {
		level = 1
	}
	c.Rule(level)
	c.Printf(level, "%sWatching: %s", t.spec.Label, strings.Join(t.watch, ", "))
}

func (t *Task) restart() {
	c := t.deps.Console
	if t.deps.Runner.Probe(t.handle) {
		pid := t.handle.Pid()
		c.Printf(console.Always, "%sKilling pid %d", t.spec.Label, pid)
		t.deps.Events.Log(eventlog.EventKill, t.name, fmt.Sprintf("pid %d", pid))
	}

	h, err := t.deps.Runner.Restart(t.handle, t.spec.Command)
	t.stopped = false
	if err != nil {
		t.handle = nil
		if !t.spawnFailing {
			c.Warnf("%s%v", t.spec.Label, err)
		}
		t.spawnFailing = true
		return
	}
	t.spawnFailing = false
	t.handle = h
	c.Printf(console.Always, "%sStarted pid %d", t.spec.Label, h.Pid())
	t.deps.Events.Log(eventlog.EventSpawn, t.name, fmt.Sprintf("pid %d: %s", h.Pid(), t.spec.CommandLine()))
}
