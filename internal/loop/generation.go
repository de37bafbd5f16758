package loop

import (
	"fmt"
	"os"
	"sort"

	"github.com/loopwatch/loo/internal/console"
	"github.com/loopwatch/loo/internal/eventlog"
	"github.com/loopwatch/loo/internal/fingerprint"
	"github.com/loopwatch/loo/internal/task"
	"github.com/loopwatch/loo/internal/taskspec"
)

// Generation is one parsed set of tasks and, when they came from a
// loopfile, the watcher that rebuilds them.
type Generation struct {
	Tasks   []*task.Task
	Watcher *ReloadWatcher
}

// Paths returns every path the generation watches, the loopfile included.
func (g *Generation) Paths() []string {
	set := make(map[string]struct{})
	for _, t := range g.Tasks {
		for _, p := range t.WatchSet() {
			set[p] = struct{}{}
		}
	}
	if g.Watcher != nil {
		set[g.Watcher.Path()] = struct{}{}
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Live counts tasks holding a running background process.
func (g *Generation) Live() int {
	n := 0
	for _, t := range g.Tasks {
		if t.Live() {
			n++
		}
	}
	return n
}

// TerminateAll asks every live background process to stop and returns
// how many there were.
func (g *Generation) TerminateAll() int {
	n := 0
	for _, t := range g.Tasks {
		if t.Terminate() {
			n++
		}
	}
	return n
}

// Builder turns inline arguments or a loopfile into generations.
type Builder struct {
	Deps     task.Deps
	Loopfile string
	Params   []string
}

// FromArgs builds a generation from inline arguments. It has no watcher.
func (b *Builder) FromArgs(args []string) (*Generation, error) {
	specs, err := taskspec.Parse(args, taskspec.Expansion{Fs: b.Deps.Detector.Fs()})
	if err != nil {
		return nil, err
	}
	return &Generation{Tasks: b.tasks(specs)}, nil
}

// FromLoopfile builds a generation from the loopfile.
func (b *Builder) FromLoopfile() (*Generation, error) {
	seed := b.Deps.Detector.Snapshot([]string{b.Loopfile})
	if seed.Len() == 0 {
		return nil, fmt.Errorf("loopfile %s: %w", b.Loopfile, os.ErrNotExist)
	}
	return b.fromLoopfile(seed)
}

// fromLoopfile parses the loopfile; seed is its fingerprint taken before
// reading, so an edit racing the read is seen on the next tick.
func (b *Builder) fromLoopfile(seed fingerprint.Fingerprint) (*Generation, error) {
	specs, err := taskspec.ReadLoopfile(b.Deps.Detector.Fs(), b.Loopfile, b.Params)
	if err != nil {
		return nil, err
	}
	return &Generation{
		Tasks:   b.tasks(specs),
		Watcher: &ReloadWatcher{builder: b, last: seed},
	}, nil
}

func (b *Builder) tasks(specs []taskspec.Spec) []*task.Task {
	tasks := make([]*task.Task, len(specs))
	for i, s := range specs {
		tasks[i] = task.New(s, i, b.Deps)
	}
	return tasks
}

// ReloadWatcher tracks the loopfile's fingerprint and rebuilds the task
// list when it changes. It is not addressable by interactive input.
type ReloadWatcher struct {
	builder *Builder
	last    fingerprint.Fingerprint
}

// Path returns the watched loopfile.
func (w *ReloadWatcher) Path() string {
	return w.builder.Loopfile
}

// CheckForChanges returns the replacement generation when the loopfile
// changed and parsed cleanly. On a missing or malformed loopfile it warns,
// keeps the current generation and waits for the next change.
func (w *ReloadWatcher) CheckForChanges() *Generation {
	deps := w.builder.Deps
	path := w.Path()

	cur := deps.Detector.Snapshot([]string{path})
	if !fingerprint.Changed(w.last, cur) {
		return nil
	}
	w.last = cur

	c := deps.Console
	if c == nil {
		c = console.Discard()
	}
	c.Printf(0, "Reloading loopfile: %s", path)
	if cur.Len() == 0 {
		c.Warnf("loopfile %s is missing; keeping the current tasks", path)
		deps.Events.Log(eventlog.EventReloadFailed, "loopfile", "missing")
		return nil
	}

	gen, err := w.builder.fromLoopfile(cur)
	if err != nil {
		c.Warnf("%v; keeping the current tasks", err)
		deps.Events.Log(eventlog.EventReloadFailed, "loopfile", err.Error())
		return nil
	}
	deps.Events.Log(eventlog.EventReload, "loopfile", fmt.Sprintf("%s: %d tasks", path, len(gen.Tasks)))
	return gen
}
