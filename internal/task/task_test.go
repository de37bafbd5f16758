package task

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/loopwatch/loo/internal/console"
	"github.com/loopwatch/loo/internal/eventlog"
	"github.com/loopwatch/loo/internal/fingerprint"
	"github.com/loopwatch/loo/internal/taskspec"
	"github.com/spf13/afero"
)

var epoch = time.Date(2025, 12, 26, 15, 30, 45, 0, time.UTC)

type harness struct {
	fs     afero.Fs
	runner *fakeRunner
	out    *bytes.Buffer
	events *bytes.Buffer
	deps   Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		fs:     afero.NewMemMapFs(),
		runner: &fakeRunner{},
		out:    &bytes.Buffer{},
		events: &bytes.Buffer{},
	}
	h.deps = Deps{
		Detector: fingerprint.NewDetector(h.fs),
		Runner:   h.runner,
		Console:  console.New(h.out, h.out, 0),
		Events:   eventlog.New(h.events),
	}
	return h
}

func (h *harness) touch(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	if err := afero.WriteFile(h.fs, path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	mt := epoch.Add(offset)
	if err := h.fs.Chtimes(path, mt, mt); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) task(t *testing.T, tokens ...string) *Task {
	t.Helper()
	spec, err := taskspec.ParseTask(tokens)
	if err != nil {
		t.Fatalf("ParseTask: %v", err)
	}
	return New(spec, 0, h.deps)
}

func tick(tk *Task, n int) {
	for i := 0; i < n; i++ {
		tk.CheckForChanges(context.Background())
	}
}

func TestWatchSet(t *testing.T) {
	existing := map[string]bool{"in.txt": true, "out.txt": true, "test.c": true, "skip.h": true}
	exists := func(p string) bool { return existing[p] }

	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{"auto watch", []string{"gcc", "test.c"}, []string{"test.c"}},
		{"redirect target excluded", []string{"sed", "s/a/b/", "<", "in.txt", ">", "out.txt"}, []string{"in.txt"}},
		{"explicit watch kept even if missing", []string{"make", "--", "gone.c"}, []string{"gone.c"}},
		{"no auto watch", []string{"-I", "-w", "skip.h", "gcc", "test.c"}, []string{"skip.h"}},
		{"ignore flag", []string{"-i", "test.c", "gcc", "test.c", "--", "skip.h"}, []string{"skip.h"}},
		{"at marker", []string{"cat", "@in.txt", "test.c"}, []string{"test.c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := taskspec.ParseTask(tt.tokens)
			if err != nil {
				t.Fatal(err)
			}
			if got := WatchSet(spec, exists); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("WatchSet() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNoSpuriousTrigger(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "a.c", 0)
	tk := h.task(t, "gcc", "a.c")

	tick(tk, 3)
	if len(h.runner.executed) != 0 {
		t.Errorf("executed %v with no change", h.runner.executed)
	}
}

func TestSingleTriggerPerChange(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "a.c", 0)
	h.touch(t, "b.c", 0)
	tk := h.task(t, "gcc", "a.c", "b.c")

	h.touch(t, "b.c", time.Second)
	tick(tk, 3)
	if len(h.runner.executed) != 1 {
		t.Fatalf("executed %d times, want 1", len(h.runner.executed))
	}
	if h.runner.executed[0] != "gcc a.c b.c" {
		t.Errorf("executed %q", h.runner.executed[0])
	}
}

func TestAppearanceAndDisappearance(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "a.c", 0)
	tk := h.task(t, "gcc", "a.c")

	if err := h.fs.Remove("a.c"); err != nil {
		t.Fatal(err)
	}
	tick(tk, 2)
	if len(h.runner.executed) != 1 {
		t.Fatalf("after delete: executed %d times, want 1", len(h.runner.executed))
	}

	h.touch(t, "a.c", 0) // same mtime as before deletion
	tick(tk, 2)
	if len(h.runner.executed) != 2 {
		t.Errorf("after recreate: executed %d times, want 2", len(h.runner.executed))
	}
}

func TestAlwaysRestartRunsEveryTick(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "a.c", 0)
	tk := h.task(t, "-a", "gcc", "a.c")

	tick(tk, 4)
	if len(h.runner.executed) != 4 {
		t.Errorf("executed %d times, want 4", len(h.runner.executed))
	}
}

func TestSkipInitialWait(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "a.c", 0)
	tk := h.task(t, "-x", "gcc", "a.c")

	tick(tk, 2)
	if len(h.runner.executed) != 1 {
		t.Errorf("executed %d times, want 1", len(h.runner.executed))
	}
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "a.c", 0)
	tk := h.task(t, "gcc", "a.c")

	tick(tk, 1)
	tk.Reset()
	tick(tk, 2)
	if len(h.runner.executed) != 1 {
		t.Errorf("executed %d times after reset, want 1", len(h.runner.executed))
	}
}

func TestForegroundOutput(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "a.c", 0)
	spec, _ := taskspec.ParseTask([]string{"-x", "gcc", "a.c"})
	spec.Label = "[2] "
	tk := New(spec, 1, h.deps)
	tick(tk, 1)

	out := h.out.String()
	for _, want := range []string{"[2] Looping: gcc a.c -- a.c", "[2] Running: gcc a.c", "[2] Watching: a.c", "――――"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(h.events.String(), "task-2") {
		t.Errorf("event log = %q", h.events.String())
	}
}

func TestQuietAlwaysRestartHidesWatching(t *testing.T) {
	h := newHarness(t)
	h.deps.Console = console.New(h.out, h.out, 0)
	h.touch(t, "a.c", 0)
	tk := h.task(t, "-a", "gcc", "a.c")
	tick(tk, 1)

	if strings.Contains(h.out.String(), "Watching:") {
		t.Errorf("always-restart task printed Watching at verbosity 0:\n%s", h.out.String())
	}
}

func TestBackgroundStartsOnFirstTick(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "server", 0)
	tk := h.task(t, "-d", "./server", "--", "server")

	tick(tk, 1)
	if len(h.runner.spawned) != 1 {
		t.Fatalf("spawned %d, want 1", len(h.runner.spawned))
	}
	tick(tk, 3)
	if len(h.runner.spawned) != 1 {
		t.Errorf("healthy process respawned: spawned %d", len(h.runner.spawned))
	}
	if !strings.Contains(h.out.String(), "Started pid 1001") {
		t.Errorf("output = %q", h.out.String())
	}
}

func TestBackgroundRestartOnChange(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "server", 0)
	tk := h.task(t, "-d", "./server", "--", "server")
	tick(tk, 1)

	h.touch(t, "server", time.Second)
	tick(tk, 1)

	if len(h.runner.spawned) != 2 {
		t.Fatalf("spawned %d, want 2", len(h.runner.spawned))
	}
	if !reflect.DeepEqual(h.runner.terminated, []int{1001}) {
		t.Errorf("terminated %v, want [1001]", h.runner.terminated)
	}
	if h.runner.live() != 1 {
		t.Errorf("%d live processes, want 1", h.runner.live())
	}
	if !strings.Contains(h.out.String(), "Killing pid 1001") {
		t.Errorf("output = %q", h.out.String())
	}
}

func TestBackgroundSelfHealing(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "server", 0)
	tk := h.task(t, "-d", "./server")
	tick(tk, 1)

	h.runner.spawned[0].kill()
	tick(tk, 1)

	if len(h.runner.spawned) != 2 {
		t.Fatalf("spawned %d, want 2", len(h.runner.spawned))
	}
	if h.runner.live() != 1 {
		t.Errorf("%d live processes, want 1", h.runner.live())
	}
	if !strings.Contains(h.events.String(), "[exit]") {
		t.Errorf("crash not logged: %q", h.events.String())
	}
}

func TestBackgroundAlwaysRestart(t *testing.T) {
	h := newHarness(t)
	tk := h.task(t, "-d", "-a", "./server")

	tick(tk, 3)
	if len(h.runner.spawned) != 3 {
		t.Errorf("spawned %d, want 3", len(h.runner.spawned))
	}
	if h.runner.live() != 1 {
		t.Errorf("%d live processes, want 1", h.runner.live())
	}
}

func TestTerminate(t *testing.T) {
	h := newHarness(t)
	tk := h.task(t, "-d", "./server")

	if tk.Terminate() {
		t.Error("Terminate() = true before anything was spawned")
	}
	tick(tk, 1)
	if !tk.Live() {
		t.Fatal("task not live after first tick")
	}
	if !tk.Terminate() {
		t.Error("Terminate() = false with a live process")
	}
	if tk.Live() {
		t.Error("task still live after Terminate")
	}
	if tk.Terminate() {
		t.Error("second Terminate() = true")
	}

	// a terminated process is relaunched on the next tick without an exit event
	tick(tk, 1)
	if len(h.runner.spawned) != 2 {
		t.Errorf("spawned %d, want 2", len(h.runner.spawned))
	}
	if strings.Contains(h.events.String(), "[exit]") {
		t.Errorf("requested stop logged as exit: %q", h.events.String())
	}
}

func TestSpawnFailureRetriesEveryTick(t *testing.T) {
	h := newHarness(t)
	h.runner.spawnErr = errors.New("no such file")
	tk := h.task(t, "-d", "./missing")

	tick(tk, 3)
	if tk.Handle() != nil {
		t.Error("handle set after failed spawn")
	}
	if n := strings.Count(h.out.String(), "no such file"); n != 1 {
		t.Errorf("warned %d times, want 1", n)
	}

	h.runner.spawnErr = nil
	tick(tk, 1)
	if !tk.Live() {
		t.Error("task not live once spawning succeeds")
	}
}
