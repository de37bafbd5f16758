package loop

import (
	"context"
	"strings"
	"sync"

	"github.com/loopwatch/loo/internal/proc"
)

type fakeHandle struct {
	pid  int
	done chan struct{}
	once sync.Once
}

func (h *fakeHandle) Pid() int              { return h.pid }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }
func (h *fakeHandle) kill()                 { h.once.Do(func() { close(h.done) }) }

type fakeRunner struct {
	mu         sync.Mutex
	nextPid    int
	executed   []string
	spawned    []*fakeHandle
	terminated []int
}

func (r *fakeRunner) Spawn(argv []string) (proc.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPid++
	h := &fakeHandle{pid: 2000 + r.nextPid, done: make(chan struct{})}
	r.spawned = append(r.spawned, h)
	return h, nil
}

func (r *fakeRunner) Execute(ctx context.Context, argv []string, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed = append(r.executed, strings.Join(argv, " "))
	return nil
}

func (r *fakeRunner) Probe(h proc.Handle) bool {
	if h == nil {
		return false
	}
	select {
	case <-h.Done():
		return false
	default:
		return true
	}
}

func (r *fakeRunner) Terminate(h proc.Handle) error {
	fh, ok := h.(*fakeHandle)
	if !ok {
		return nil
	}
	r.mu.Lock()
	r.terminated = append(r.terminated, fh.pid)
	r.mu.Unlock()
	fh.kill()
	return nil
}

func (r *fakeRunner) Restart(old proc.Handle, argv []string) (proc.Handle, error) {
	if old != nil {
		_ = r.Terminate(old)
	}
	return r.Spawn(argv)
}

func (r *fakeRunner) takeExecuted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.executed
	r.executed = nil
	return out
}

func (r *fakeRunner) terminatedPids() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.terminated...)
}

// fakeWaker records the paths it was asked to watch.
type fakeWaker struct {
	ch      chan struct{}
	watched [][]string
}

func (w *fakeWaker) Wake() <-chan struct{} { return w.ch }

func (w *fakeWaker) Watch(paths []string) error {
	w.watched = append(w.watched, paths)
	return nil
}
