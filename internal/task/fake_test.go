package task

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

// fakeRunner records what a task asked of the supervisor.
type fakeRunner struct {
	nextPid    int
	executed   []string
	spawned    []*fakeHandle
	terminated []int
	spawnErr   error
}

func (r *fakeRunner) Spawn(argv []string) (proc.Handle, error) {
	if r.spawnErr != nil {
		return nil, r.spawnErr
	}
	r.nextPid++
	h := &fakeHandle{pid: 1000 + r.nextPid, done: make(chan struct{})}
	r.spawned = append(r.spawned, h)
	return h, nil
}

func (r *fakeRunner) Execute(ctx context.Context, argv []string, limit int) error {
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
	if fh, ok := h.(*fakeHandle); ok {
		r.terminated = append(r.terminated, fh.pid)
		fh.kill()
	}
	return nil
}

func (r *fakeRunner) Restart(old proc.Handle, argv []string) (proc.Handle, error) {
	if old != nil {
		_ = r.Terminate(old)
	}
	return r.Spawn(argv)
}

func (r *fakeRunner) live() int {
	n := 0
	for _, h := range r.spawned {
		if r.Probe(h) {
			n++
		}
	}
	return n
}
