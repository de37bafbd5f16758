package loop

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Notifier turns filesystem events on watched paths into wake-ups. It is
// only a hint that shortens the sleep; change detection still compares
// fingerprints, so missed or spurious events are harmless.
type Notifier struct {
	watcher *fsnotify.Watcher
	wake    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	logf    func(format string, args ...interface{})

	mu    sync.Mutex
	paths map[string]struct{}
	dirs  map[string]struct{}
}

// NewNotifier starts a notifier with nothing watched. logf receives
// watcher errors and may be nil.
func NewNotifier(logf func(format string, args ...interface{})) (*Notifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	n := &Notifier{
		watcher: w,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		logf:    logf,
		paths:   make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
	}
	n.wg.Add(1)
	go n.processEvents()
	return n, nil
}

// Wake returns the channel that receives a value after a watched path
// changed. Bursts collapse into one pending wake-up.
func (n *Notifier) Wake() <-chan struct{} {
	return n.wake
}

// Watch replaces the watched set. Parent directories are watched so that
// paths which do not exist yet are still noticed when they appear.
func (n *Notifier) Watch(paths []string) error {
	want := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		want[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for d := range n.dirs {
		if _, keep := dirs[d]; !keep {
			_ = n.watcher.Remove(d)
			delete(n.dirs, d)
		}
	}
	var errs []error
	for d := range dirs {
		if _, have := n.dirs[d]; have {
			continue
		}
		if err := n.watcher.Add(d); err != nil {
			errs = append(errs, fmt.Errorf("watching %s: %w", d, err))
			continue
		}
		n.dirs[d] = struct{}{}
	}
	n.paths = want
	return errors.Join(errs...)
}

// Close stops the notifier and waits for its event goroutine.
func (n *Notifier) Close() error {
	select {
	case <-n.done:
		return nil
	default:
	}
	close(n.done)
	err := n.watcher.Close()
	n.wg.Wait()
	return err
}

func (n *Notifier) processEvents() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if n.watched(ev.Name) {
				n.signal()
			}
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			if n.logf != nil {
				n.logf("file notifications: %v", err)
			}
		}
	}
}

func (n *Notifier) watched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.paths[abs]
	return ok
}

func (n *Notifier) signal() {
	select {
	case n.wake <- struct{}{}:
	default:
	}
}
