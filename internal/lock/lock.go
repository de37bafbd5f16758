// Package lock keeps two loo instances from driving the same loopfile.
//
// The lock is an flock on <dir>/loo-<hash>.lock, where hash identifies the
// absolute loopfile path. A sibling .json file records who holds it:
// - PID of the owning process
// - Timestamp when the lock was acquired
// - Event-log session id
//
// The operating system drops the flock when the holder dies, so a lock is
// never stale; the info file may be, and is overwritten on acquire.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/loopwatch/loo/internal/util"
)

// Common errors
var (
	ErrLocked      = errors.New("loopfile is already being watched")
	ErrNotLocked   = errors.New("loopfile is not locked")
	ErrInvalidLock = errors.New("invalid lock info file")
)

// Info describes the holder of a lock.
type Info struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
	Session    string    `json:"session,omitempty"`
	Hostname   string    `json:"hostname,omitempty"`
	Loopfile   string    `json:"loopfile"`
}

// IsStale checks if the recorded holder is dead.
func (i *Info) IsStale() bool {
	return !processExists(i.PID)
}

// Lock is the instance lock for one loopfile.
type Lock struct {
	loopfile string
	lockPath string
	infoPath string
	fl       *flock.Flock
}

// New returns the lock for loopfile with its files in dir. An empty dir
// means the system temporary directory.
func New(dir, loopfile string) *Lock {
	if dir == "" {
		dir = os.TempDir()
	}
	abs, err := filepath.Abs(loopfile)
	if err != nil {
		abs = loopfile
	}
	sum := sha256.Sum256([]byte(abs))
	base := filepath.Join(dir, "loo-"+hex.EncodeToString(sum[:])[:12])
	return &Lock{
		loopfile: abs,
		lockPath: base + ".lock",
		infoPath: base + ".json",
		fl:       flock.New(base + ".lock"),
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.lockPath
}

// TryAcquire takes the lock without blocking. It returns an error wrapping
// ErrLocked, naming the holder when known, if another process has it.
func (l *Lock) TryAcquire(session string) error {
	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		info, err := l.Holder()
		if err != nil || info.IsStale() {
			return ErrLocked
		}
		return fmt.Errorf("%w: PID %d (session: %s, acquired: %s)",
			ErrLocked, info.PID, info.Session, info.AcquiredAt.Format(time.RFC3339))
	}

	host, _ := os.Hostname()
	info := Info{
		PID:        os.Getpid(),
		AcquiredAt: time.Now(),
		Session:    session,
		Hostname:   host,
		Loopfile:   l.loopfile,
	}
	if err := util.AtomicWriteJSON(l.infoPath, info); err != nil {
		_ = l.fl.Unlock()
		return fmt.Errorf("writing lock info: %w", err)
	}
	return nil
}

// Holder reads the recorded holder without touching the lock.
func (l *Lock) Holder() (*Info, error) {
	data, err := os.ReadFile(l.infoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLocked
		}
		return nil, fmt.Errorf("reading lock info: %w", err)
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLock, err)
	}
	return &info, nil
}

// Release drops the lock if held and removes the info file.
func (l *Lock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := os.Remove(l.infoPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock info: %w", err)
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}
