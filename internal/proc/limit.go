package proc

import (
	"io"
	"sync"
)

// LineLimiter passes through the first N lines written to it and silently
// discards everything after. It is safe for concurrent writers so stdout
// and stderr of one command can share it.
type LineLimiter struct {
	mu        sync.Mutex
	w         io.Writer
	remaining int
}

// NewLineLimiter returns a limiter forwarding at most lines lines to w.
func NewLineLimiter(w io.Writer, lines int) *LineLimiter {
	return &LineLimiter{w: w, remaining: lines}
}

// Write always reports the full length so the writing command never sees
// a short write once the limit is reached.
func (l *LineLimiter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.remaining <= 0 {
		return len(p), nil
	}
	end := len(p)
	for i, b := range p {
		if b != '\n' {
			continue
		}
		l.remaining--
		if l.remaining == 0 {
			end = i + 1
			break
		}
	}
	if _, err := l.w.Write(p[:end]); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Exhausted reports whether the limit has been reached.
func (l *LineLimiter) Exhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining <= 0
}
