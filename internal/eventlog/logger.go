// Package eventlog records task lifecycle events to a rotating log file.
package eventlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loopwatch/loo/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EventType represents the type of lifecycle event.
type EventType string

const (
	// EventStart is logged once when the loop begins.
	EventStart EventType = "start"
	// EventRun indicates a foreground command was run.
	EventRun EventType = "run"
	// EventSpawn indicates a background process was started.
	EventSpawn EventType = "spawn"
	// EventKill indicates a background process was asked to stop.
	EventKill EventType = "kill"
	// EventExit indicates a background process was found dead.
	EventExit EventType = "exit"
	// EventReload indicates the loopfile was re-read.
	EventReload EventType = "reload"
	// EventReloadFailed indicates a changed loopfile could not be used.
	EventReloadFailed EventType = "reload_failed"
	// EventShutdown is logged when the loop exits.
	EventShutdown EventType = "shutdown"
)

// Event represents a single lifecycle event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Session   string    `json:"session"`
	Task      string    `json:"task"`              // e.g. "task-2" or "loopfile"
	Context   string    `json:"context,omitempty"` // pid, command, error text
}

// Logger appends events to a writer. A nil *Logger discards everything.
type Logger struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	session string
}

// New returns a logger writing to w under a fresh session id.
func New(w io.Writer) *Logger {
	return &Logger{w: w, session: newSessionID()}
}

// Open returns a logger writing to the configured file with rotation.
// It returns nil, nil when no file is configured.
func Open(s config.LogSettings) (*Logger, error) {
	if s.File == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.File), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	lj := &lumberjack.Logger{
		Filename:   s.File,
		MaxSize:    s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
		MaxAge:     s.MaxAgeDays,
		Compress:   s.Compress,
	}
	return &Logger{w: lj, closer: lj, session: newSessionID()}, nil
}

func newSessionID() string {
	return uuid.NewString()[:8]
}

// Session returns the short session id stamped on every event.
func (l *Logger) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// LogEvent writes one event line.
func (l *Logger) LogEvent(event Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Session == "" {
		event.Session = l.session
	}
	if _, err := io.WriteString(l.w, formatLogLine(event)+"\n"); err != nil {
		return fmt.Errorf("writing log line: %w", err)
	}
	return nil
}

// Log is a convenience method that creates an Event and logs it.
// Write failures are dropped; the event log never interrupts the loop.
func (l *Logger) Log(eventType EventType, task, context string) {
	_ = l.LogEvent(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Task:      task,
		Context:   context,
	})
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// formatLogLine formats an event as a human-readable log line.
// Format: 2025-12-26 15:30:45 [spawn] 1f2e3d4c task-1 started pid 4242 (./server)
func formatLogLine(e Event) string {
	ts := e.Timestamp.Format("2006-01-02 15:04:05")

	var detail string
	switch e.Type {
	case EventStart:
		detail = withContext("started", e.Context)
	case EventRun:
		detail = withContext("ran", e.Context)
	case EventSpawn:
		detail = withContext("started", e.Context)
	case EventKill:
		detail = withContext("terminated", e.Context)
	case EventExit:
		detail = withContext("exited", e.Context)
	case EventReload:
		detail = withContext("reloaded", e.Context)
	case EventReloadFailed:
		detail = withContext("reload failed", e.Context)
	case EventShutdown:
		detail = withContext("shut down", e.Context)
	default:
		detail = withContext(string(e.Type), e.Context)
	}

	task := e.Task
	if task == "" {
		task = "-"
	}
	return fmt.Sprintf("%s [%s] %s %s %s", ts, e.Type, e.Session, task, detail)
}

func withContext(detail, context string) string {
	if context == "" {
		return detail
	}
	return fmt.Sprintf("%s (%s)", detail, truncate(context, 120))
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
