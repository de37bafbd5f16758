// Package proc supervises child processes: background processes are spawned
// and owned through a Handle, foreground commands run to completion through
// an embedded POSIX shell interpreter.
package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/loopwatch/loo/internal/constants"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrEmptyCommand is returned when asked to run zero tokens.
var ErrEmptyCommand = errors.New("empty command")

// Handle is an owned reference to one spawned process. Done is closed once
// the process has exited and been reaped, so a handle never outlives its
// process identity.
type Handle interface {
	Pid() int
	Done() <-chan struct{}
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Done() <-chan struct{} {
	return p.done
}

// Err returns the wait error once Done is closed.
func (p *process) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// ExitError returns the wait error of an exited handle, or nil when the
// handle is still running or does not record one.
func ExitError(h Handle) error {
	if e, ok := h.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// Supervisor starts, probes and stops child processes.
type Supervisor struct {
	// Stdout and Stderr receive child output. Nil means the supervisor's own.
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the working directory for children; empty means inherit.
	Dir string

	// Env is the child environment; nil means inherit.
	Env []string

	// TermWait bounds how long Terminate waits for the process to exit.
	TermWait time.Duration

	// Logf receives diagnostics. Nil discards them.
	Logf func(format string, args ...interface{})
}

// NewSupervisor returns a supervisor writing to the process's own stdio.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		TermWait: constants.TermWait,
	}
}

func (s *Supervisor) logf(format string, args ...interface{}) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

func (s *Supervisor) stdout() io.Writer {
	if s.Stdout == nil {
		return os.Stdout
	}
	return s.Stdout
}

func (s *Supervisor) stderr() io.Writer {
	if s.Stderr == nil {
		return os.Stderr
	}
	return s.Stderr
}

// Spawn starts argv directly, without a shell, and returns immediately.
// The child gets no stdin.
func (s *Supervisor) Spawn(argv []string) (Handle, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // G204: the operator supplies the command
	cmd.Stdout = s.stdout()
	cmd.Stderr = s.stderr()
	cmd.Dir = s.Dir
	cmd.Env = s.Env
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	p := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Probe reports whether the process behind h is still running. It never
// blocks and never reaps. A nil handle is dead.
func (s *Supervisor) Probe(h Handle) bool {
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

// Terminate asks the process to exit and waits up to TermWait for it.
// An already exited process is not an error. There is no forced kill.
func (s *Supervisor) Terminate(h Handle) error {
	p, ok := h.(*process)
	if !ok || p == nil {
		return nil
	}

	select {
	case <-p.done:
		s.logf("pid %d already exited", p.Pid())
		return nil
	default:
	}

	if err := sendTermSignal(p.cmd.Process); err != nil {
		select {
		case <-p.done:
			return nil
		default:
		}
		return fmt.Errorf("terminating pid %d: %w", p.Pid(), err)
	}

	if s.TermWait <= 0 {
		return nil
	}
	timer := time.NewTimer(s.TermWait)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		s.logf("pid %d still running %s after termination request", p.Pid(), s.TermWait)
	}
	return nil
}

// Restart terminates old, if any, then spawns argv.
func (s *Supervisor) Restart(old Handle, argv []string) (Handle, error) {
	if old != nil {
		if err := s.Terminate(old); err != nil {
			s.logf("%v", err)
		}
	}
	return s.Spawn(argv)
}

// Execute runs argv, joined with spaces, as one shell command line and waits
// for it. With limit > 0 the combined output is cut after limit lines.
// The returned error reports the exit status for logging only.
func (s *Supervisor) Execute(ctx context.Context, argv []string, limit int) error {
	if len(argv) == 0 {
		return ErrEmptyCommand
	}
	line := strings.Join(argv, " ")

	prog, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return fmt.Errorf("parsing %q: %w", line, err)
	}

	stdout, stderr := s.stdout(), s.stderr()
	if limit > 0 {
		lim := NewLineLimiter(stdout, limit)
		stdout, stderr = lim, lim
	}

	opts := []interp.RunnerOption{interp.StdIO(nil, stdout, stderr)}
	if s.Dir != "" {
		opts = append(opts, interp.Dir(s.Dir))
	}
	if s.Env != nil {
		opts = append(opts, interp.Env(expand.ListEnviron(s.Env...)))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("creating shell: %w", err)
	}
	if err := runner.Run(ctx, prog); err != nil {
		return fmt.Errorf("running %q: %w", line, err)
	}
	return nil
}
