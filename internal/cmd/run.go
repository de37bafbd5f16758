package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/loopwatch/loo/internal/config"
	"github.com/loopwatch/loo/internal/console"
	"github.com/loopwatch/loo/internal/eventlog"
	"github.com/loopwatch/loo/internal/fingerprint"
	"github.com/loopwatch/loo/internal/lock"
	"github.com/loopwatch/loo/internal/loop"
	"github.com/loopwatch/loo/internal/proc"
	"github.com/loopwatch/loo/internal/task"
	"github.com/loopwatch/loo/internal/ui"
)

// run wires settings, output, the supervisor and the loop together and
// blocks until the loop exits.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if opts.help {
		printUsage(stdout)
		return nil
	}
	if opts.version {
		fmt.Fprintln(stdout, versionString())
		return nil
	}

	settings, unknown, err := config.LoadSettings(config.SettingsPath())
	if err != nil {
		return err
	}
	ui.InitTheme(settings.Theme)
	ui.ApplyThemeMode()

	con := console.New(stdout, stderr, settings.Verbosity+opts.verbosity)
	for _, key := range unknown {
		con.Warnf("unknown setting %q ignored", key)
	}

	events, err := eventlog.Open(settings.Log)
	if err != nil {
		con.Warnf("event log disabled: %v", err)
	}
	defer func() { _ = events.Close() }()

	sup := proc.NewSupervisor()
	sup.Stdout, sup.Stderr = stdout, stderr
	sup.TermWait = settings.TermWait.Duration
	sup.Logf = con.Debugf

	builder := &loop.Builder{
		Deps: task.Deps{
			Detector: fingerprint.NewDetector(nil),
			Runner:   sup,
			Console:  con,
			Events:   events,
		},
		Loopfile: opts.loopfile,
	}

	var gen *loop.Generation
	if opts.loopfile != "" {
		builder.Params = opts.args
		if settings.InstanceLock {
			if lk := acquireLock(con, opts.loopfile, events.Session()); lk != nil {
				defer func() { _ = lk.Release() }()
			}
		}
		gen, err = builder.FromLoopfile()
		if errors.Is(err, os.ErrNotExist) && len(args) == 0 {
			// bare "loo" outside a loopfile directory
			printUsage(stderr)
			return NewSilentExit(ExitUsage)
		}
	} else {
		gen, err = builder.FromArgs(opts.args)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, loop.StopSignals()...)
	defer stop()
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, loop.InterruptSignals()...)
	defer signal.Stop(interrupts)

	loopOpts := []loop.Option{
		loop.WithConsole(con),
		loop.WithEvents(events),
		loop.WithSignals(interrupts),
		loop.WithInput(loop.ReadLines(os.Stdin)),
	}
	if settings.Notify {
		n, err := loop.NewNotifier(con.Debugf)
		if err != nil {
			con.Debugf("file notifications disabled: %v", err)
		} else {
			defer func() { _ = n.Close() }()
			loopOpts = append(loopOpts, loop.WithWaker(n))
		}
	}

	cfg := loop.Config{
		PollInterval: settings.Interval(opts.fast),
		InputWait:    settings.InputWait.Duration,
		GraceWindow:  settings.GraceWindow.Duration,
	}
	return loop.New(cfg, gen, loopOpts...).Run(ctx)
}

// acquireLock takes the instance lock for loopfile. Another instance is
// reported but does not stop this one.
func acquireLock(con *console.Console, loopfile, session string) *lock.Lock {
	lk := lock.New("", loopfile)
	if err := lk.TryAcquire(session); err != nil {
		con.Warnf("%s: %v", loopfile, err)
		return nil
	}
	return lk
}
