// Package constants defines shared constant values used throughout loo.
package constants

import "time"

// Timing defaults. Each can be overridden in the settings file.
const (
	// PollInterval is the pause between ticks.
	PollInterval = 1 * time.Second

	// FastDivisor divides PollInterval in fast mode (-f).
	FastDivisor = 4

	// InputWait bounds how long a tick waits for an operator line.
	InputWait = 10 * time.Millisecond

	// GraceWindow is how long a second ^C is awaited after the first
	// one terminated background processes.
	GraceWindow = 1 * time.Second

	// TermWait bounds how long a terminated process is awaited before a
	// replacement is spawned. There is no escalation past it.
	TermWait = 500 * time.Millisecond
)

// Names.
const (
	// DefaultLoopfile is read when loo is started without arguments or with -L.
	DefaultLoopfile = "Loopfile"

	// FileSettings is the per-directory settings file.
	FileSettings = ".loo.toml"

	// DirConfig is the directory under the user config dir holding config.toml.
	DirConfig = "loo"

	// FileConfig is the user-level settings file name.
	FileConfig = "config.toml"

	// EnvConfig names an explicit settings file.
	EnvConfig = "LOO_CONFIG"

	// EnvTheme overrides the configured color theme.
	EnvTheme = "LOO_THEME"

	// TaskSeparator splits independent tasks on one command line.
	TaskSeparator = "++"

	// RuleWidth is the width of the separator printed around foreground runs.
	RuleWidth = 78
)
