// Package taskspec turns command-line arguments and loopfile text into
// resolved task descriptors.
package taskspec

import (
	"fmt"
	"strings"
)

// Spec is the resolved, immutable description of one task.
type Spec struct {
	// Command holds the command tokens, with '@' markers already stripped.
	Command []string

	// Watch holds paths from -w and every token after "--".
	Watch []string

	// Ignore holds paths from -i and every '@'-marked command token.
	Ignore []string

	Background      bool // -d
	AlwaysRestart   bool // -a
	SkipInitialWait bool // -x
	AutoWatch       bool // false with -I

	// LineLimit cuts command output after that many lines; 0 is unlimited.
	LineLimit int

	// Label prefixes every message about the task, e.g. "[2] ".
	Label string
}

// CommandLine returns the command tokens joined by spaces.
func (s Spec) CommandLine() string {
	return strings.Join(s.Command, " ")
}

// ParseError describes an unusable task description.
type ParseError struct {
	Token string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Token != "" {
		fmt.Fprintf(&b, "%s: ", e.Token)
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
