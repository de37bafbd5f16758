package cmd

import (
	"errors"
	"fmt"
)

// SilentExitError signals that the command should exit with a specific code
// without printing an error message, e.g. after usage text was already shown.
type SilentExitError struct {
	Code int
}

func (e *SilentExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// NewSilentExit creates a SilentExitError with the given exit code.
func NewSilentExit(code int) *SilentExitError {
	return &SilentExitError{Code: code}
}

// IsSilentExit checks if an error is a SilentExitError and returns its code.
// Uses errors.As to properly handle wrapped errors.
// Returns 0 and false if err is nil or not a SilentExitError.
func IsSilentExit(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var se *SilentExitError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// UsageError reports a malformed global option.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// exitCode maps the error returned by the root command to a process exit
// code, printing it unless it is silent.
func exitCode(err error, printErr func(format string, args ...interface{})) int {
	if err == nil {
		return ExitOK
	}
	if code, ok := IsSilentExit(err); ok {
		return code
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		printErr("%s (run 'loo -h' for usage)", ue.Msg)
		return ExitUsage
	}
	printErr("%v", err)
	return ExitError
}
