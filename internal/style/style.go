// Package style provides consistent terminal styling using Lipgloss.
// Uses the Ayu theme colors from internal/ui for semantic consistency.
package style

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/loopwatch/loo/internal/ui"
)

var (
	// Success style for positive outcomes (green)
	Success = lipgloss.NewStyle().
		Foreground(ui.ColorPass).
		Bold(true)

	// Warning style for cautionary messages (yellow)
	Warning = lipgloss.NewStyle().
		Foreground(ui.ColorWarn).
		Bold(true)

	// Error style for failures (red)
	Error = lipgloss.NewStyle().
		Foreground(ui.ColorFail).
		Bold(true)

	// Info style for informational messages (blue)
	Info = lipgloss.NewStyle().
		Foreground(ui.ColorAccent)

	// Dim style for secondary information (gray)
	Dim = lipgloss.NewStyle().
		Foreground(ui.ColorMuted)

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)

	// WarningPrefix is the warning prefix
	WarningPrefix = Warning.Render(ui.IconWarn + " Warning:")

	// ErrorPrefix is the error prefix
	ErrorPrefix = Error.Render(ui.IconFail + " Error:")
)

// FormatWarning returns a styled warning line without a trailing newline.
func FormatWarning(format string, args ...interface{}) string {
	return WarningPrefix + " " + fmt.Sprintf(format, args...)
}

// FormatError returns a styled error line without a trailing newline.
func FormatError(format string, args ...interface{}) string {
	return ErrorPrefix + " " + fmt.Sprintf(format, args...)
}

// FprintWarning writes a warning line to w.
func FprintWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, FormatWarning(format, args...))
}

// PrintWarning prints a warning message to stderr.
// The format and args work like fmt.Printf.
func PrintWarning(format string, args ...interface{}) {
	FprintWarning(os.Stderr, format, args...)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, FormatError(format, args...))
}
