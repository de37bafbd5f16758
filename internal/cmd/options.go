package cmd

import (
	"github.com/loopwatch/loo/internal/constants"
)

// options are the global options that precede every task.
type options struct {
	verbosity int
	fast      bool
	loopfile  string
	help      bool
	version   bool

	// args are the task arguments or, with a loopfile, its parameters.
	args []string
}

// parseOptions scans leading global options by hand. Scanning stops at the
// first other token so task options such as -d reach the task parser.
// With neither tasks nor a loopfile, the default loopfile is used.
func parseOptions(args []string) (options, error) {
	var o options
	for len(args) > 0 {
		switch args[0] {
		case "-q":
			o.verbosity--
		case "-v":
			o.verbosity++
		case "-f":
			o.fast = true
		case "-L":
			o.loopfile = constants.DefaultLoopfile
		case "-F":
			if len(args) < 2 {
				return o, &UsageError{Msg: "-F requires a loopfile"}
			}
			o.loopfile = args[1]
			args = args[1:]
		case "-h", "--help":
			o.help = true
		case "--version":
			o.version = true
		default:
			o.args = args
			return o.withDefaults(), nil
		}
		args = args[1:]
	}
	return o.withDefaults(), nil
}

func (o options) withDefaults() options {
	if o.loopfile == "" && len(o.args) == 0 {
		o.loopfile = constants.DefaultLoopfile
	}
	return o
}
