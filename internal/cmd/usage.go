package cmd

import (
	"fmt"
	"io"
	"regexp"

	"github.com/loopwatch/loo/internal/ui"
)

const usageText = `Usage: loo OPTS COMMAND [-- WATCH...]
       loo OPTS COMMAND [-- WATCH...] ++ OPTS COMMAND [-- WATCH...] ...
       loo --for NAME in ARG... do OPTS COMMAND [-- WATCH...]
       loo [-L ARGS]
       loo -F LOOPFILE ARGS

Wait for changes to the files named on the command line and run COMMAND
whenever one of them changes. Names following a '>' in the command are not
watched, and a name prefixed with @ is passed to the command but not watched.

Initial OPTS:
  -q          Print less info
  -v          Print more info
  -f          Faster polling for changes
  -F FILE     Load the loopfile FILE
  -L          Same as '-F Loopfile'
  -h, --help  Show this text
  --version   Print the version
These options must come first and apply to all command loops.

Per-command OPTS:
  -N          Show only the first N lines of output (N an integer)
  -w FILE     Watch FILE for changes
  -i FILE     Ignore changes to FILE even if it appears in COMMAND or WATCH
  -I          Watch only the names given in WATCH
  -d          Daemon mode: run in the background and restart as needed
  -a          Always restart when the command quits
  -x          Run once at startup without waiting for a change
  --for ...   Apply the command to several arguments, see below

WATCH: names after -- or given with -w are watched without being part of
the command.

Separate several command loops with ++.

A loopfile holds one command loop per nonblank line; lines starting with #
are comments. Arguments after -F FILE or -L are available in the loopfile as
$1, $2, ... and $# is their count; other environment variables are
substituted too. The loopfile is reloaded whenever it changes. Running loo
without arguments reads the loopfile named Loopfile in the current directory.

'--for VAR in ARG... do ...' repeats the command loop once per ARG with $VAR
replaced by it. In a loopfile each ARG is a glob pattern and $* stands for
the loopfile arguments.

Press enter to run every command (and restart every daemon), or type a task
number and press enter to run just that one. Interrupt once to stop the
daemons, twice to quit.

Settings are read from $LOO_CONFIG, ./.loo.toml or the user config
directory (loo/config.toml).

Examples:
  loo gcc test.c
      Recompile test.c whenever it changes
  loo gcc test.c ++ ./a.out
      Also run a.out whenever it changes
  loo make test -- *.c *.h
      Run make whenever a .c or .h file changes
  loo sed s/day/night/ \< dayfile \> nightfile
      Regenerate nightfile whenever dayfile changes; nightfile follows a
      '>' and is not watched
  loo -d ./server -- config.toml
      Keep ./server running and restart it when config.toml changes
  loo --for FILE in *.c do cc -c $FILE
      Compile any C file that changes
`

var sectionHeaderRE = regexp.MustCompile(`(?m)^(Usage|Initial OPTS|Per-command OPTS|WATCH|Examples):`)

var optionLineRE = regexp.MustCompile(`(?m)^(  )(-[-\w]*(?:,\s+--[\w-]+)?(?: [A-Z.]+)?)`)

var exampleLineRE = regexp.MustCompile(`(?m)^(  )(loo .*)$`)

// colorizeUsage applies accent color to section headers and command styling
// to option names and example invocations.
func colorizeUsage(text string) string {
	text = sectionHeaderRE.ReplaceAllStringFunc(text, ui.RenderAccent)
	text = optionLineRE.ReplaceAllStringFunc(text, func(match string) string {
		parts := optionLineRE.FindStringSubmatch(match)
		return parts[1] + ui.RenderBold(parts[2])
	})
	text = exampleLineRE.ReplaceAllStringFunc(text, func(match string) string {
		parts := exampleLineRE.FindStringSubmatch(match)
		return parts[1] + ui.RenderMuted(parts[2])
	})
	return text
}

func printUsage(w io.Writer) {
	if ui.ShouldUseColor() {
		fmt.Fprint(w, colorizeUsage(usageText))
		return
	}
	fmt.Fprint(w, usageText)
}
