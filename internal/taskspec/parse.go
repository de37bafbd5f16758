package taskspec

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/loopwatch/loo/internal/constants"
	"github.com/spf13/afero"
)

// Expansion controls how --for groups are expanded.
type Expansion struct {
	// Loopfile enables loopfile rules for --for values: each value is a
	// glob pattern and "$*" stands for Params.
	Loopfile bool

	// Params are the invocation parameters passed after the loopfile name.
	Params []string

	// Fs resolves glob patterns. Nil means the OS filesystem.
	Fs afero.Fs

	// Getenv resolves variables in --for templates other than the loop
	// variable. Nil means os.Getenv.
	Getenv func(string) string
}

func (x Expansion) getenv(name string) string {
	if x.Getenv != nil {
		return x.Getenv(name)
	}
	return os.Getenv(name)
}

func (x Expansion) fs() afero.Fs {
	if x.Fs != nil {
		return x.Fs
	}
	return afero.NewOsFs()
}

// Split breaks args on the "++" separator. Empty groups are dropped.
func Split(args []string) [][]string {
	var groups [][]string
	var cur []string
	for _, a := range args {
		if a == constants.TaskSeparator {
			if len(cur) > 0 {
				groups = append(groups, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, a)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// Parse resolves inline arguments (or the token groups of a loopfile) into
// specs and labels them when there is more than one.
func Parse(args []string, x Expansion) ([]Spec, error) {
	return parseGroups(Split(args), x)
}

func parseGroups(groups [][]string, x Expansion) ([]Spec, error) {
	var expanded [][]string
	for _, g := range groups {
		gs, err := ExpandFor(g, x)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, gs...)
	}
	if len(expanded) == 0 {
		return nil, &ParseError{Msg: "no tasks given"}
	}

	specs := make([]Spec, 0, len(expanded))
	for _, g := range expanded {
		spec, err := ParseTask(g)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) > 1 {
		for i := range specs {
			specs[i].Label = fmt.Sprintf("[%d] ", i+1)
		}
	}
	return specs, nil
}

// ParseTask parses one task: leading options, the command, and an
// optional "--" followed by watch-only paths.
func ParseTask(tokens []string) (Spec, error) {
	spec := Spec{AutoWatch: true}

	i := 0
options:
	for i < len(tokens) && strings.HasPrefix(tokens[i], "-") && tokens[i] != "--" {
		opt := tokens[i]
		i++
		switch opt {
		case "-w", "-i":
			if i >= len(tokens) {
				return Spec{}, &ParseError{Token: opt, Msg: "requires a path"}
			}
			if opt == "-w" {
				spec.Watch = append(spec.Watch, tokens[i])
			} else {
				spec.Ignore = append(spec.Ignore, tokens[i])
			}
			i++
		case "-I":
			spec.AutoWatch = false
		case "-d":
			spec.Background = true
		case "-a":
			spec.AlwaysRestart = true
		case "-x":
			spec.SkipInitialWait = true
		default:
			n, err := strconv.Atoi(opt[1:])
			if err != nil || n <= 0 {
				if opt == "-" {
					i--
					break options
				}
				return Spec{}, &ParseError{Token: opt, Msg: "unknown option"}
			}
			spec.LineLimit = n
		}
	}

	rest := tokens[i:]
	cmd := rest
	var watch []string
	for j, tok := range rest {
		if tok == "--" {
			cmd, watch = rest[:j], rest[j+1:]
			break
		}
	}

	for _, tok := range cmd {
		if len(tok) > 1 && tok[0] == '@' {
			tok = tok[1:]
			spec.Ignore = append(spec.Ignore, tok)
		}
		spec.Command = append(spec.Command, tok)
	}
	if len(spec.Command) == 0 {
		return Spec{}, &ParseError{Token: strings.Join(tokens, " "), Msg: "missing command"}
	}
	for _, w := range watch {
		if w == "--" {
			continue
		}
		if len(w) > 1 && w[0] == '@' {
			w = w[1:]
			spec.Ignore = append(spec.Ignore, w)
		}
		spec.Watch = append(spec.Watch, w)
	}
	return spec, nil
}
