package taskspec

import (
	"sort"
	"strings"

	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/shell"
)

// ExpandFor expands "--for VAR in VALUE... do TEMPLATE..." into one group
// per value, substituting VAR in every template token with double-quote
// shell expansion. Groups not starting with --for are returned unchanged.
func ExpandFor(group []string, x Expansion) ([][]string, error) {
	if len(group) == 0 || group[0] != "--for" {
		return [][]string{group}, nil
	}
	if len(group) < 3 {
		return nil, &ParseError{Token: "--for", Msg: "expected VAR in VALUE... do COMMAND"}
	}
	name := group[1]
	if group[2] != "in" {
		return nil, &ParseError{Token: group[2], Msg: `expected "in"`}
	}

	rest := group[3:]
	do := -1
	for i, tok := range rest {
		if tok == "do" {
			do = i
			break
		}
	}
	if do < 0 {
		return nil, &ParseError{Token: "--for", Msg: `missing "do"`}
	}
	values, template := rest[:do], rest[do+1:]
	if len(template) == 0 {
		return nil, &ParseError{Token: "do", Msg: "missing command"}
	}

	if x.Loopfile {
		var err error
		if values, err = x.expandValues(values); err != nil {
			return nil, err
		}
	}

	groups := make([][]string, 0, len(values))
	for _, value := range values {
		env := func(n string) string {
			if n == name {
				return value
			}
			return x.getenv(n)
		}
		g := make([]string, 0, len(template))
		for _, tok := range template {
			s, err := shell.Expand(tok, env)
			if err != nil {
				return nil, &ParseError{Token: tok, Msg: "cannot expand", Err: err}
			}
			g = append(g, s)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// expandValues applies loopfile rules to --for values: "$*" becomes the
// invocation parameters and glob patterns become their sorted matches.
// A pattern without matches contributes nothing; a plain word is kept.
func (x Expansion) expandValues(values []string) ([]string, error) {
	var out []string
	for _, v := range values {
		if v == "$*" {
			out = append(out, x.Params...)
			continue
		}
		if !strings.ContainsAny(v, `*?[\`) {
			out = append(out, v)
			continue
		}
		matches, err := afero.Glob(x.fs(), v)
		if err != nil {
			return nil, &ParseError{Token: v, Msg: "bad pattern", Err: err}
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}
