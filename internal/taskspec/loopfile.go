package taskspec

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ReadLoopfile reads path and parses every nonblank line not starting with
// '#' as one task line. $1..$N and $# come from params; other names come
// from the environment and stay literal when unset.
func ReadLoopfile(fs afero.Fs, path string, params []string) ([]Spec, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading loopfile: %w", err)
	}

	var groups [][]string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(Substitute(line, params, os.LookupEnv))
		groups = append(groups, Split(fields)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading loopfile: %w", err)
	}

	specs, err := parseGroups(groups, Expansion{Loopfile: true, Params: params, Fs: fs})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// Substitute replaces $NAME and ${NAME} in line. Positional names and $#
// resolve against params, other names through lookup. Unresolved
// references, $*, and braced forms that are not a plain name (such as
// ${F%.c}) are left exactly as written, braces included.
func Substitute(line string, params []string, lookup func(string) (string, bool)) string {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		if line[i] != '$' {
			b.WriteByte(line[i])
			continue
		}
		ref, name := scanRef(line[i+1:])
		if ref == "" {
			b.WriteByte('$')
			continue
		}
		i += len(ref)
		if v, ok := resolve(name, params, lookup); ok {
			b.WriteString(v)
		} else {
			b.WriteString("$" + ref)
		}
	}
	return b.String()
}

// scanRef reads the reference following a '$': "{...}" up to the closing
// brace, a lone '#' or '*', or a run of letters, digits and underscores.
// It returns the raw text consumed and the name inside it, or "" when no
// reference starts here.
func scanRef(s string) (ref, name string) {
	if s == "" {
		return "", ""
	}
	switch c := s[0]; {
	case c == '{':
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return "", ""
		}
		return s[:end+1], s[1:end]
	case c == '#' || c == '*':
		return s[:1], s[:1]
	}
	n := 0
	for n < len(s) && isNameByte(s[n]) {
		n++
	}
	return s[:n], s[:n]
}

func resolve(name string, params []string, lookup func(string) (string, bool)) (string, bool) {
	switch {
	case name == "#":
		return strconv.Itoa(len(params)), true
	case name == "*":
		return "", false
	case isPositional(name):
		n, _ := strconv.Atoi(name)
		if n >= 1 && n <= len(params) {
			return params[n-1], true
		}
		return "", false
	case !isName(name):
		return "", false
	}
	return lookup(name)
}

func isNameByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return false
		}
	}
	return true
}

func isPositional(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
