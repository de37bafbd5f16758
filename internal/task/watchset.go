package task

import (
	"sort"

	"github.com/loopwatch/loo/internal/taskspec"
)

// WatchSet derives the paths a task watches: command tokens naming
// existing files (unless auto-watch is off, and never the token after a
// ">"), plus explicit watch paths, minus ignored paths. The result is sorted.
func WatchSet(spec taskspec.Spec, exists func(string) bool) []string {
	set := make(map[string]struct{})
	if spec.AutoWatch {
		for i, tok := range spec.Command {
			if i > 0 && spec.Command[i-1] == ">" {
				continue
			}
			if exists(tok) {
				set[tok] = struct{}{}
			}
		}
	}
	for _, w := range spec.Watch {
		set[w] = struct{}{}
	}
	for _, ig := range spec.Ignore {
		delete(set, ig)
	}

	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
