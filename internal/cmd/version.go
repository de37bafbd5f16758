package cmd

import (
	"fmt"
	"runtime/debug"
)

// Version information - set at build time via ldflags
var (
	Version = "0.3.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
	// Commit is the git revision the binary was built from (optional ldflag)
	Commit = ""
)

func versionString() string {
	if commit := resolveCommitHash(); commit != "" {
		return fmt.Sprintf("loo version %s (%s: %s)", Version, Build, shortCommit(commit))
	}
	return fmt.Sprintf("loo version %s (%s)", Version, Build)
}

func resolveCommitHash() string {
	if Commit != "" {
		return Commit
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}

	return ""
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
