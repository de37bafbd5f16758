// Package config loads loo's optional TOML settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/loopwatch/loo/internal/constants"
)

// Settings are the tunables of the poll loop and its ambient output.
// Keys absent from the file keep their defaults.
type Settings struct {
	// PollInterval is the pause between ticks.
	PollInterval Duration `toml:"poll_interval"`

	// FastDivisor divides PollInterval in fast mode.
	FastDivisor int `toml:"fast_divisor"`

	// InputWait bounds how long each tick waits for an operator line.
	InputWait Duration `toml:"input_wait"`

	// GraceWindow is how long a second interrupt is awaited.
	GraceWindow Duration `toml:"grace_window"`

	// TermWait bounds the wait for a terminated process before respawning.
	TermWait Duration `toml:"term_wait"`

	// Notify enables filesystem notifications as an early wake-up hint.
	Notify bool `toml:"notify"`

	// InstanceLock warns when another loo supervises the same loopfile.
	// Off by default: the lock leaves files in the temporary directory.
	InstanceLock bool `toml:"instance_lock"`

	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`

	// Verbosity is the starting verbosity; -q and -v adjust it.
	Verbosity int `toml:"verbosity"`

	Log LogSettings `toml:"log"`
}

// LogSettings configure the lifecycle event log. An empty File disables it.
type LogSettings struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return d.Duration.String()
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		PollInterval: Duration{constants.PollInterval},
		FastDivisor:  constants.FastDivisor,
		InputWait:    Duration{constants.InputWait},
		GraceWindow:  Duration{constants.GraceWindow},
		TermWait:     Duration{constants.TermWait},
		Notify:       true,
		Theme:        "auto",
		Log: LogSettings{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Interval returns the poll interval, divided by FastDivisor when fast.
func (s *Settings) Interval(fast bool) time.Duration {
	if fast && s.FastDivisor > 1 {
		return s.PollInterval.Duration / time.Duration(s.FastDivisor)
	}
	return s.PollInterval.Duration
}

// Validate rejects settings the loop cannot run with.
func (s *Settings) Validate() error {
	var problems []string
	if s.PollInterval.Duration <= 0 {
		problems = append(problems, "poll_interval must be positive")
	}
	if s.FastDivisor < 1 {
		problems = append(problems, "fast_divisor must be at least 1")
	}
	if s.InputWait.Duration < 0 {
		problems = append(problems, "input_wait must not be negative")
	}
	if s.GraceWindow.Duration < 0 {
		problems = append(problems, "grace_window must not be negative")
	}
	if s.TermWait.Duration < 0 {
		problems = append(problems, "term_wait must not be negative")
	}
	switch strings.ToLower(s.Theme) {
	case "", "auto", "dark", "light":
	default:
		problems = append(problems, fmt.Sprintf("theme %q must be auto, dark or light", s.Theme))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LoadSettings reads path over the defaults. A missing file yields the
// defaults. The returned keys are the ones the file set but loo does not
// know, for the caller to warn about.
func LoadSettings(path string) (*Settings, []string, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil, nil
		}
		return nil, nil, fmt.Errorf("reading settings: %w", err)
	}

	md, err := toml.Decode(string(data), s)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}
	sort.Strings(unknown)

	if s.Log.File != "" && !filepath.IsAbs(s.Log.File) {
		s.Log.File = filepath.Join(filepath.Dir(path), s.Log.File)
	}
	return s, unknown, nil
}

// SettingsPath picks the settings file: $LOO_CONFIG, then ./.loo.toml, then
// the user config directory. It returns "" when none applies.
func SettingsPath() string {
	if p := os.Getenv(constants.EnvConfig); p != "" {
		return p
	}
	if _, err := os.Stat(constants.FileSettings); err == nil {
		return constants.FileSettings
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, constants.DirConfig, constants.FileConfig)
	}
	return ""
}
