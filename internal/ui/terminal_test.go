package ui

import (
	"os"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIsTerminal(t *testing.T) {
	// result depends on the test environment; it must not panic
	_ = IsTerminal()
	_ = IsInputTerminal()
}

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		unset []string
		want  bool
	}{
		{"NO_COLOR set", map[string]string{"NO_COLOR": "1"}, nil, false},
		{"NO_COLOR any value", map[string]string{"NO_COLOR": "0", "CLICOLOR_FORCE": "1"}, nil, false},
		{"CLICOLOR=0", map[string]string{"CLICOLOR": "0", "CLICOLOR_FORCE": "1"}, []string{"NO_COLOR"}, false},
		{"CLICOLOR_FORCE", map[string]string{"CLICOLOR_FORCE": "1", "CLICOLOR": "1"}, []string{"NO_COLOR"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			for _, k := range tt.unset {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			if got := ShouldUseColor(); got != tt.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitTheme(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		config string
		want   ThemeMode
	}{
		{"env overrides config", "light", "dark", ThemeModeLight},
		{"config used when env empty", "", "dark", ThemeModeDark},
		{"invalid env falls back to config", "purple", "light", ThemeModeLight},
		{"defaults to auto", "", "", ThemeModeAuto},
		{"case insensitive", "DARK", "", ThemeModeDark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOO_THEME", tt.env)
			InitTheme(tt.config)
			if got := GetThemeMode(); got != tt.want {
				t.Errorf("GetThemeMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasDarkBackgroundForcedModes(t *testing.T) {
	t.Setenv("LOO_THEME", "dark")
	InitTheme("")
	if !HasDarkBackground() {
		t.Error("dark mode should report a dark background")
	}

	t.Setenv("LOO_THEME", "light")
	InitTheme("")
	if HasDarkBackground() {
		t.Error("light mode should not report a dark background")
	}
}

func TestParseThemeMode(t *testing.T) {
	if _, ok := ParseThemeMode("sepia"); ok {
		t.Error("unknown mode accepted")
	}
	if m, ok := ParseThemeMode("Auto"); !ok || m != ThemeModeAuto {
		t.Errorf("ParseThemeMode(Auto) = %q, %v", m, ok)
	}
}

func TestRule(t *testing.T) {
	if n := utf8.RuneCountInString(Rule); n != 78 {
		t.Errorf("Rule has %d runes, want 78", n)
	}
	if !strings.Contains(RenderRule(), "―") {
		t.Error("RenderRule() lost the rule characters")
	}
}
