package proc

import (
	"bytes"
	"testing"
)

func TestLineLimiter(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		writes []string
		want   string
	}{
		{"under limit", 3, []string{"a\n", "b\n"}, "a\nb\n"},
		{"cut inside one write", 2, []string{"a\nb\nc\nd\n"}, "a\nb\n"},
		{"cut across writes", 2, []string{"a\n", "b\nc\n", "d\n"}, "a\nb\n"},
		{"partial trailing line passes", 2, []string{"a\nbb"}, "a\nbb"},
		{"everything after limit dropped", 1, []string{"a\n", "b", "c\n"}, "a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLineLimiter(&buf, tt.limit)
			for _, w := range tt.writes {
				n, err := l.Write([]byte(w))
				if err != nil {
					t.Fatalf("Write: %v", err)
				}
				if n != len(w) {
					t.Errorf("Write returned %d, want %d", n, len(w))
				}
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineLimiterExhausted(t *testing.T) {
	var buf bytes.Buffer
	l := NewLineLimiter(&buf, 1)
	if l.Exhausted() {
		t.Fatal("fresh limiter reports exhausted")
	}
	_, _ = l.Write([]byte("one\n"))
	if !l.Exhausted() {
		t.Error("limiter not exhausted after its only line")
	}
}
