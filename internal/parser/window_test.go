package parser

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitWindows_Blank(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		if got := SplitWindows(text, 100); got != nil {
			t.Errorf("SplitWindows(%q) = %v, want nil", text, got)
		}
	}
}

func TestSplitWindows_ShortTextSingleWindow(t *testing.T) {
	got := SplitWindows("  Payroll|Run payroll|Open HR<br>Click run|Monthly  ", 100)
	if len(got) != 1 {
		t.Fatalf("got %d windows, want 1", len(got))
	}
	if got[0] != "Payroll|Run payroll|Open HR<br>Click run|Monthly" {
		t.Errorf("window not trimmed: %q", got[0])
	}
}

func TestSplitWindows_Boundaries(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxChars  int
		wantFirst string
	}{
		{
			name:      "prefers blank line",
			text:      strings.Repeat("a", 80) + "\n\n" + strings.Repeat("b", 15) + "\n" + strings.Repeat("c", 40),
			maxChars:  100,
			wantFirst: strings.Repeat("a", 80),
		},
		{
			name:      "falls back to newline",
			text:      strings.Repeat("a", 90) + "\n" + strings.Repeat("b", 40),
			maxChars:  100,
			wantFirst: strings.Repeat("a", 90),
		},
		{
			name:      "falls back to space",
			text:      strings.Repeat("a", 85) + " " + strings.Repeat("b", 40),
			maxChars:  100,
			wantFirst: strings.Repeat("a", 85),
		},
		{
			name:      "ignores break before last quarter",
			text:      strings.Repeat("a", 10) + "\n\n" + strings.Repeat("b", 150),
			maxChars:  100,
			wantFirst: strings.Repeat("a", 10) + "\n\n" + strings.Repeat("b", 88),
		},
		{
			name:      "hard cut without whitespace",
			text:      strings.Repeat("x", 250),
			maxChars:  100,
			wantFirst: strings.Repeat("x", 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitWindows(tt.text, tt.maxChars)
			if len(got) < 2 {
				t.Fatalf("got %d windows, want at least 2", len(got))
			}
			if got[0] != tt.wantFirst {
				t.Errorf("first window = %q, want %q", got[0], tt.wantFirst)
			}
			for i, w := range got {
				if n := utf8.RuneCountInString(w); n > tt.maxChars {
					t.Errorf("window[%d] has %d chars, max %d", i, n, tt.maxChars)
				}
			}
		})
	}
}

func TestSplitWindows_RuneSafe(t *testing.T) {
	text := strings.Repeat("Überprüfung ", 40) + strings.Repeat("日本語", 30)

	got := SplitWindows(text, 50)
	var rebuilt strings.Builder
	for i, w := range got {
		if !utf8.ValidString(w) {
			t.Fatalf("window[%d] is not valid UTF-8", i)
		}
		if n := utf8.RuneCountInString(w); n > 50 {
			t.Errorf("window[%d] has %d runes", i, n)
		}
		rebuilt.WriteString(w)
	}

	strip := func(s string) string { return strings.Join(strings.Fields(s), "") }
	if strip(rebuilt.String()) != strip(text) {
		t.Error("windows lost or reordered content")
	}
}

func TestSplitWindows_NonPositiveMax(t *testing.T) {
	got := SplitWindows("one\n\ntwo", 0)
	if len(got) != 1 || got[0] != "one\n\ntwo" {
		t.Errorf("SplitWindows with max 0 = %q, want single window", got)
	}
}
