package parser

import "strings"

// SplitWindows cuts text into windows of at most maxChars characters so each
// fits a single extraction call. Within the last quarter of a window it
// prefers to cut after a blank line, then after a newline, then after a
// space; otherwise it cuts hard at maxChars. Windows are trimmed and blank
// windows are dropped, so blank text yields no windows.
func SplitWindows(text string, maxChars int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxChars <= 0 {
		return []string{strings.TrimSpace(text)}
	}

	runes := []rune(text)
	var windows []string

	for len(runes) > 0 {
		cut := len(runes)
		if cut > maxChars {
			cut = breakPoint(runes[:maxChars], maxChars-maxChars/4)
		}

		if w := strings.TrimSpace(string(runes[:cut])); w != "" {
			windows = append(windows, w)
		}
		runes = runes[cut:]
	}

	return windows
}

// breakPoint returns the cut position within window, searching no earlier
// than floor. The returned index is exclusive.
func breakPoint(window []rune, floor int) int {
	for i := len(window) - 1; i > floor; i-- {
		if window[i] == '\n' && window[i-1] == '\n' {
			return i + 1
		}
	}
	for i := len(window) - 1; i >= floor; i-- {
		if window[i] == '\n' {
			return i + 1
		}
	}
	for i := len(window) - 1; i >= floor; i-- {
		if window[i] == ' ' || window[i] == '\t' {
			return i + 1
		}
	}
	return len(window)
}
