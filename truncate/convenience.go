package truncate

import (
	"strings"
	"unicode/utf8"
)

// ToTokens truncates text to a token limit, removing from the end.
func ToTokens(text string, maxTokens int) string {
	result, _ := NewFromEnd().Truncate(text, maxTokens)
	return result
}

// FileSnippet truncates a file snapshot to a token limit, removing from
// the middle so both the head declarations and the tail survive.
func FileSnippet(text string, maxTokens int) (string, bool) {
	return NewFromMiddle().Truncate(text, maxTokens)
}

// ToLines keeps the first maxLines lines.
func ToLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	return strings.Join(lines[:maxLines], "\n") + "\n..."
}

// TailLines keeps the last maxLines lines. Used for test output, where
// the failure summary is printed last.
func TailLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) <= maxLines {
		return text
	}
	return "...\n" + strings.Join(lines[len(lines)-maxLines:], "\n")
}

// ToLength truncates text to a rune count.
func ToLength(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
