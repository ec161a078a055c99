package truncate

import (
	"strings"
	"testing"
)

func TestTruncate_FitsUnchanged(t *testing.T) {
	tr := NewFromEnd()

	got, truncated := tr.Truncate("short text", 100)
	if truncated {
		t.Error("expected no truncation")
	}
	if got != "short text" {
		t.Errorf("got %q, want unchanged text", got)
	}
}

func TestTruncate_FromEnd(t *testing.T) {
	tr := NewFromEnd()
	text := strings.Repeat("abcd", 100) // ~100 tokens

	got, truncated := tr.Truncate(text, 50)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if !strings.HasSuffix(got, DefaultEndSuffix) {
		t.Errorf("expected end suffix, got %q", got[len(got)-10:])
	}
	if !strings.HasPrefix(got, "abcd") {
		t.Error("expected head to survive end truncation")
	}
	if est := len([]rune(got)) / 4; est > 50 {
		t.Errorf("result ~%d tokens, want <= 50", est)
	}
}

func TestTruncate_FromMiddle(t *testing.T) {
	tr := NewFromMiddle()
	text := "HEAD" + strings.Repeat("x", 1000) + "TAIL"

	got, truncated := tr.Truncate(text, 50)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if !strings.HasPrefix(got, "HEAD") {
		t.Error("expected head to survive middle truncation")
	}
	if !strings.HasSuffix(got, "TAIL") {
		t.Error("expected tail to survive middle truncation")
	}
	if !strings.Contains(got, DefaultMiddleSuffix) {
		t.Error("expected middle truncation marker")
	}
}

func TestTruncate_FromStart(t *testing.T) {
	tr := NewFromStart()
	text := strings.Repeat("x", 1000) + "TAIL"

	got, truncated := tr.Truncate(text, 50)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if !strings.HasSuffix(got, "TAIL") {
		t.Error("expected tail to survive start truncation")
	}
	if !strings.HasPrefix(got, DefaultEndSuffix) {
		t.Error("expected marker at the start")
	}
}

func TestTruncate_TinyBudgetReturnsSuffixOnly(t *testing.T) {
	tr := NewFromEnd()

	got, truncated := tr.Truncate(strings.Repeat("x", 100), 0)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if got != DefaultEndSuffix {
		t.Errorf("got %q, want bare suffix", got)
	}
}

func TestTruncate_MultibyteNotSplit(t *testing.T) {
	tr := NewFromEnd()
	text := strings.Repeat("語", 400)

	got, _ := tr.Truncate(text, 50)
	for _, r := range got {
		if r == '�' {
			t.Fatal("multi-byte rune was split")
		}
	}
}

func TestFileSnippet(t *testing.T) {
	text := "package main\n" + strings.Repeat("// filler\n", 500) + "func tail() {}\n"

	got, truncated := FileSnippet(text, 60)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if !strings.HasPrefix(got, "package main") {
		t.Error("expected file head to survive")
	}
	if !strings.Contains(got, "func tail()") {
		t.Error("expected file tail to survive")
	}
}

func TestToLines(t *testing.T) {
	text := "a\nb\nc\nd"

	if got := ToLines(text, 2); got != "a\nb\n..." {
		t.Errorf("ToLines = %q", got)
	}
	if got := ToLines(text, 10); got != text {
		t.Errorf("ToLines under limit = %q, want unchanged", got)
	}
	if got := ToLines(text, 0); got != "" {
		t.Errorf("ToLines(0) = %q, want empty", got)
	}
}

func TestTailLines(t *testing.T) {
	text := "a\nb\nc\nd\n"

	if got := TailLines(text, 2); got != "...\nc\nd" {
		t.Errorf("TailLines = %q", got)
	}
	if got := TailLines(text, 10); got != text {
		t.Errorf("TailLines under limit = %q, want unchanged", got)
	}
}

func TestToLength(t *testing.T) {
	if got := ToLength("hello world", 8); got != "hello..." {
		t.Errorf("ToLength = %q", got)
	}
	if got := ToLength("short", 10); got != "short" {
		t.Errorf("ToLength under limit = %q", got)
	}
	if got := ToLength("abcdef", 2); got != "ab" {
		t.Errorf("ToLength tiny = %q", got)
	}
}
