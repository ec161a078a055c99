package tokens

import (
	"strings"
	"testing"
)

func TestEstimatingCounter_Count(t *testing.T) {
	c := NewEstimatingCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{
			name:     "empty string",
			text:     "",
			expected: 0,
		},
		{
			name:     "four chars is one token",
			text:     "abcd",
			expected: 1,
		},
		{
			name:     "rounds to nearest",
			text:     "abcdef",
			expected: 2,
		},
		{
			name:     "multibyte runes counted once",
			text:     "日本語語", // 4 runes
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Count(tt.text); got != tt.expected {
				t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestEstimatingCounter_ZeroRatioFallsBack(t *testing.T) {
	c := &EstimatingCounter{CharsPerToken: 0}
	if got := c.Count("abcd"); got != 1 {
		t.Errorf("Count with zero ratio = %d, want 1", got)
	}
}

func TestEstimatingCounter_FitsInLimit(t *testing.T) {
	c := NewEstimatingCounter()
	text := strings.Repeat("x", 400) // ~100 tokens

	if !c.FitsInLimit(text, 100) {
		t.Error("expected text to fit in 100 tokens")
	}
	if c.FitsInLimit(text, 99) {
		t.Error("expected text not to fit in 99 tokens")
	}
}

func TestContextWindow(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{"phi3:mini", 4096},
		{"api:ollama:phi3:mini", 4096},
		{"codellama:7b-instruct", 16384},
		{"qwen2.5-coder:7b", 32768},
		{"some-unknown-model", DefaultWindow},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := ContextWindow(tt.model); got != tt.expected {
				t.Errorf("ContextWindow(%q) = %d, want %d", tt.model, got, tt.expected)
			}
		})
	}
}

func TestEstimate(t *testing.T) {
	if got := Estimate("abcdabcd"); got != 2 {
		t.Errorf("Estimate = %d, want 2", got)
	}
}
