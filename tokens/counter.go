package tokens

import (
	"strings"
	"unicode/utf8"
)

// DefaultCharsPerToken is the assumed character-to-token ratio. Roughly 4
// characters per token holds for English text and most source code.
const DefaultCharsPerToken = 4.0

// Counter estimates token counts for text.
type Counter interface {
	// Count estimates the number of tokens in the given text.
	Count(text string) int

	// FitsInLimit reports whether the text fits within the token limit.
	FitsInLimit(text string, limit int) bool
}

// EstimatingCounter uses a fixed character-to-token ratio.
type EstimatingCounter struct {
	// CharsPerToken is the average characters per token.
	CharsPerToken float64
}

// NewEstimatingCounter creates a counter with the default ratio.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{CharsPerToken: DefaultCharsPerToken}
}

// Count estimates the number of tokens in the given text. Runes are
// counted rather than bytes so multi-byte characters do not inflate the
// estimate.
func (c *EstimatingCounter) Count(text string) int {
	ratio := c.CharsPerToken
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	return int(float64(utf8.RuneCountInString(text))/ratio + 0.5)
}

// FitsInLimit reports whether the text fits within the token limit.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Estimate is a convenience function using the default counter.
func Estimate(text string) int {
	return NewEstimatingCounter().Count(text)
}

// modelWindows maps local model families to their context window sizes.
// Keyed by model name prefix so tags like "codellama:7b-instruct" resolve.
var modelWindows = map[string]int{
	"phi3":           4096,
	"codellama":      16384,
	"llama3":         8192,
	"qwen2.5-coder":  32768,
	"deepseek-coder": 16384,
	"mistral":        8192,
	"starcoder2":     16384,
}

// DefaultWindow is assumed for models not in the table.
const DefaultWindow = 8192

// ContextWindow returns the context window for a local model name. The
// name may carry an "api:ollama:" routing prefix and a size tag.
func ContextWindow(model string) int {
	model = strings.TrimPrefix(model, "api:ollama:")
	for prefix, window := range modelWindows {
		if strings.HasPrefix(model, prefix) {
			return window
		}
	}
	return DefaultWindow
}
