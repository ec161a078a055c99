package tokens

// Default prompt budget split, in percent of the model's context window.
// The bulk goes to context files; a fifth is reserved for the completion
// so the model has room to emit the whole diff.
const (
	DefaultPreamblePercent = 10
	DefaultContextPercent  = 55
	DefaultPromptPercent   = 15
	DefaultReservedPercent = 20
)

// Budget allocates a model's context window across prompt sections.
type Budget struct {
	// Total is the model's context window in tokens.
	Total int

	// Preamble is the allowance for the instruction preamble.
	Preamble int

	// Context is the allowance for context file snapshots.
	Context int

	// Prompt is the allowance for the user request and stdin blob.
	Prompt int

	// Reserved is held back for the model's completion.
	Reserved int

	counter Counter
}

// NewBudget splits a context window with the default allocation.
func NewBudget(total int) *Budget {
	return &Budget{
		Total:    total,
		Preamble: total * DefaultPreamblePercent / 100,
		Context:  total * DefaultContextPercent / 100,
		Prompt:   total * DefaultPromptPercent / 100,
		Reserved: total * DefaultReservedPercent / 100,
		counter:  NewEstimatingCounter(),
	}
}

// ForModel builds a budget from a model's known context window.
func ForModel(model string) *Budget {
	return NewBudget(ContextWindow(model))
}

// FitsContext reports whether the text fits the context allowance.
func (b *Budget) FitsContext(text string) bool {
	return b.counter.FitsInLimit(text, b.Context)
}

// RemainingContext returns the context allowance left after usedTokens.
func (b *Budget) RemainingContext(usedTokens int) int {
	remaining := b.Context - usedTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PerFileContext divides the context allowance evenly across n files.
func (b *Budget) PerFileContext(n int) int {
	if n <= 0 {
		return b.Context
	}
	return b.Context / n
}
