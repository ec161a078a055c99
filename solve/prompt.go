package solve

import (
	"fmt"
	"strings"
)

// DefaultPreamble instructs the model to answer with a bare diff. Small
// local models drift into prose without a blunt instruction up front.
const DefaultPreamble = `You are a precise coding assistant. Reply with ONLY a unified diff ` +
	`(--- a/file, +++ b/file, @@ hunks). No explanation, no code fences, no commentary.`

// assemblePrompt renders the preamble template and appends the task,
// context file snapshots and piped input.
func (o *Orchestrator) assemblePrompt(req Request) (string, error) {
	preamble := o.settings.Preamble
	if preamble == "" {
		preamble = DefaultPreamble
	}

	vars := map[string]any{
		"prompt":      req.Prompt,
		"files":       req.Context.Paths(),
		"stdin_label": req.Context.StdinLabel,
	}
	rendered, err := o.templates.Render(preamble, vars)
	if err != nil {
		return "", fmt.Errorf("render preamble: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(rendered))
	b.WriteString("\n\nTask: ")
	b.WriteString(req.Prompt)
	b.WriteString("\n")

	for _, entry := range req.Context.Entries {
		fmt.Fprintf(&b, "\n--- FILE: %s ---\n", entry.Path)
		b.WriteString(entry.Content)
		if !strings.HasSuffix(entry.Content, "\n") {
			b.WriteString("\n")
		}
	}

	if req.Context.Stdin != "" {
		fmt.Fprintf(&b, "\n--- INPUT: %s ---\n", req.Context.StdinLabel)
		b.WriteString(req.Context.Stdin)
		if !strings.HasSuffix(req.Context.Stdin, "\n") {
			b.WriteString("\n")
		}
	}

	b.WriteString("\nProduce the unified diff now.\n")
	return b.String(), nil
}
