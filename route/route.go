// Package route selects models and backends for a solve request.
//
// Routing is explicit data: an ordered list of (glob pattern, overrides)
// rules evaluated against the request's context file paths. The most
// specific matching rule wins, where specificity is pattern length;
// declared order breaks ties. Patterns match either the full relative path
// or the basename.
package route

import (
	"path"
	"path/filepath"
)

// Rule overrides model routing when its pattern matches a context file.
type Rule struct {
	// Pattern is a glob matched against each context file path and
	// basename (e.g. "*.sql", "internal/db/*.go").
	Pattern string `json:"pattern" yaml:"pattern" toml:"pattern"`

	// PrimaryModel overrides the primary backend's model.
	PrimaryModel string `json:"primary_model,omitempty" yaml:"primary_model,omitempty" toml:"primary_model"`

	// FallbackModels overrides the fallback backend's model list.
	FallbackModels string `json:"fallback_models,omitempty" yaml:"fallback_models,omitempty" toml:"fallback_models"`

	// MaxAttempts overrides the primary attempt budget. Nil leaves the
	// configured budget in place; zero skips the primary entirely.
	MaxAttempts *int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" toml:"max_attempts"`
}

// Matches reports whether the rule applies to any of the given files.
func (r Rule) Matches(files []string) bool {
	for _, file := range files {
		if ok, err := path.Match(r.Pattern, filepath.ToSlash(file)); err == nil && ok {
			return true
		}
		if ok, err := path.Match(r.Pattern, path.Base(filepath.ToSlash(file))); err == nil && ok {
			return true
		}
	}
	return false
}

// Overrides is the resolved effect of routing on a request.
type Overrides struct {
	PrimaryModel   string
	FallbackModels string
	MaxAttempts    *int

	// Pattern is the winning rule's pattern, for logging. Empty when no
	// rule matched.
	Pattern string
}

// Table is an ordered rule set.
type Table struct {
	rules []Rule
}

// NewTable creates a table preserving declared rule order.
func NewTable(rules []Rule) *Table {
	return &Table{rules: rules}
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Resolve returns the overrides of the most specific rule matching the
// file set. Longer patterns are more specific; declared order breaks ties.
func (t *Table) Resolve(files []string) Overrides {
	best := -1
	for i, rule := range t.rules {
		if !rule.Matches(files) {
			continue
		}
		if best < 0 || len(rule.Pattern) > len(t.rules[best].Pattern) {
			best = i
		}
	}
	if best < 0 {
		return Overrides{}
	}

	winner := t.rules[best]
	return Overrides{
		PrimaryModel:   winner.PrimaryModel,
		FallbackModels: winner.FallbackModels,
		MaxAttempts:    winner.MaxAttempts,
		Pattern:        winner.Pattern,
	}
}
