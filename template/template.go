// Package template renders solve prompt templates.
//
// Preamble and repair templates use Handlebars-like placeholders, which
// read better in config files than Go template dots:
//
//	Produce a unified diff for: {{prompt}}
//	{{#if files}}Context files: {{join files ", "}}{{/if}}
//
// The syntax is converted to text/template before execution.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Sentinel errors for template operations.
var (
	// ErrEmpty is returned when the template string is empty.
	ErrEmpty = errors.New("template is empty")

	// ErrParse is returned when the template fails to parse.
	ErrParse = errors.New("template parse error")

	// ErrExecute is returned when template execution fails.
	ErrExecute = errors.New("template execution error")
)

// Engine renders prompt templates with variable substitution.
type Engine struct {
	funcs   template.FuncMap
	helpers []string
}

// NewEngine creates an engine with the built-in helpers.
func NewEngine() *Engine {
	return &Engine{
		funcs:   defaultFuncs(),
		helpers: append([]string(nil), helperNames...),
	}
}

// Render executes the template with the given variables.
func (e *Engine) Render(templateStr string, variables map[string]any) (string, error) {
	if templateStr == "" {
		return "", ErrEmpty
	}

	tmpl, err := template.New("prompt").Funcs(e.funcs).Parse(convertSyntax(templateStr, e.helpers))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrParse, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExecute, err)
	}
	return buf.String(), nil
}

// AddFunc registers a custom helper and makes its arguments eligible for
// variable conversion.
func (e *Engine) AddFunc(name string, fn any) {
	e.funcs[name] = fn
	e.helpers = append(e.helpers, name)
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"join":  strings.Join,
		"trim":  strings.TrimSpace,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"json":  toJSON,
		"indent": func(s string, spaces int) string {
			prefix := strings.Repeat(" ", spaces)
			lines := strings.Split(s, "\n")
			for i := range lines {
				lines[i] = prefix + lines[i]
			}
			return strings.Join(lines, "\n")
		},
		"truncate": func(s string, maxLen int) string {
			if len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"default": func(val, fallback any) any {
			if val == nil {
				return fallback
			}
			if s, ok := val.(string); ok && s == "" {
				return fallback
			}
			return val
		},
	}
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
