package template

import (
	"regexp"
	"strings"
)

// helperNames lists the built-in helpers whose arguments need variable
// conversion.
var helperNames = []string{
	"join", "trim", "upper", "lower", "json", "indent", "truncate", "default",
}

// goTemplateKeywords must not be rewritten into variable references.
var goTemplateKeywords = map[string]bool{
	"else": true, "end": true, "if": true, "range": true, "with": true,
}

var (
	ifPattern   = regexp.MustCompile(`\{\{#if\s+(\w+)\}\}`)
	eachPattern = regexp.MustCompile(`\{\{#each\s+(\w+)\}\}`)
	varPattern  = regexp.MustCompile(`\{\{([a-zA-Z_]\w*)\}\}`)
)

// convertSyntax rewrites Handlebars-like placeholders into Go template
// syntax:
//
//	{{variable}}               -> {{.variable}}
//	{{#if x}}...{{/if}}        -> {{if .x}}...{{end}}
//	{{#each xs}}...{{/each}}   -> {{range .xs}}...{{end}}
//	{{join files ", "}}        -> {{join .files ", "}}
func convertSyntax(input string, helpers []string) string {
	result := ifPattern.ReplaceAllString(input, "{{if .$1}}")
	result = strings.ReplaceAll(result, "{{/if}}", "{{end}}")
	result = eachPattern.ReplaceAllString(result, "{{range .$1}}")
	result = strings.ReplaceAll(result, "{{/each}}", "{{end}}")

	result = varPattern.ReplaceAllStringFunc(result, func(match string) string {
		name := match[2 : len(match)-2]
		if goTemplateKeywords[name] {
			return match
		}
		return "{{." + name + "}}"
	})

	return convertHelperCalls(result, helpers)
}

func convertHelperCalls(input string, helpers []string) string {
	for _, helper := range helpers {
		pattern := regexp.MustCompile(`\{\{` + helper + `\s+([^{}]+)\}\}`)
		input = pattern.ReplaceAllStringFunc(input, func(match string) string {
			args := strings.TrimSpace(match[len("{{")+len(helper)+1 : len(match)-2])
			return "{{" + helper + " " + convertArguments(args) + "}}"
		})
	}
	return input
}

// convertArguments prefixes bare identifiers with a dot, leaving numbers,
// quoted strings and booleans untouched.
func convertArguments(args string) string {
	parts := splitArguments(args)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, ".") || isNumber(part) || isQuoted(part) ||
			part == "true" || part == "false" {
			continue
		}
		if isIdentifier(part) {
			parts[i] = "." + part
		}
	}
	return strings.Join(parts, " ")
}

// splitArguments splits on spaces while respecting quoted strings.
func splitArguments(args string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	for _, ch := range args {
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
			current.WriteRune(ch)
		case inQuote && ch == quoteChar:
			inQuote = false
			current.WriteRune(ch)
		case !inQuote && ch == ' ':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		if ch == '-' && i == 0 || ch == '.' {
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
		(strings.HasPrefix(s, `'`) && strings.HasSuffix(s, `'`))
}

func isIdentifier(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for _, ch := range s {
		ok := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9')
		if !ok {
			return false
		}
	}
	return true
}
