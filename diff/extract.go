package diff

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoDiff is returned when no unified-diff-shaped region is found.
var ErrNoDiff = errors.New("no unified diff found in model output")

// Candidate is a diff extracted from raw model output.
type Candidate struct {
	// Text is the normalized diff text, LF line endings, trailing newline.
	Text string

	// Backend is the backend that produced the raw output.
	Backend string

	// ProseStripped reports whether surrounding non-diff text was removed.
	ProseStripped bool
}

// Extractor locates and normalizes unified diffs in model output.
type Extractor struct {
	fenceRegex  *regexp.Regexp
	headerRegex *regexp.Regexp
}

// NewExtractor creates an extractor with compiled regexes.
func NewExtractor() *Extractor {
	return &Extractor{
		fenceRegex:  regexp.MustCompile("(?s)```(?:diff|patch)?\\n(.*?)```"),
		headerRegex: regexp.MustCompile(`(?m)^--- `),
	}
}

// Extract returns the first unified diff found in raw output, or ErrNoDiff.
func (e *Extractor) Extract(raw, backendName string) (*Candidate, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	stripped := false

	// Prefer fenced content when a fence wraps a diff-shaped region.
	for _, match := range e.fenceRegex.FindAllStringSubmatch(text, -1) {
		if LooksLikeUnifiedDiff(match[1]) {
			text = match[1]
			stripped = true
			break
		}
	}

	region, trimmed := e.diffRegion(text)
	if region == "" {
		return nil, ErrNoDiff
	}

	normalized := NormalizePrefixes(region)
	if !strings.HasSuffix(normalized, "\n") {
		normalized += "\n"
	}

	return &Candidate{
		Text:          normalized,
		Backend:       backendName,
		ProseStripped: stripped || trimmed,
	}, nil
}

// diffRegion slices out the first run of diff-shaped lines.
// Returns the region and whether any surrounding text was discarded.
func (e *Extractor) diffRegion(text string) (string, bool) {
	lines := strings.Split(text, "\n")

	start := -1
	for i := 0; i < len(lines)-1; i++ {
		if strings.HasPrefix(lines[i], "--- ") && strings.HasPrefix(lines[i+1], "+++ ") {
			start = i
			break
		}
		// git-style preamble before the headers
		if strings.HasPrefix(lines[i], "diff --git ") {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := start
	inHunk := false
scan:
	for i := start; i < len(lines); i++ {
		line := lines[i]
		switch {
		case isDiffMetaLine(line):
			inHunk = false
			end = i
		case strings.HasPrefix(line, "@@"):
			inHunk = true
			end = i
		case inHunk && isHunkBodyLine(line):
			end = i
		case line == "" && inHunk && i+1 < len(lines) && isHunkBodyLine(lines[i+1]):
			// Blank context line in the middle of a hunk.
			end = i
		default:
			break scan
		}
	}

	trimmed := start > 0
	for _, line := range lines[end+1:] {
		if strings.TrimSpace(line) != "" {
			trimmed = true
			break
		}
	}
	return strings.Join(lines[start:end+1], "\n"), trimmed
}

func isDiffMetaLine(line string) bool {
	for _, prefix := range []string{
		"--- ", "+++ ", "diff --git ", "index ", "new file mode",
		"deleted file mode", "similarity index", "rename from", "rename to",
		"Binary files ", "old mode", "new mode",
	} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func isHunkBodyLine(line string) bool {
	if line == "" {
		return false
	}
	switch line[0] {
	case '+', '-', ' ', '\\', '@':
		return true
	}
	return false
}

// LooksLikeUnifiedDiff reports whether text resembles a unified diff:
// it needs an old-file and a new-file header.
func LooksLikeUnifiedDiff(text string) bool {
	hasOld := false
	hasNew := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "---") {
			hasOld = true
		}
		if strings.HasPrefix(line, "+++") {
			hasNew = true
		}
		if hasOld && hasNew {
			return true
		}
	}
	return false
}

// NormalizePrefixes ensures file headers carry the conventional a/ and b/
// prefixes expected by git apply. /dev/null headers are left untouched.
func NormalizePrefixes(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "--- "):
			lines[i] = "--- " + addPrefix(line[4:], "a/")
		case strings.HasPrefix(line, "+++ "):
			lines[i] = "+++ " + addPrefix(line[4:], "b/")
		}
	}
	return strings.Join(lines, "\n")
}

func addPrefix(path, prefix string) string {
	path = strings.TrimSpace(path)
	if path == "/dev/null" || strings.HasPrefix(path, prefix) {
		return path
	}
	return prefix + path
}

// Extract is a convenience function using a default extractor.
func Extract(raw, backendName string) (*Candidate, error) {
	return NewExtractor().Extract(raw, backendName)
}
