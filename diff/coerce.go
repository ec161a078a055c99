package diff

import (
	"fmt"
	"os"
	"strings"
)

// Coerce rewrites a degenerate model reply into a minimal valid unified
// diff against a known target file. Small local models sometimes answer a
// request for a diff with just the added line ("+print('new')"); when there
// is exactly one target file, that reply can be salvaged as an append hunk.
//
// Returns ("", false) when the reply is not coercible.
func Coerce(raw, targetRelPath, targetAbsPath string) (string, bool) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if trimmed == "" || targetRelPath == "" {
		return "", false
	}
	if LooksLikeUnifiedDiff(trimmed) {
		return "", false
	}

	// Only single added lines are coercible.
	if strings.Contains(trimmed, "\n") || !strings.HasPrefix(trimmed, "+") {
		return "", false
	}
	added := strings.TrimPrefix(trimmed, "+")

	content, err := os.ReadFile(targetAbsPath)
	if err != nil {
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", targetRelPath, targetRelPath)

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(text) == 0 {
		// Empty file: pure insertion.
		fmt.Fprintf(&b, "@@ -0,0 +1,1 @@\n+%s\n", added)
		return b.String(), true
	}

	// Append after the last line, carrying it as context so the hunk
	// anchors even if line numbers drift slightly.
	last := lines[len(lines)-1]
	n := len(lines)
	fmt.Fprintf(&b, "@@ -%d,1 +%d,2 @@\n %s\n+%s\n", n, n, last, added)
	return b.String(), true
}
