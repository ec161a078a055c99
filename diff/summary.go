package diff

import (
	"sort"
	"strings"
)

// Summary describes the shape of a diff.
type Summary struct {
	Files     []string `json:"files"`
	Additions int      `json:"additions"`
	Deletions int      `json:"deletions"`
}

// Summarize counts added/removed lines and collects new-file paths.
func Summarize(text string) Summary {
	seen := make(map[string]bool)
	var s Summary

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			path := strings.TrimSpace(line[6:])
			if path != "" && !seen[path] {
				seen[path] = true
				s.Files = append(s.Files, path)
			}
		case strings.HasPrefix(line, "+++ /dev/null"):
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			s.Additions++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			s.Deletions++
		}
	}

	sort.Strings(s.Files)
	return s
}

// TouchedFiles lists every path named in old-file or new-file headers,
// excluding /dev/null, sorted and deduplicated.
func TouchedFiles(text string) []string {
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		var path string
		switch {
		case strings.HasPrefix(line, "--- a/"):
			path = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "+++ b/"):
			path = strings.TrimSpace(line[6:])
		default:
			continue
		}
		if path != "" && path != "/dev/null" {
			seen[path] = true
		}
	}

	files := make([]string, 0, len(seen))
	for path := range seen {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}
