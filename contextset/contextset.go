// Package contextset collects the files that accompany a solve prompt.
//
// Explicit files, glob expansions and inferred related files are merged in
// that order with duplicates dropped, then snapshotted into memory so the
// prompt reflects the tree at one point in time. Oversized snapshots are
// middle-truncated to the per-file share of the model's context budget.
package contextset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/hybrid/tokens"
	"github.com/randalmurphal/hybrid/truncate"
)

// Entry is one snapshotted context file.
type Entry struct {
	// Path is slash-separated and relative to the root.
	Path string

	// Content is the snapshot, possibly truncated.
	Content string

	// Truncated reports whether the snapshot was cut to fit the budget.
	Truncated bool
}

// Set is the assembled context for one request.
type Set struct {
	Entries []Entry

	// Stdin is piped input captured at invocation, with its display label.
	Stdin      string
	StdinLabel string
}

// Paths returns entry paths in collection order.
func (s *Set) Paths() []string {
	paths := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		paths[i] = e.Path
	}
	return paths
}

// Options configure collection.
type Options struct {
	// Root anchors relative paths and globs.
	Root string

	// Files are explicit paths. A missing explicit file is an error.
	Files []string

	// Globs are expanded relative to Root. A glob matching nothing is
	// not an error.
	Globs []string

	// InferRelated adds companion files for Go sources: foo.go pulls in
	// foo_test.go and vice versa, when present.
	InferRelated bool

	Stdin      string
	StdinLabel string

	// Budget bounds snapshot sizes. Nil disables truncation.
	Budget *tokens.Budget
}

// Build collects and snapshots the context set.
func Build(opts Options) (*Set, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}

	paths, err := collectPaths(root, opts)
	if err != nil {
		return nil, err
	}

	set := &Set{
		Stdin:      opts.Stdin,
		StdinLabel: opts.StdinLabel,
	}
	if set.Stdin != "" && set.StdinLabel == "" {
		set.StdinLabel = "stdin"
	}

	perFile := 0
	if opts.Budget != nil {
		perFile = opts.Budget.PerFileContext(len(paths))
	}

	for _, rel := range paths {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read context file %s: %w", rel, err)
		}

		content := string(data)
		truncated := false
		if perFile > 0 {
			content, truncated = truncate.FileSnippet(content, perFile)
		}
		set.Entries = append(set.Entries, Entry{Path: rel, Content: content, Truncated: truncated})
	}
	return set, nil
}

// collectPaths merges explicit files, glob matches and related files,
// preserving first-seen order.
func collectPaths(root string, opts Options) ([]string, error) {
	var ordered []string
	seen := make(map[string]bool)

	add := func(rel string) {
		rel = filepath.ToSlash(filepath.Clean(rel))
		if !seen[rel] {
			seen[rel] = true
			ordered = append(ordered, rel)
		}
	}

	for _, file := range opts.Files {
		rel, err := relToRoot(root, file)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			return nil, fmt.Errorf("context file %s: %w", file, err)
		}
		add(rel)
	}

	for _, pattern := range opts.Globs {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(root, match)
			if err != nil {
				continue
			}
			add(rel)
		}
	}

	if opts.InferRelated {
		for _, rel := range append([]string(nil), ordered...) {
			for _, companion := range relatedFiles(rel) {
				if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(companion))); err == nil {
					add(companion)
				}
			}
		}
	}
	return ordered, nil
}

func relToRoot(root, file string) (string, error) {
	if !filepath.IsAbs(file) {
		return filepath.ToSlash(filepath.Clean(file)), nil
	}
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("context file %s is outside the repository root", file)
	}
	return filepath.ToSlash(rel), nil
}

// relatedFiles names the companions a Go source pulls in: its test file,
// or for a test file the source under test.
func relatedFiles(rel string) []string {
	if !strings.HasSuffix(rel, ".go") {
		return nil
	}
	if strings.HasSuffix(rel, "_test.go") {
		return []string{strings.TrimSuffix(rel, "_test.go") + ".go"}
	}
	return []string{strings.TrimSuffix(rel, ".go") + "_test.go"}
}
