// Package diff extracts unified diffs from raw model output.
//
// Model replies rarely arrive clean: the diff may be wrapped in a fenced
// code block, preceded by prose ("Here you go:"), or trailed by commentary.
// The extractor locates the first region shaped like a unified diff, strips
// everything around it, and normalizes line endings and path prefixes so the
// result is consumable by git apply.
//
// A reply that contains no diff-shaped region at all is a distinct failure
// (ErrNoDiff) from a backend failure; callers decide whether that advances
// the backend fallback chain.
package diff
