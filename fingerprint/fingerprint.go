// Package fingerprint derives the deterministic cache key for a solve
// request.
//
// The key is a SHA-256 digest over the normalized request: prompt, preamble,
// context entries sorted by path, the stdin blob and its label, and every
// routing-relevant model option. Two requests with identical normalized
// content always hash to the same key, regardless of the order context files
// were supplied in.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Entry is one context file's path and content snapshot.
type Entry struct {
	Path    string
	Content string
}

// Input is everything that participates in the digest.
type Input struct {
	Prompt   string
	Preamble string
	Context  []Entry

	Stdin      string
	StdinLabel string

	// Routing-relevant model options.
	PrimaryModel   string
	FallbackModels string
	MaxAttempts    int
}

// Compute returns the hex-encoded digest of the normalized input.
func Compute(in Input) string {
	h := sha256.New()

	writeField(h, "prompt", in.Prompt)
	writeField(h, "preamble", in.Preamble)

	entries := make([]Entry, len(in.Context))
	copy(entries, in.Context)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	for _, e := range entries {
		writeField(h, "file:"+e.Path, e.Content)
	}

	writeField(h, "stdin", in.Stdin)
	writeField(h, "stdin_label", in.StdinLabel)
	writeField(h, "primary_model", in.PrimaryModel)
	writeField(h, "fallback_models", in.FallbackModels)
	writeField(h, "max_attempts", strconv.Itoa(in.MaxAttempts))

	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes a length-prefixed labeled field so that adjacent
// fields cannot collide by concatenation.
func writeField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s:%d:", label, len(value))
	io.WriteString(w, value)
	io.WriteString(w, "\n")
}
