// Package cache stores validated diffs keyed by request fingerprint.
//
// Each entry is a pair of files in the cache directory: <key>.diff holding
// the diff text and <key>.json holding metadata (timestamp, validation
// summary, request summary). Entries are immutable once written and keyed
// by content, so concurrent writers racing on the same key are harmless;
// the last writer wins with identical bytes.
//
// Only diffs that passed validation are ever stored. Rejected or
// unvalidated candidates never reach Put.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one cached solve result.
type Entry struct {
	// Diff is the validated unified diff text.
	Diff string `json:"-"`

	// Validation summarizes the validator outcome ("approved",
	// "approved (pass-through)", "rewritten").
	Validation string `json:"validation"`

	// Source is the backend that produced the diff.
	Source string `json:"source"`

	// Prompt is a short request summary for humans browsing the cache.
	Prompt string `json:"prompt,omitempty"`

	// CreatedAt is when the entry was written.
	CreatedAt time.Time `json:"created_at"`
}

// Store is a directory-backed response cache.
type Store struct {
	dir        string
	maxEntries int
}

// NewStore creates a store rooted at dir. The directory is created on the
// first Put. maxEntries <= 0 means unlimited.
func NewStore(dir string, maxEntries int) *Store {
	return &Store{dir: dir, maxEntries: maxEntries}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Get looks up a cached entry by fingerprint.
// A missing entry is (nil, false, nil); errors are real I/O problems.
func (s *Store) Get(key string) (*Entry, bool, error) {
	diffData, err := os.ReadFile(s.diffPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	entry := Entry{Diff: string(diffData)}
	if metaData, err := os.ReadFile(s.metaPath(key)); err == nil {
		// Metadata is advisory; a corrupt sidecar does not invalidate
		// the diff itself.
		_ = json.Unmarshal(metaData, &entry)
	}
	return &entry, true, nil
}

// Put stores a validated entry under the fingerprint key.
func (s *Store) Put(key string, entry Entry) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := os.WriteFile(s.diffPath(key), []byte(entry.Diff), 0o644); err != nil {
		return fmt.Errorf("write cache diff: %w", err)
	}

	meta, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(key), meta, 0o644); err != nil {
		return fmt.Errorf("write cache metadata: %w", err)
	}

	return s.prune()
}

// prune removes the oldest entries beyond maxEntries, by diff file mtime.
func (s *Store) prune() error {
	if s.maxEntries <= 0 {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.diff"))
	if err != nil {
		return err
	}
	if len(matches) <= s.maxEntries {
		return nil
	}

	type aged struct {
		path string
		mod  time.Time
	}
	entries := make([]aged, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, aged{path: m, mod: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mod.Before(entries[j].mod) })

	// Stat can lose entries to a racing prune, so the glob count and the
	// statted count may disagree.
	drop := len(entries) - s.maxEntries
	if drop <= 0 {
		return nil
	}
	for _, victim := range entries[:drop] {
		key := strings.TrimSuffix(filepath.Base(victim.path), ".diff")
		os.Remove(victim.path)
		os.Remove(s.metaPath(key))
	}
	return nil
}

func (s *Store) diffPath(key string) string {
	return filepath.Join(s.dir, key+".diff")
}

func (s *Store) metaPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}
