// Package session persists the last successful solve request so it can be
// replayed with --repeat. One workspace holds exactly one session slot.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the session slot inside the workspace directory.
const FileName = "session.json"

// Record captures the inputs of a successful run.
type Record struct {
	Prompt       string   `json:"prompt"`
	Preamble     string   `json:"preamble,omitempty"`
	Files        []string `json:"files,omitempty"`
	Globs        []string `json:"globs,omitempty"`
	InferRelated bool     `json:"infer_related,omitempty"`

	PrimaryModel   string `json:"primary_model,omitempty"`
	FallbackModels string `json:"fallback_models,omitempty"`
	MaxAttempts    *int   `json:"max_attempts,omitempty"`

	ApplyMode string `json:"apply_mode,omitempty"`
	Branch    string `json:"branch,omitempty"`

	Fingerprint string    `json:"fingerprint,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

// Store reads and writes the session slot.
type Store struct {
	path string
}

// NewStore creates a store for the given workspace directory.
func NewStore(workspaceDir string) *Store {
	return &Store{path: filepath.Join(workspaceDir, FileName)}
}

// Path returns the slot's location on disk.
func (s *Store) Path() string {
	return s.path
}

// Load returns the saved record, or (nil, nil) when no session exists.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", s.path, err)
	}
	return &rec, nil
}

// Save replaces the slot atomically.
func (s *Store) Save(rec Record) error {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Clear removes the slot. A missing slot is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
