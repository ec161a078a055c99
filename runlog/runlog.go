// Package runlog records one JSON line per solve invocation and reads the
// resulting log back, including real-time tailing for `hybrid log --follow`.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the run log inside the workspace directory.
const FileName = "runs.jsonl"

// Attempt records a single backend invocation within a run.
type Attempt struct {
	Backend  string        `json:"backend"`
	Model    string        `json:"model"`
	Index    int           `json:"index"`
	Outcome  string        `json:"outcome"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Record is one solve invocation.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Prompt      string    `json:"prompt"`
	Fingerprint string    `json:"fingerprint,omitempty"`

	// Source names where the diff came from: a backend name, "cache",
	// or empty when no diff was produced.
	Source string `json:"source,omitempty"`

	Attempts   []Attempt `json:"attempts,omitempty"`
	Extraction string    `json:"extraction,omitempty"`
	Validation string    `json:"validation,omitempty"`
	Apply      string    `json:"apply,omitempty"`
	ExitCode   int       `json:"exit_code"`
	Message    string    `json:"message,omitempty"`
}

// Writer appends records to the run log.
type Writer struct {
	path string
}

// NewWriter creates a writer for the given workspace directory.
func NewWriter(workspaceDir string) *Writer {
	return &Writer{path: filepath.Join(workspaceDir, FileName)}
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one record as a single JSON line. Records are flushed and
// the file closed per call so a crashed run never holds the log open.
func (w *Writer) Append(rec Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append run record: %w", err)
	}
	return nil
}
