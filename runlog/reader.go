package runlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reader reads run records back from the JSONL log.
type Reader struct {
	path string
	file *os.File
}

// NewReader opens the run log in the given workspace directory.
func NewReader(workspaceDir string) (*Reader, error) {
	path := filepath.Join(workspaceDir, FileName)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &Reader{path: path, file: file}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadAll returns every record in the log. Malformed lines are skipped.
func (r *Reader) ReadAll() ([]Record, error) {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek run log: %w", err)
	}

	var records []Record
	scanner := bufio.NewScanner(r.file)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan run log: %w", err)
	}
	return records, nil
}

// Last returns the most recent n records.
func (r *Reader) Last(n int) ([]Record, error) {
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Follow delivers records appended after the call. The channel closes when
// the context is cancelled. Uses fsnotify with a polling fallback.
func (r *Reader) Follow(ctx context.Context) <-chan Record {
	ch := make(chan Record, 64)

	go func() {
		defer close(ch)

		offset, err := r.file.Seek(0, io.SeekEnd)
		if err != nil {
			return
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			r.followPolling(ctx, ch, offset)
			return
		}
		defer watcher.Close()

		// Watching the directory survives log rotation better than
		// watching the file itself.
		if err := watcher.Add(filepath.Dir(r.path)); err != nil {
			r.followPolling(ctx, ch, offset)
			return
		}

		r.followWatcher(ctx, ch, watcher, offset)
	}()

	return ch
}

func (r *Reader) followWatcher(ctx context.Context, ch chan<- Record, watcher *fsnotify.Watcher, offset int64) {
	base := filepath.Base(r.path)
	reader := bufio.NewReader(r.file)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base || !event.Has(fsnotify.Write) {
				continue
			}
			offset = r.handleGrowth(reader, ch, offset)

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (r *Reader) followPolling(ctx context.Context, ch chan<- Record, offset int64) {
	reader := bufio.NewReader(r.file)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			offset = r.handleGrowth(reader, ch, offset)
		}
	}
}

// handleGrowth drains new complete lines from the file, resetting on
// truncation.
func (r *Reader) handleGrowth(reader *bufio.Reader, ch chan<- Record, offset int64) int64 {
	if info, err := r.file.Stat(); err == nil && info.Size() < offset {
		r.file.Seek(0, io.SeekStart)
		offset = 0
		reader.Reset(r.file)
	}

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && err == nil {
			offset += int64(len(line))
			var rec Record
			if jerr := json.Unmarshal(line, &rec); jerr == nil {
				select {
				case ch <- rec:
				default:
				}
			}
		}
		if err != nil {
			// Partial trailing line stays buffered in the file, not
			// the reader, so it is re-read complete next time.
			if len(line) > 0 {
				r.file.Seek(offset, io.SeekStart)
				reader.Reset(r.file)
			}
			return offset
		}
	}
}

// Stats aggregates the log for `hybrid log --stats`.
type Stats struct {
	Runs      int
	Applied   int
	CacheHits int
	NoDiff    int
	Rejected  int
	ByBackend map[string]int
	TotalTime time.Duration
	FirstRun  time.Time
	LastRun   time.Time
}

// Summarize computes aggregate statistics over all records.
func Summarize(records []Record) Stats {
	stats := Stats{ByBackend: make(map[string]int)}
	for _, rec := range records {
		stats.Runs++
		if stats.FirstRun.IsZero() {
			stats.FirstRun = rec.Timestamp
		}
		stats.LastRun = rec.Timestamp

		switch rec.Source {
		case "":
		case "cache":
			stats.CacheHits++
		default:
			stats.ByBackend[rec.Source]++
		}
		if rec.Apply == "applied" {
			stats.Applied++
		}
		switch rec.ExitCode {
		case 2:
			stats.NoDiff++
		case 3:
			stats.Rejected++
		}
		for _, a := range rec.Attempts {
			stats.TotalTime += a.Duration
		}
	}
	return stats
}
