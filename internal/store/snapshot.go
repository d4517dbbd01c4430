package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ldi/opsvault/pkg/models"
)

// EnableAutoSnapshot registers a hook that exports a snapshot to the
// given path after every successful mutation. Export errors are
// swallowed: the hook is best-effort and must not fail the original
// operation.
func (s *Store) EnableAutoSnapshot(path string) {
	s.SetOnChange(func() {
		_ = s.ExportSnapshot(path)
	})
}

// ExportSnapshot writes the collection as JSONL, one task per line in
// iteration order, atomically via a temp file rename. Field names and
// the append-only ordering of each history follow the task model
// as-is.
func (s *Store) ExportSnapshot(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "snapshot-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	w := bufio.NewWriter(tempFile)
	enc := json.NewEncoder(w)
	for _, t := range s.tasks {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("failed to write snapshot line: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil // Prevent defer from removing it

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// ImportSnapshot reads a JSONL snapshot and replaces the collection
// with its contents. The file's line order becomes iteration order.
func (s *Store) ImportSnapshot(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	var tasks []*models.Task
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var t models.Task
		if err := json.Unmarshal(line, &t); err != nil {
			return fmt.Errorf("failed to unmarshal task: %w", err)
		}
		if !t.Status.IsValid() {
			return fmt.Errorf("snapshot task %s has unknown status %q", t.ID, t.Status)
		}
		if len(t.History) == 0 {
			return fmt.Errorf("snapshot task %s has an empty history", t.ID)
		}
		tasks = append(tasks, &t)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	s.Restore(tasks)
	return nil
}
