// Package resultstore persists annotation results as append-only CSV
// records, one file per (annotator, task) under the results root:
//
//	<root>/<annotator>/<task>.csv
//
// The first append writes a header row; every row after that is one
// submitted annotation. Files are never rewritten.
package resultstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/domain/task"
)

const (
	dirPerms  = 0o750
	filePerms = 0o640
)

// ErrNoRecords indicates no record file exists for the (annotator, task)
// pair. An annotator who has not submitted anything yet is not an error.
var ErrNoRecords = errors.New("no records for annotator")

// Record is one submitted annotation.
type Record struct {
	Annotator   string
	StimulusID  stimulus.ID
	RecordID    string
	SubmittedAt time.Time
	Values      map[string]string // keyed by field label
	Notes       string
	Unsure      bool
}

// Store reads and appends per-annotator CSV record files.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory. The directory is
// created on first append, not here.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) recordPath(annotator, taskName string) string {
	return filepath.Join(s.root, annotator, taskName+".csv")
}

// Append adds one record to the annotator's file for the task, creating the
// file (with header) on first use.
func (s *Store) Append(ctx context.Context, t *task.Task, rec Record) error {
	dir := filepath.Join(s.root, rec.Annotator)
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return fmt.Errorf("creating annotator dir: %w", err)
	}

	path := s.recordPath(rec.Annotator, t.Name)

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerms)
	if err != nil {
		return fmt.Errorf("opening record file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if writeHeader {
		header := []string{"stimulus_id", "record_id", "submitted_at"}
		for _, field := range t.Fields {
			header = append(header, field.Label)
		}
		header = append(header, "notes", "unsure")

		if err := w.Write(header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	unsure := "no"
	if rec.Unsure {
		unsure = "yes"
	}

	row := []string{string(rec.StimulusID), rec.RecordID, rec.SubmittedAt.UTC().Format(time.RFC3339)}
	for _, field := range t.Fields {
		row = append(row, rec.Values[field.Label])
	}
	row = append(row, rec.Notes, unsure)

	if err := w.Write(row); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing record: %w", err)
	}

	return f.Sync()
}

// Read returns the raw stimulus_id column values recorded for the
// (annotator, task) pair, in file order. Values are returned as stored;
// callers normalize them. Returns ErrNoRecords when the file is absent.
func (s *Store) Read(ctx context.Context, annotator, taskName string) ([]string, error) {
	f, err := os.Open(s.recordPath(annotator, taskName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNoRecords, annotator, taskName)
		}
		return nil, fmt.Errorf("opening record file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // header widths have drifted across versions

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing record file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := 0
	start := 0
	for i, name := range rows[0] {
		if name == "stimulus_id" {
			col, start = i, 1
			break
		}
	}

	var ids []string
	for _, row := range rows[start:] {
		if col >= len(row) {
			continue
		}
		ids = append(ids, row[col])
	}

	return ids, nil
}

// ListAnnotators enumerates every annotator with a directory under the
// results root. A missing root means no one has annotated yet.
func (s *Store) ListAnnotators(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading results root: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}

	return names, nil
}
