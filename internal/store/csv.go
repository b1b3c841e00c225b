package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/raphaelgruber/sopkb/internal/models"
)

var csvHeader = []string{"System", "Process", "Instructions", "Rationale", "Source_File", "Last_Updated", "Embedding"}

// CSVStore keeps the snapshot in a single CSV file.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store backed by the file at path. The file need
// not exist yet.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Load reads all records. A missing file is an empty store. Rows that
// break the schema are dropped with a warning.
func (s *CSVStore) Load(_ context.Context) ([]models.Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store header: %w", err)
	}
	cols := columnIndex(header)

	var records []models.Record
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read store: %w", err)
		}

		rec, err := decodeRow(row, cols)
		if err != nil {
			slog.Warn("dropping invalid store row", "file", s.path, "line", line, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save writes records to a temp file in the same directory, syncs it and
// renames it over the store file.
func (s *CSVStore) Save(_ context.Context, records []models.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(encodeRow(rec)); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush store: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	committed = true
	return nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	return cols
}

func decodeRow(row []string, cols map[string]int) (models.Record, error) {
	field := func(name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	rec := models.Record{
		System:       field("System"),
		Process:      field("Process"),
		Instructions: field("Instructions"),
		Rationale:    field("Rationale"),
		SourceFile:   field("Source_File"),
	}
	if !rec.Valid() {
		return rec, errors.New("empty system or process")
	}

	if ts := field("Last_Updated"); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return rec, fmt.Errorf("parse last_updated: %w", err)
		}
		rec.LastUpdated = t
	}

	vec, err := models.DecodeVector(field("Embedding"))
	if err != nil {
		// Keep the record; it will be re-embedded.
		slog.Warn("discarding unreadable embedding", "system", rec.System, "process", rec.Process, "error", err)
	}
	rec.Embedding = vec
	return rec, nil
}

func encodeRow(rec models.Record) []string {
	ts := ""
	if !rec.LastUpdated.IsZero() {
		ts = rec.LastUpdated.UTC().Format(time.RFC3339)
	}
	return []string{
		rec.System,
		rec.Process,
		rec.Instructions,
		rec.Rationale,
		rec.SourceFile,
		ts,
		models.EncodeVector(rec.Embedding),
	}
}
