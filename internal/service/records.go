package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/sopkb/internal/embedding"
	"github.com/raphaelgruber/sopkb/internal/merge"
	"github.com/raphaelgruber/sopkb/internal/models"
	"github.com/raphaelgruber/sopkb/internal/store"
)

// ErrDuplicate is returned when a manual add or edit would collide with
// another record's dedup key.
var ErrDuplicate = errors.New("duplicate record")

// RecordInput is a manually entered record.
type RecordInput struct {
	System       string
	Process      string
	Instructions string
	Rationale    string
}

// RecordPatch changes the non-nil fields of a record.
type RecordPatch struct {
	System       *string
	Process      *string
	Instructions *string
	Rationale    *string
}

// Entry is a record with its position in the snapshot.
type Entry struct {
	Position int
	Record   models.Record
}

// RecordService is the explicit admin edit path.
type RecordService struct {
	cache   *store.Cache
	indexer *embedding.Indexer
	now     func() time.Time
}

// NewRecordService creates a record service. indexer may be nil.
func NewRecordService(cache *store.Cache, indexer *embedding.Indexer) *RecordService {
	return &RecordService{cache: cache, indexer: indexer, now: time.Now}
}

// SetClock overrides the timestamp source used for last_updated.
func (s *RecordService) SetClock(now func() time.Time) {
	s.now = now
}

// List returns records in store order, optionally only those whose System
// equals system (case-insensitive).
func (s *RecordService) List(ctx context.Context, system string) ([]Entry, error) {
	records, err := s.cache.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	system = strings.TrimSpace(system)
	entries := make([]Entry, 0, len(records))
	for i, r := range records {
		if system != "" && !strings.EqualFold(r.System, system) {
			continue
		}
		entries = append(entries, Entry{Position: i, Record: r})
	}
	return entries, nil
}

// Add appends a manual record and embeds it.
func (s *RecordService) Add(ctx context.Context, in RecordInput) (Entry, error) {
	records, err := s.cache.Snapshot(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("add record: %w", err)
	}

	row := models.RowResult{Row: models.Row(in)}
	merged, report := merge.NewMerger(s.now).Merge(records, []models.RowResult{row}, models.SourceManual)
	switch {
	case report.Rejected > 0:
		return Entry{}, fmt.Errorf("add record: %w", merge.Validate(row.Row))
	case report.Duplicates > 0:
		return Entry{}, fmt.Errorf("add record: %w", ErrDuplicate)
	}

	pos := report.Added[0]
	s.embed(ctx, merged[pos:pos+1])

	if err := s.cache.Commit(ctx, merged); err != nil {
		return Entry{}, fmt.Errorf("add record: %w", err)
	}
	slog.Info("record added", "position", pos, "system", merged[pos].System, "process", merged[pos].Process)
	return Entry{Position: pos, Record: merged[pos]}, nil
}

// Update applies patch to the record at pos. Changing System, Process or
// Instructions clears the stored embedding and computes a new one.
func (s *RecordService) Update(ctx context.Context, pos int, patch RecordPatch) (Entry, error) {
	records, err := s.cache.Snapshot(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("update record: %w", err)
	}
	if pos < 0 || pos >= len(records) {
		return Entry{}, fmt.Errorf("update record %d: %w", pos, store.ErrNotFound)
	}

	rec := records[pos]
	before := rec.CanonicalText()
	apply(&rec.System, patch.System)
	apply(&rec.Process, patch.Process)
	apply(&rec.Instructions, patch.Instructions)
	apply(&rec.Rationale, patch.Rationale)

	if err := merge.Validate(models.Row{System: rec.System, Process: rec.Process}); err != nil {
		return Entry{}, fmt.Errorf("update record %d: %w", pos, err)
	}
	for i, other := range records {
		if i != pos && other.Key() == rec.Key() {
			return Entry{}, fmt.Errorf("update record %d: %w with record %d", pos, ErrDuplicate, i)
		}
	}

	rec.LastUpdated = s.now().UTC().Truncate(time.Second)
	if rec.CanonicalText() != before {
		rec.Embedding = nil
	}
	records[pos] = rec
	s.embed(ctx, records[pos:pos+1])

	if err := s.cache.Commit(ctx, records); err != nil {
		return Entry{}, fmt.Errorf("update record %d: %w", pos, err)
	}
	slog.Info("record updated", "position", pos, "reembedded", rec.CanonicalText() != before)
	return Entry{Position: pos, Record: records[pos]}, nil
}

// Delete removes the record at pos. Later records shift down by one.
func (s *RecordService) Delete(ctx context.Context, pos int) (models.Record, error) {
	records, err := s.cache.Snapshot(ctx)
	if err != nil {
		return models.Record{}, fmt.Errorf("delete record: %w", err)
	}
	if pos < 0 || pos >= len(records) {
		return models.Record{}, fmt.Errorf("delete record %d: %w", pos, store.ErrNotFound)
	}

	removed := records[pos]
	records = append(records[:pos], records[pos+1:]...)
	if err := s.cache.Commit(ctx, records); err != nil {
		return models.Record{}, fmt.Errorf("delete record %d: %w", pos, err)
	}
	slog.Info("record deleted", "position", pos, "system", removed.System, "process", removed.Process)
	return removed, nil
}

// Reindex embeds every record that lacks a vector of the current dimension
// and saves the snapshot if anything changed.
func (s *RecordService) Reindex(ctx context.Context) (embedding.Report, error) {
	if s.indexer == nil {
		return embedding.Report{}, fmt.Errorf("reindex: %w", embedding.ErrEmbeddingUnavailable)
	}

	records, err := s.cache.Snapshot(ctx)
	if err != nil {
		return embedding.Report{}, fmt.Errorf("reindex: %w", err)
	}

	report := s.indexer.Index(ctx, records)
	if report.Embedded == 0 && report.Failed == 0 {
		return report, nil
	}
	if err := s.cache.Commit(ctx, records); err != nil {
		return report, fmt.Errorf("reindex: %w", err)
	}
	return report, nil
}

func (s *RecordService) embed(ctx context.Context, records []models.Record) {
	if s.indexer == nil {
		return
	}
	s.indexer.Index(ctx, records)
}

func apply(field *string, value *string) {
	if value != nil {
		*field = strings.TrimSpace(*value)
	}
}
