// Package merge validates extracted rows and folds them into the record
// store snapshot without creating duplicates.
package merge

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/sopkb/internal/models"
)

// Validate rejects rows without a System or Process.
func Validate(row models.Row) error {
	if strings.TrimSpace(row.System) == "" {
		return fmt.Errorf("%w: empty system", models.ErrRowRejected)
	}
	if strings.TrimSpace(row.Process) == "" {
		return fmt.Errorf("%w: empty process", models.ErrRowRejected)
	}
	return nil
}

// Report counts what Merge did with each row.
type Report struct {
	Accepted   int
	Rejected   int
	Duplicates int
	// Added holds the indexes of appended records in the merged slice.
	Added []int
}

// Merger stamps accepted rows with provenance.
type Merger struct {
	now func() time.Time
}

// NewMerger creates a merger. A nil clock means time.Now.
func NewMerger(now func() time.Time) *Merger {
	if now == nil {
		now = time.Now
	}
	return &Merger{now: now}
}

// Merge appends every valid, previously unseen row to a copy of existing.
// A row is a duplicate when its dedup key matches an existing record or an
// earlier row of the same batch. All accepted rows share one timestamp.
func (m *Merger) Merge(existing []models.Record, rows []models.RowResult, sourceFile string) ([]models.Record, Report) {
	merged := make([]models.Record, len(existing), len(existing)+len(rows))
	copy(merged, existing)

	seen := make(map[models.DedupKey]struct{}, len(merged)+len(rows))
	for _, r := range merged {
		seen[r.Key()] = struct{}{}
	}

	var report Report
	stamp := m.now().UTC().Truncate(time.Second)

	for _, rr := range rows {
		if !rr.OK() {
			report.Rejected++
			continue
		}
		if err := Validate(rr.Row); err != nil {
			report.Rejected++
			slog.Warn("row rejected", "source_file", sourceFile, "error", err)
			continue
		}

		rec := toRecord(rr.Row, sourceFile, stamp)
		key := rec.Key()
		if _, dup := seen[key]; dup {
			report.Duplicates++
			slog.Debug("duplicate row skipped", "system", rec.System, "process", rec.Process)
			continue
		}

		seen[key] = struct{}{}
		report.Added = append(report.Added, len(merged))
		merged = append(merged, rec)
		report.Accepted++
	}

	return merged, report
}

func toRecord(row models.Row, sourceFile string, stamp time.Time) models.Record {
	return models.Record{
		System:       strings.TrimSpace(row.System),
		Process:      strings.TrimSpace(row.Process),
		Instructions: strings.TrimSpace(row.Instructions),
		Rationale:    strings.TrimSpace(row.Rationale),
		SourceFile:   sourceFile,
		LastUpdated:  stamp,
	}
}
