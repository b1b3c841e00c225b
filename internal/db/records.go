package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/sopkb/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

type recordRow struct {
	Position     int        `json:"position"`
	System       string     `json:"system"`
	Process      string     `json:"process"`
	Instructions string     `json:"instructions"`
	Rationale    string     `json:"rationale"`
	SourceFile   string     `json:"source_file"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
	Embedding    []float32  `json:"embedding,omitempty"`
}

// RecordStore implements store.Store on the sop_record table.
type RecordStore struct {
	client *Client
}

// NewRecordStore creates a store using client. Call Client.InitSchema first.
func NewRecordStore(client *Client) *RecordStore {
	return &RecordStore{client: client}
}

// Load returns all records ordered by position.
func (s *RecordStore) Load(ctx context.Context) ([]models.Record, error) {
	results, err := surrealdb.Query[[]recordRow](ctx, s.client.db, `
		SELECT position, system, process, instructions, rationale, source_file, last_updated, embedding
		FROM sop_record ORDER BY position ASC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	rows := (*results)[0].Result
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromRow(row))
	}
	return records, nil
}

// Save replaces the table contents in a single transaction.
func (s *RecordStore) Save(ctx context.Context, records []models.Record) error {
	rows := make([]recordRow, len(records))
	for i, rec := range records {
		rows[i] = toRow(i, rec)
	}

	sql := `
		BEGIN TRANSACTION;
		DELETE sop_record;
		INSERT INTO sop_record $rows;
		COMMIT TRANSACTION;
	`
	if len(rows) == 0 {
		sql = `DELETE sop_record;`
	}

	if _, err := surrealdb.Query[any](ctx, s.client.db, sql, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("save records: %w", wrapQueryError(err))
	}
	return nil
}

func toRow(pos int, rec models.Record) recordRow {
	row := recordRow{
		Position:     pos,
		System:       rec.System,
		Process:      rec.Process,
		Instructions: rec.Instructions,
		Rationale:    rec.Rationale,
		SourceFile:   rec.SourceFile,
		Embedding:    rec.Embedding,
	}
	if !rec.LastUpdated.IsZero() {
		t := rec.LastUpdated.UTC()
		row.LastUpdated = &t
	}
	return row
}

func fromRow(row recordRow) models.Record {
	rec := models.Record{
		System:       row.System,
		Process:      row.Process,
		Instructions: row.Instructions,
		Rationale:    row.Rationale,
		SourceFile:   row.SourceFile,
		Embedding:    row.Embedding,
	}
	if row.LastUpdated != nil {
		rec.LastUpdated = row.LastUpdated.UTC()
	}
	return rec
}
