// Package store persists the record snapshot.
package store

import (
	"context"
	"errors"

	"github.com/raphaelgruber/sopkb/internal/models"
)

// ErrNotFound is returned for a record position outside the snapshot.
var ErrNotFound = errors.New("record not found")

// Store loads and replaces the whole record snapshot. Save must be atomic:
// a reader sees either the old or the new snapshot, never a mix.
type Store interface {
	Load(ctx context.Context) ([]models.Record, error)
	Save(ctx context.Context, records []models.Record) error
}
