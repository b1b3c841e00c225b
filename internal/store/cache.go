package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/raphaelgruber/sopkb/internal/metrics"
	"github.com/raphaelgruber/sopkb/internal/models"
)

// Cache holds the last loaded snapshot of a Store. Readers get copies, so
// a snapshot handed out is never changed underneath them.
type Cache struct {
	store   Store
	metrics *metrics.Collector

	mu      sync.Mutex
	records []models.Record
	loaded  bool
}

// NewCache wraps store. m may be nil.
func NewCache(store Store, m *metrics.Collector) *Cache {
	return &Cache{store: store, metrics: m}
}

// Snapshot returns a copy of the records, loading them on first use or
// after Invalidate.
func (c *Cache) Snapshot(ctx context.Context) ([]models.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		if err := c.loadLocked(ctx); err != nil {
			return nil, err
		}
	}
	return cloneRecords(c.records), nil
}

// Invalidate drops the cached snapshot; the next Snapshot reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records, c.loaded = nil, false
}

// Commit saves records, invalidates the cache and reloads it so the next
// reader sees exactly what was persisted. On a failed save the store and
// the cache are left as they were.
func (c *Cache) Commit(ctx context.Context, records []models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	done := c.metrics.Time(metrics.OpStoreSave)
	err := c.store.Save(ctx, records)
	done(err)
	if err != nil {
		return fmt.Errorf("save records: %w", err)
	}

	c.records, c.loaded = nil, false
	if err := c.loadLocked(ctx); err != nil {
		return fmt.Errorf("reload after save: %w", err)
	}
	slog.Debug("store committed", "records", len(c.records))
	return nil
}

func (c *Cache) loadLocked(ctx context.Context) error {
	done := c.metrics.Time(metrics.OpStoreLoad)
	records, err := c.store.Load(ctx)
	done(err)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	c.records, c.loaded = records, true
	return nil
}

func cloneRecords(in []models.Record) []models.Record {
	if in == nil {
		return nil
	}
	out := make([]models.Record, len(in))
	for i, r := range in {
		r.Embedding = slices.Clone(r.Embedding)
		out[i] = r
	}
	return out
}
