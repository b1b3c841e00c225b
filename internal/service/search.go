package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/sopkb/internal/metrics"
	"github.com/raphaelgruber/sopkb/internal/search"
	"github.com/raphaelgruber/sopkb/internal/store"
)

// SearchService answers queries against the cached snapshot.
type SearchService struct {
	cache   *store.Cache
	engine  *search.Engine
	metrics *metrics.Collector
}

// NewSearchService creates a search service. m may be nil.
func NewSearchService(cache *store.Cache, engine *search.Engine, m *metrics.Collector) *SearchService {
	return &SearchService{cache: cache, engine: engine, metrics: m}
}

// Search runs query over the current snapshot, returning at most limit
// hits (limit <= 0 uses the configured maximum). Only a store failure
// produces an error; retrieval itself degrades instead of failing.
func (s *SearchService) Search(ctx context.Context, query string, limit int) (search.Result, error) {
	records, err := s.cache.Snapshot(ctx)
	if err != nil {
		return search.Result{}, fmt.Errorf("search: %w", err)
	}

	done := s.metrics.Time(metrics.OpSearch)
	res := s.engine.SearchLimit(ctx, query, records, limit)
	done(nil)

	slog.Debug("search complete", "query", res.Query, "outcome", res.Outcome, "hits", len(res.Hits), "degraded", res.Degraded)
	return res, nil
}
