// Package search answers free-text questions over the record snapshot by
// combining a keyword pass with embedding similarity.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/raphaelgruber/sopkb/internal/config"
	"github.com/raphaelgruber/sopkb/internal/models"
)

// Outcome classifies a search.
type Outcome string

const (
	OutcomeMatches    Outcome = "matches"
	OutcomeNoMatch    Outcome = "no_match"
	OutcomeEmptyQuery Outcome = "empty_query"
)

// QueryEmbedder embeds the query text. *embedding.Indexer implements it.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Hit is one matching record.
type Hit struct {
	Record   models.Record
	Position int // index in the searched snapshot
	// Score is the cosine similarity, nil for keyword-only hits.
	Score    *float64
	Keyword  bool
	Semantic bool
}

// Result is the ranked answer to one query.
type Result struct {
	Query   string
	Outcome Outcome
	Hits    []Hit
	// Degraded is set when only the keyword pass ran, because the engine
	// has no embedder or the query could not be embedded.
	Degraded bool
}

// Engine ranks records against a query. A nil embedder means keyword-only.
type Engine struct {
	embedder   QueryEmbedder
	threshold  float64
	maxResults int
}

// NewEngine creates an engine using the retrieval settings in cfg.
func NewEngine(embedder QueryEmbedder, cfg config.Config) *Engine {
	return &Engine{
		embedder:   embedder,
		threshold:  cfg.SimilarityThreshold,
		maxResults: cfg.MaxResults,
	}
}

// Search runs the query with the configured result cap.
func (e *Engine) Search(ctx context.Context, query string, records []models.Record) Result {
	return e.SearchLimit(ctx, query, records, e.maxResults)
}

// SearchLimit runs the query returning at most limit hits; limit <= 0 uses
// the configured cap. It never fails: an unavailable embedder degrades to
// keyword matching and nothing found is reported as OutcomeNoMatch.
func (e *Engine) SearchLimit(ctx context.Context, query string, records []models.Record, limit int) Result {
	query = strings.TrimSpace(query)
	res := Result{Query: query}
	if query == "" {
		res.Outcome = OutcomeEmptyQuery
		return res
	}
	if limit <= 0 {
		limit = e.maxResults
	}

	hits := make(map[int]*Hit)
	get := func(i int) *Hit {
		h, ok := hits[i]
		if !ok {
			h = &Hit{Record: records[i], Position: i}
			hits[i] = h
		}
		return h
	}

	needle := strings.ToLower(query)
	for i, r := range records {
		if keywordMatch(r, needle) {
			get(i).Keyword = true
		}
	}

	if e.embedder == nil {
		res.Degraded = true
	} else {
		qv, err := e.embedder.EmbedText(ctx, query)
		if err != nil {
			res.Degraded = true
			slog.Warn("query embedding failed, keyword search only", "error", err)
		} else {
			dim := e.embedder.Dimension()
			for i, r := range records {
				if len(r.Embedding) != dim {
					continue
				}
				score := Cosine(qv, r.Embedding)
				if score < e.threshold {
					continue
				}
				h := get(i)
				h.Semantic = true
				h.Score = &score
			}
		}
	}

	if len(hits) == 0 {
		res.Outcome = OutcomeNoMatch
		return res
	}

	ranked := make([]Hit, 0, len(hits))
	for _, h := range hits {
		ranked = append(ranked, *h)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch {
		case a.Score != nil && b.Score != nil:
			if *a.Score != *b.Score {
				return *a.Score > *b.Score
			}
		case a.Score != nil:
			return true
		case b.Score != nil:
			return false
		}
		return a.Position < b.Position
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	res.Outcome = OutcomeMatches
	res.Hits = ranked
	return res
}

func keywordMatch(r models.Record, needle string) bool {
	for _, field := range []string{r.System, r.Process, r.Instructions, r.Rationale, r.SourceFile} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
