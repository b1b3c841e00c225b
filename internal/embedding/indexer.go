package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/sopkb/internal/models"
)

// Report counts the indexer's work over one batch.
type Report struct {
	Embedded int
	Failed   int
	Skipped  int
}

// Indexer fills in missing record embeddings.
type Indexer struct {
	embedder Embedder
	maxChars int
}

// NewIndexer creates an indexer that caps canonical text at maxChars
// characters before embedding. maxChars <= 0 disables the cap.
func NewIndexer(embedder Embedder, maxChars int) *Indexer {
	return &Indexer{embedder: embedder, maxChars: maxChars}
}

// Dimension returns the embedder's vector length.
func (ix *Indexer) Dimension() int {
	return ix.embedder.Dimension()
}

// Index embeds, in place, every record whose vector is missing or has the
// wrong length. Records that already carry a vector of the right length
// are skipped. A failed record keeps a nil embedding and indexing moves on.
func (ix *Indexer) Index(ctx context.Context, records []models.Record) Report {
	var report Report
	dim := ix.embedder.Dimension()

	for i := range records {
		rec := &records[i]
		if len(rec.Embedding) == dim {
			report.Skipped++
			continue
		}

		vec, err := ix.EmbedText(ctx, rec.CanonicalText())
		if err != nil {
			rec.Embedding = nil
			report.Failed++
			slog.Warn("record embedding failed", "system", rec.System, "process", rec.Process, "error", err)
			continue
		}
		rec.Embedding = vec
		report.Embedded++
	}

	if report.Embedded > 0 || report.Failed > 0 {
		slog.Info("records indexed", "embedded", report.Embedded, "failed", report.Failed, "skipped", report.Skipped, "model", ix.embedder.Model())
	}
	return report
}

// EmbedText embeds capped text. All errors wrap ErrEmbeddingUnavailable.
func (ix *Indexer) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := ix.embedder.Embed(ctx, Truncate(text, ix.maxChars))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(vec) != ix.embedder.Dimension() {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrEmbeddingUnavailable, len(vec), ix.embedder.Dimension())
	}
	return vec, nil
}

// Truncate caps s at maxChars runes.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
