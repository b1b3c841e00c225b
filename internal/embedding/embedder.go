// Package embedding attaches vectors to records for semantic retrieval.
package embedding

import (
	"context"
	"errors"
)

// ErrEmbeddingUnavailable wraps any failure of the embedding call. Callers
// treat it as a per-record degradation, not a batch failure.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// Embedder is the embedding call. llm.Embedder implements it.
type Embedder interface {
	// Embed returns a vector of exactly Dimension() values.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension is the vector length every stored embedding must have.
	Dimension() int
}
