// Package testutil provides fakes for the two outbound calls: text
// generation and embedding.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// MockGenerator returns Replies in sequence. Errs[i], when set, is returned
// for the i-th call instead. Once Replies run out the last reply repeats.
//
//	gen := &MockGenerator{Replies: []string{"Payroll|Run payroll|Open HR<br>Click run|Monthly"}}
type MockGenerator struct {
	mu      sync.Mutex
	Replies []string
	Errs    []error
	Err     error // returned on every call, takes precedence
	calls   int
}

// GenerateWithSystem implements extract.Generator.
func (m *MockGenerator) GenerateWithSystem(_ context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++

	if m.Err != nil {
		return "", m.Err
	}
	if i < len(m.Errs) && m.Errs[i] != nil {
		return "", m.Errs[i]
	}
	if len(m.Replies) == 0 {
		return "", nil
	}
	return m.Replies[min(i, len(m.Replies)-1)], nil
}

// Calls returns the number of calls made so far.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockEmbedder produces deterministic bag-of-words vectors: each lower-cased
// word is hashed into one of Dim buckets and the result is L2-normalized.
// Texts sharing words therefore have positive cosine similarity.
type MockEmbedder struct {
	mu    sync.Mutex
	Dim   int
	Err   error                // returned on every call
	Fail  map[string]error     // returned when the text contains the key
	Fixed map[string][]float32 // exact-text overrides
	calls int
}

// NewMockEmbedder creates an embedder with dimension dim.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim}
}

// Embed implements embedding.Embedder.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.Err != nil {
		return nil, m.Err
	}
	for sub, err := range m.Fail {
		if strings.Contains(text, sub) {
			return nil, err
		}
	}
	if v, ok := m.Fixed[text]; ok {
		return v, nil
	}
	return BagOfWords(text, m.Dim), nil
}

// Model implements embedding.Embedder.
func (m *MockEmbedder) Model() string { return "mock-embed" }

// Dimension implements embedding.Embedder.
func (m *MockEmbedder) Dimension() int { return m.Dim }

// Calls returns the number of Embed calls made so far.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// BagOfWords is the vector MockEmbedder returns for text.
func BagOfWords(text string, dim int) []float32 {
	v := make([]float32, dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?<>/()\"'")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%uint32(dim)]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
