package embedding_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/raphaelgruber/sopkb/internal/embedding"
	"github.com/raphaelgruber/sopkb/internal/models"
	"github.com/raphaelgruber/sopkb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedderInterface(t *testing.T) {
	var _ embedding.Embedder = (*testutil.MockEmbedder)(nil)
}

func TestIndexFillsMissing(t *testing.T) {
	emb := testutil.NewMockEmbedder(8)
	ix := embedding.NewIndexer(emb, 2000)

	records := []models.Record{
		{System: "Payroll", Process: "Run payroll", Instructions: "Open HR<br>Click run"},
		{System: "CRM", Process: "Add lead", Embedding: make([]float32, 8)},
		{System: "CRM", Process: "Close lead", Embedding: []float32{1, 2, 3}},
	}

	report := ix.Index(context.Background(), records)
	assert.Equal(t, embedding.Report{Embedded: 2, Skipped: 1}, report)
	assert.Equal(t, 2, emb.Calls())

	for i, r := range records {
		assert.Len(t, r.Embedding, 8, "record %d", i)
	}
	assert.Equal(t, testutil.BagOfWords(records[0].CanonicalText(), 8), records[0].Embedding)
}

func TestIndexDegradesPerRecord(t *testing.T) {
	emb := testutil.NewMockEmbedder(4)
	emb.Fail = map[string]error{"CRM": errors.New("connection refused")}
	ix := embedding.NewIndexer(emb, 0)

	records := []models.Record{
		{System: "Payroll", Process: "Run payroll"},
		{System: "CRM", Process: "Add lead", Embedding: []float32{1}},
		{System: "HR", Process: "Onboard"},
	}

	report := ix.Index(context.Background(), records)
	assert.Equal(t, 2, report.Embedded)
	assert.Equal(t, 1, report.Failed)
	assert.Nil(t, records[1].Embedding, "stale vector cleared on failure")
	assert.Len(t, records[2].Embedding, 4)
}

func TestEmbedTextWrapsErrors(t *testing.T) {
	emb := testutil.NewMockEmbedder(4)
	emb.Err = errors.New("model not loaded")
	ix := embedding.NewIndexer(emb, 100)

	_, err := ix.EmbedText(context.Background(), "query")
	require.ErrorIs(t, err, embedding.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestEmbedTextRejectsWrongDimension(t *testing.T) {
	emb := testutil.NewMockEmbedder(4)
	emb.Fixed = map[string][]float32{"short": {1, 2}}
	ix := embedding.NewIndexer(emb, 100)

	_, err := ix.EmbedText(context.Background(), "short")
	assert.ErrorIs(t, err, embedding.ErrEmbeddingUnavailable)
}

func TestEmbedTextCapsInput(t *testing.T) {
	emb := testutil.NewMockEmbedder(4)
	long := strings.Repeat("ä", 50)
	emb.Fixed = map[string][]float32{strings.Repeat("ä", 10): {1, 0, 0, 0}}
	ix := embedding.NewIndexer(emb, 10)

	v, err := ix.EmbedText(context.Background(), long)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, v)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"payroll", 0, "payroll"},
		{"payroll", 3, "pay"},
		{"pay", 10, "pay"},
		{"日本語テキスト", 3, "日本語"},
		{"", 5, ""},
	}

	for _, tt := range tests {
		got := embedding.Truncate(tt.in, tt.max)
		assert.Equal(t, tt.want, got)
		assert.True(t, utf8.ValidString(got))
	}
}
