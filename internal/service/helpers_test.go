package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/raphaelgruber/sopkb/internal/config"
	"github.com/raphaelgruber/sopkb/internal/embedding"
	"github.com/raphaelgruber/sopkb/internal/extract"
	"github.com/raphaelgruber/sopkb/internal/parser"
	"github.com/raphaelgruber/sopkb/internal/search"
	"github.com/raphaelgruber/sopkb/internal/store"
	"github.com/raphaelgruber/sopkb/internal/testutil"
)

const testDim = 8

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

const sopReply = "Payroll|Run payroll|Open HR portal<br>Click Run payroll<br>Approve|Staff are paid on time\n" +
	"CRM|Add lead|Open CRM<br>Click New lead|Track sales pipeline\n" +
	"this line is not a row\n" +
	"HR|Onboard employee|Create account<br>Ship laptop|"

// fakeText returns a fixed document.
type fakeText struct {
	text string
	err  error
}

func (f fakeText) Extract([]byte) (*parser.ExtractResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &parser.ExtractResult{Text: f.text, Pages: []parser.PageText{{Number: 1, Text: f.text}}}, nil
}

type env struct {
	cfg     config.Config
	store   *store.CSVStore
	cache   *store.Cache
	gen     *testutil.MockGenerator
	emb     *testutil.MockEmbedder
	indexer *embedding.Indexer
	ingest  *IngestService
	records *RecordService
	search  *SearchService
}

func newEnv(t *testing.T, reply string) *env {
	t.Helper()

	cfg := config.Load()
	cfg.RetryBackoff = time.Millisecond
	cfg.CallTimeout = time.Second
	cfg.SimilarityThreshold = 0.3
	cfg.MaxResults = 5

	e := &env{
		cfg:   cfg,
		store: store.NewCSVStore(filepath.Join(t.TempDir(), "records.csv")),
		gen:   &testutil.MockGenerator{Replies: []string{reply}},
		emb:   testutil.NewMockEmbedder(testDim),
	}
	e.cache = store.NewCache(e.store, nil)
	e.indexer = embedding.NewIndexer(e.emb, cfg.EmbedMaxChars)
	e.ingest = NewIngestService(e.cache, fakeText{text: "Standard operating procedures"}, extract.NewClient(e.gen, cfg), e.indexer, nil)
	e.ingest.SetClock(func() time.Time { return fixedNow })
	e.records = NewRecordService(e.cache, e.indexer)
	e.records.SetClock(func() time.Time { return fixedNow })
	e.search = NewSearchService(e.cache, search.NewEngine(e.indexer, cfg), nil)
	return e
}
