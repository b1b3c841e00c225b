// Package service wires the pipeline stages into the operations the CLI
// exposes. Requests are handled one at a time; concurrent writers to the
// same store are last-writer-wins.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/sopkb/internal/embedding"
	"github.com/raphaelgruber/sopkb/internal/extract"
	"github.com/raphaelgruber/sopkb/internal/merge"
	"github.com/raphaelgruber/sopkb/internal/metrics"
	"github.com/raphaelgruber/sopkb/internal/parser"
	"github.com/raphaelgruber/sopkb/internal/store"
)

// TextExtractor turns document bytes into text. *parser.PDFExtractor implements it.
type TextExtractor interface {
	Extract(content []byte) (*parser.ExtractResult, error)
}

// RowExtractor turns text into schema rows. *extract.Client implements it.
type RowExtractor interface {
	ExtractWithProgress(ctx context.Context, text string, progress extract.ProgressFunc) (*extract.Result, error)
}

// Outcome summarizes how an ingestion ended.
type Outcome string

const (
	OutcomeIngested         Outcome = "ingested"
	OutcomeNoNewRecords     Outcome = "no_new_records"
	OutcomeExtractionEmpty  Outcome = "extraction_empty"
	OutcomeModelUnavailable Outcome = "model_unavailable"
	OutcomeUnreadablePDF    Outcome = "unreadable_pdf"
	OutcomeFailed           Outcome = "failed"
)

// IngestOptions configures one ingestion.
type IngestOptions struct {
	// SourceFile is stamped on every accepted record.
	SourceFile string
	// DryRun runs extraction and merge but neither embeds nor saves.
	DryRun bool
	// Progress, if set, is called after each extraction window.
	Progress func(done, total int)
}

// IngestReport describes one ingestion run.
type IngestReport struct {
	RunID         string
	SourceFile    string
	Pages         int
	EmptyPages    int
	Windows       int
	FailedWindows int
	RowsParsed    int
	Accepted      int
	Rejected      int
	Duplicates    int
	Embedded      int
	EmbedFailed   int
	DryRun        bool
	Outcome       Outcome
	Duration      time.Duration
}

// Summary renders the accepted and rejected counts for the admin.
func (r *IngestReport) Summary() string {
	return fmt.Sprintf("%d accepted, %d rejected", r.Accepted, r.Rejected)
}

// IngestService runs the admin path: text extraction, row extraction,
// merge, embedding and a single commit.
type IngestService struct {
	cache   *store.Cache
	text    TextExtractor
	rows    RowExtractor
	indexer *embedding.Indexer
	metrics *metrics.Collector
	now     func() time.Time
}

// NewIngestService creates an ingest service. indexer and m may be nil;
// without an indexer records are stored without embeddings.
func NewIngestService(cache *store.Cache, text TextExtractor, rows RowExtractor, indexer *embedding.Indexer, m *metrics.Collector) *IngestService {
	return &IngestService{
		cache:   cache,
		text:    text,
		rows:    rows,
		indexer: indexer,
		metrics: m,
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source used for last_updated.
func (s *IngestService) SetClock(now func() time.Time) {
	s.now = now
}

// Ingest processes one document. The store is written at most once, and
// only after every stage has finished, so a failed run leaves it unchanged.
//
// The report is always returned. On ErrUnreadablePDF and
// ErrModelUnavailable the error is returned alongside it. A model that
// fails on every window therefore surfaces as an error even though the
// store is untouched and nothing was lost, the same end state as
// OutcomeExtractionEmpty. Callers that want to treat a model outage as a
// soft result should branch on report.Outcome, not on err.
func (s *IngestService) Ingest(ctx context.Context, content []byte, opts IngestOptions) (*IngestReport, error) {
	start := time.Now()
	report := &IngestReport{
		RunID:      uuid.New().String()[:8],
		SourceFile: opts.SourceFile,
		DryRun:     opts.DryRun,
		Outcome:    OutcomeFailed,
	}
	defer func() { report.Duration = time.Since(start) }()

	log := slog.With("run_id", report.RunID, "source_file", opts.SourceFile)
	log.Info("ingest started", "bytes", len(content), "dry_run", opts.DryRun)

	done := s.metrics.Time(metrics.OpExtractText)
	doc, err := s.text.Extract(content)
	done(err)
	if err != nil {
		if errors.Is(err, parser.ErrUnreadablePDF) {
			report.Outcome = OutcomeUnreadablePDF
		}
		log.Warn("text extraction failed", "error", err)
		return report, fmt.Errorf("extract text: %w", err)
	}
	report.Pages = len(doc.Pages)
	report.EmptyPages = doc.EmptyPages

	if strings.TrimSpace(doc.Text) == "" {
		report.Outcome = OutcomeExtractionEmpty
		log.Warn("document has no extractable text", "pages", report.Pages)
		return report, nil
	}

	res, err := s.rows.ExtractWithProgress(ctx, doc.Text, opts.Progress)
	if res != nil {
		report.Windows = res.Windows
		report.FailedWindows = res.FailedWindows
		report.RowsParsed = len(res.Rows)
	}
	if err != nil {
		if errors.Is(err, extract.ErrModelUnavailable) {
			report.Outcome = OutcomeModelUnavailable
		}
		log.Warn("row extraction failed", "error", err, "windows", report.Windows)
		return report, fmt.Errorf("extract rows: %w", err)
	}

	existing, err := s.cache.Snapshot(ctx)
	if err != nil {
		return report, fmt.Errorf("ingest: %w", err)
	}

	merged, mr := merge.NewMerger(s.now).Merge(existing, res.Rows, opts.SourceFile)
	report.Accepted = mr.Accepted
	report.Rejected = mr.Rejected
	report.Duplicates = mr.Duplicates

	if mr.Accepted == 0 {
		report.Outcome = OutcomeExtractionEmpty
		if mr.Duplicates > 0 {
			report.Outcome = OutcomeNoNewRecords
		}
		log.Info("ingest finished without new records", "outcome", report.Outcome,
			"rejected", report.Rejected, "duplicates", report.Duplicates, "reason", extract.ErrExtractionEmpty)
		return report, nil
	}

	if opts.DryRun {
		report.Outcome = OutcomeIngested
		log.Info("dry run complete", "summary", report.Summary(), "duplicates", report.Duplicates)
		return report, nil
	}

	added := merged[len(existing):]
	if s.indexer != nil {
		ir := s.indexer.Index(ctx, added)
		report.Embedded = ir.Embedded
		report.EmbedFailed = ir.Failed
	} else {
		report.EmbedFailed = len(added)
	}

	// A cancelled run must not reach the store.
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingest: %w", err)
	}
	if err := s.cache.Commit(ctx, merged); err != nil {
		return report, fmt.Errorf("ingest: %w", err)
	}

	report.Outcome = OutcomeIngested
	log.Info("ingest complete", "summary", report.Summary(), "duplicates", report.Duplicates,
		"embedded", report.Embedded, "embed_failed", report.EmbedFailed, "failed_windows", report.FailedWindows)
	return report, nil
}
