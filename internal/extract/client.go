// Package extract turns document text into schema rows with one model call
// per text window.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/raphaelgruber/sopkb/internal/config"
	"github.com/raphaelgruber/sopkb/internal/llm"
	"github.com/raphaelgruber/sopkb/internal/models"
	"github.com/raphaelgruber/sopkb/internal/parser"
)

var (
	// ErrModelUnavailable means no window could be extracted.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrExtractionEmpty marks a run that produced zero accepted rows. It
	// describes an outcome and is never returned by Extract.
	ErrExtractionEmpty = errors.New("extraction produced no rows")
)

// Generator is the generative completion call.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProgressFunc is called after each window with the number of finished windows.
type ProgressFunc func(done, total int)

// Result collects the parsed rows of every window in document order.
type Result struct {
	Rows          []models.RowResult
	Windows       int
	FailedWindows int
}

// Accepted returns the rows that parsed cleanly.
func (r *Result) Accepted() []models.Row {
	var rows []models.Row
	for _, rr := range r.Rows {
		if rr.OK() {
			rows = append(rows, rr.Row)
		}
	}
	return rows
}

// Rejected counts rows that failed to parse.
func (r *Result) Rejected() int {
	n := 0
	for _, rr := range r.Rows {
		if !rr.OK() {
			n++
		}
	}
	return n
}

// Empty reports whether no row parsed cleanly.
func (r *Result) Empty() bool {
	return len(r.Accepted()) == 0
}

// Client runs the extraction prompt over text windows.
type Client struct {
	gen          Generator
	windowChars  int
	retryBackoff time.Duration
	callTimeout  time.Duration
}

// NewClient creates an extraction client using the window and retry settings in cfg.
func NewClient(gen Generator, cfg config.Config) *Client {
	return &Client{
		gen:          gen,
		windowChars:  cfg.WindowChars,
		retryBackoff: cfg.RetryBackoff,
		callTimeout:  cfg.CallTimeout,
	}
}

// Extract splits text into windows and extracts rows from each.
func (c *Client) Extract(ctx context.Context, text string) (*Result, error) {
	return c.ExtractWithProgress(ctx, text, nil)
}

// ExtractWithProgress is Extract with a per-window progress callback.
//
// Each window gets at most one retry. A window whose call still fails
// contributes no rows and is counted in FailedWindows. A fatal provider
// error stops the remaining windows. When every window fails the result is
// returned together with an error wrapping ErrModelUnavailable.
func (c *Client) ExtractWithProgress(ctx context.Context, text string, progress ProgressFunc) (*Result, error) {
	windows := parser.SplitWindows(text, c.windowChars)
	res := &Result{Windows: len(windows)}
	if len(windows) == 0 {
		return res, nil
	}

	var lastErr error
	for i, window := range windows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}

		reply, err := c.generate(ctx, window, i, len(windows))
		if err != nil {
			lastErr = err
			res.FailedWindows++
			slog.Warn("window extraction failed", "window", i+1, "windows", len(windows), "error", err)

			if errors.Is(err, llm.ErrFatalAPI) {
				res.FailedWindows += len(windows) - i - 1
				if progress != nil {
					progress(len(windows), len(windows))
				}
				break
			}
		} else {
			rows := ParseRows(reply)
			for _, rr := range rows {
				if !rr.OK() {
					slog.Warn("row rejected", "window", i+1, "error", rr.Err)
				}
			}
			res.Rows = append(res.Rows, rows...)
			slog.Debug("window extracted", "window", i+1, "windows", len(windows), "rows", len(rows))
		}

		if progress != nil {
			progress(i+1, len(windows))
		}
	}

	if res.FailedWindows == res.Windows {
		return res, fmt.Errorf("%w: %w", ErrModelUnavailable, lastErr)
	}
	return res, nil
}

func (c *Client) generate(ctx context.Context, window string, index, total int) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBackoff
	b.MaxElapsedTime = 0

	var reply string
	op := func() error {
		callCtx := ctx
		if c.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
			defer cancel()
		}

		var err error
		reply, err = c.gen.GenerateWithSystem(callCtx, systemPrompt, userPrompt(window, index, total))
		if errors.Is(err, llm.ErrFatalAPI) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		slog.Debug("retrying window extraction", "window", index+1, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, 1), ctx), notify)
	return reply, err
}
