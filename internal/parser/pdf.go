// Package parser turns uploaded PDF documents into plain text and splits
// that text into windows small enough for a single model call.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF is returned when the document cannot be opened at all.
// Individual unreadable pages are not an error; they yield empty text.
var ErrUnreadablePDF = errors.New("unreadable pdf")

// PageText is the text of one page, numbered from 1.
type PageText struct {
	Number int
	Text   string
}

// ExtractResult holds the page texts and their concatenation.
type ExtractResult struct {
	Text       string
	Pages      []PageText
	EmptyPages int
}

// pageSource is the subset of a PDF reader the extractor needs.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

// PDFExtractor extracts plain text page by page.
type PDFExtractor struct {
	open func(content []byte) (pageSource, error)
}

// NewPDFExtractor creates an extractor backed by ledongthuc/pdf.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{open: openLedongthuc}
}

// Extract returns the text of every page in order, joined with a newline.
// A page that yields no text contributes an empty string.
func (e *PDFExtractor) Extract(content []byte) (*ExtractResult, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrUnreadablePDF)
	}

	src, err := e.safeOpen(content)
	if err != nil {
		return nil, err
	}

	n := src.NumPage()
	result := &ExtractResult{Pages: make([]PageText, 0, n)}
	texts := make([]string, 0, n)

	for i := 1; i <= n; i++ {
		text := safePageText(src, i)
		if strings.TrimSpace(text) == "" {
			result.EmptyPages++
		}
		result.Pages = append(result.Pages, PageText{Number: i, Text: text})
		texts = append(texts, text)
	}

	result.Text = strings.Join(texts, "\n")
	slog.Debug("pdf text extracted", "pages", n, "empty_pages", result.EmptyPages, "chars", len(result.Text))
	return result, nil
}

func (e *PDFExtractor) safeOpen(content []byte) (src pageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	src, err = e.open(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
	}
	return src, nil
}

// safePageText isolates panics from malformed page content streams.
func safePageText(src pageSource, n int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pdf page unreadable", "page", n, "panic", r)
			text = ""
		}
	}()

	text, err := src.PageText(n)
	if err != nil {
		slog.Warn("pdf page text failed", "page", n, "error", err)
		return ""
	}
	return text
}

type ledongthucSource struct {
	r *pdf.Reader
}

func openLedongthuc(content []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	return ledongthucSource{r: r}, nil
}

func (s ledongthucSource) NumPage() int { return s.r.NumPage() }

func (s ledongthucSource) PageText(n int) (string, error) {
	page := s.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
