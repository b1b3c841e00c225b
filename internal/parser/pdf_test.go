package parser

import (
	"errors"
	"testing"
)

type fakePages struct {
	texts   []string
	errAt   map[int]error
	panicAt map[int]bool
}

func (f fakePages) NumPage() int { return len(f.texts) }

func (f fakePages) PageText(n int) (string, error) {
	if f.panicAt[n] {
		panic("malformed content stream")
	}
	if err := f.errAt[n]; err != nil {
		return "", err
	}
	return f.texts[n-1], nil
}

func extractorFor(src pageSource, openErr error) *PDFExtractor {
	return &PDFExtractor{open: func([]byte) (pageSource, error) {
		if openErr != nil {
			return nil, openErr
		}
		return src, nil
	}}
}

func TestExtract_JoinsPagesInOrder(t *testing.T) {
	e := extractorFor(fakePages{texts: []string{"page one", "page two", "page three"}}, nil)

	res, err := e.Extract([]byte("%PDF"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Text != "page one\npage two\npage three" {
		t.Errorf("Text = %q", res.Text)
	}
	if len(res.Pages) != 3 || res.Pages[2].Number != 3 {
		t.Errorf("Pages = %+v", res.Pages)
	}
	if res.EmptyPages != 0 {
		t.Errorf("EmptyPages = %d, want 0", res.EmptyPages)
	}
}

func TestExtract_PartialPages(t *testing.T) {
	src := fakePages{
		texts:   []string{"intro", "scanned", "", "steps"},
		errAt:   map[int]error{2: errors.New("bad font")},
		panicAt: map[int]bool{4: true},
	}
	e := extractorFor(src, nil)

	res, err := e.Extract([]byte("%PDF"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Text != "intro\n\n\n" {
		t.Errorf("Text = %q, want failed pages as empty strings", res.Text)
	}
	if res.EmptyPages != 3 {
		t.Errorf("EmptyPages = %d, want 3", res.EmptyPages)
	}
}

func TestExtract_Unreadable(t *testing.T) {
	tests := []struct {
		name    string
		e       *PDFExtractor
		content []byte
	}{
		{"empty content", NewPDFExtractor(), nil},
		{"not a pdf", NewPDFExtractor(), []byte("this is plainly not a pdf document")},
		{"open error", extractorFor(nil, errors.New("broken xref")), []byte("%PDF")},
		{"open panic", &PDFExtractor{open: func([]byte) (pageSource, error) { panic("eof") }}, []byte("%PDF")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.e.Extract(tt.content)
			if !errors.Is(err, ErrUnreadablePDF) {
				t.Fatalf("Extract() error = %v, want ErrUnreadablePDF", err)
			}
			if res != nil {
				t.Errorf("Extract() result = %+v, want nil", res)
			}
		})
	}
}
