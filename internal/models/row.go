package models

import (
	"errors"
	"fmt"
)

// ErrRowRejected marks a row that failed parsing or validation. Rejections
// are counted, never fatal to a batch.
var ErrRowRejected = errors.New("row rejected")

// Row is one parsed line of model output under the fixed
// System|Process|Instructions|Rationale schema.
type Row struct {
	System       string
	Process      string
	Instructions string
	Rationale    string
}

// ParseError describes why a line of model output could not become a Row.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Unwrap lets errors.Is match ErrRowRejected.
func (e *ParseError) Unwrap() error {
	return ErrRowRejected
}

// RowResult is either a parsed Row or the error that prevented parsing.
type RowResult struct {
	Row Row
	Err error
}

// OK reports whether the result holds a usable row.
func (r RowResult) OK() bool {
	return r.Err == nil
}
