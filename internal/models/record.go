// Package models defines data structures for the SOP knowledge base.
package models

import (
	"strings"
	"time"
)

// SourceManual marks records typed in directly rather than extracted from a document.
const SourceManual = "manual"

// StepDelimiter separates steps inside Instructions. It is stored verbatim.
const StepDelimiter = "<br>"

// Record is a single standard-operating-procedure entry in the store.
type Record struct {
	System       string    `json:"system"`
	Process      string    `json:"process"`
	Instructions string    `json:"instructions"`
	Rationale    string    `json:"rationale"`
	SourceFile   string    `json:"source_file"`
	LastUpdated  time.Time `json:"last_updated"`

	// Embedding is nil when the record has not been (or could not be) embedded.
	Embedding []float32 `json:"embedding,omitempty"`
}

// DedupKey is the normalized (system, process, instructions) triple used to
// detect duplicates during merge.
type DedupKey struct {
	System       string
	Process      string
	Instructions string
}

// Key returns the record's dedup key.
func (r Record) Key() DedupKey {
	return NewDedupKey(r.System, r.Process, r.Instructions)
}

// NewDedupKey trims and lower-cases the three identifying fields.
func NewDedupKey(system, process, instructions string) DedupKey {
	return DedupKey{
		System:       normalize(system),
		Process:      normalize(process),
		Instructions: normalize(instructions),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalText is the text embedded for the record.
func (r Record) CanonicalText() string {
	return r.System + " " + r.Process + " " + r.Instructions
}

// HasEmbedding reports whether the record carries a vector.
func (r Record) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// Steps splits Instructions on StepDelimiter, dropping empty steps.
func (r Record) Steps() []string {
	parts := strings.Split(r.Instructions, StepDelimiter)
	steps := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			steps = append(steps, p)
		}
	}
	return steps
}

// Valid reports whether the record satisfies the store's schema invariant.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.System) != "" && strings.TrimSpace(r.Process) != ""
}
