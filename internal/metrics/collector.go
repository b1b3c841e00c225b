// Package metrics collects in-memory timings and token counts for the
// pipeline's outbound calls and store operations.
package metrics

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"
)

// Operation names.
const (
	OpExtractText = "extract_text"
	OpLLMGenerate = "llm_generate"
	OpEmbedding   = "embedding"
	OpStoreLoad   = "store_load"
	OpStoreSave   = "store_save"
	OpSearch      = "search"
)

type operation struct {
	count     int64
	errors    int64
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration

	inputTokens  int64
	outputTokens int64
}

// OperationSnapshot holds computed stats for one operation.
type OperationSnapshot struct {
	Name        string
	Count       int64
	Errors      int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64

	// Zero unless the provider reported usage.
	InputTokens  int64
	OutputTokens int64
}

// Snapshot is the state of a collector at a point in time, operations
// sorted by name.
type Snapshot struct {
	UptimeSeconds float64
	Operations    []OperationSnapshot
}

// Collector aggregates runtime statistics. All methods are thread-safe and
// safe to call on a nil *Collector, which records nothing.
type Collector struct {
	mu        sync.Mutex
	startTime time.Time
	ops       map[string]*operation
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*operation),
	}
}

// caller holds mu
func (c *Collector) record(op string, d time.Duration, err error) *operation {
	m, ok := c.ops[op]
	if !ok {
		m = &operation{minTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	m.count++
	if err != nil {
		m.errors++
	}
	m.totalTime += d
	m.minTime = min(m.minTime, d)
	m.maxTime = max(m.maxTime, d)
	return m
}

// RecordTiming records one call of op.
func (c *Collector) RecordTiming(op string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(op, d, err)
}

// RecordLLMUsage records one model call with its token usage.
func (c *Collector) RecordLLMUsage(op string, d time.Duration, inputTokens, outputTokens int64, err error) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.record(op, d, err)
	m.inputTokens += inputTokens
	m.outputTokens += outputTokens
}

// Time starts a timer for op; call the returned func with the outcome.
func (c *Collector) Time(op string) func(err error) {
	start := time.Now()
	return func(err error) {
		c.RecordTiming(op, time.Since(start), err)
	}
}

// Snapshot returns a copy of the current statistics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Operations:    make([]OperationSnapshot, 0, len(c.ops)),
	}
	for name, m := range c.ops {
		snap.Operations = append(snap.Operations, OperationSnapshot{
			Name:         name,
			Count:        m.count,
			Errors:       m.errors,
			TotalTimeMs:  m.totalTime.Milliseconds(),
			AvgTimeMs:    float64(m.totalTime.Milliseconds()) / float64(m.count),
			MinTimeMs:    m.minTime.Milliseconds(),
			MaxTimeMs:    m.maxTime.Milliseconds(),
			InputTokens:  m.inputTokens,
			OutputTokens: m.outputTokens,
		})
	}
	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].Name < snap.Operations[j].Name
	})
	return snap
}

// Get returns the snapshot of a single operation.
func (s Snapshot) Get(op string) (OperationSnapshot, bool) {
	for _, o := range s.Operations {
		if o.Name == op {
			return o, true
		}
	}
	return OperationSnapshot{}, false
}

// Print writes a human-readable table of the snapshot.
func (s Snapshot) Print(w io.Writer) {
	if len(s.Operations) == 0 {
		return
	}
	fmt.Fprintf(w, "\nmetrics (uptime %.1fs)\n", s.UptimeSeconds)
	for _, o := range s.Operations {
		fmt.Fprintf(w, "  %-13s count=%d errors=%d avg=%.0fms max=%dms", o.Name, o.Count, o.Errors, o.AvgTimeMs, o.MaxTimeMs)
		if o.InputTokens > 0 || o.OutputTokens > 0 {
			fmt.Fprintf(w, " tokens_in=%d tokens_out=%d", o.InputTokens, o.OutputTokens)
		}
		fmt.Fprintln(w)
	}
}
