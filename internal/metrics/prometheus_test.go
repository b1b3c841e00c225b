package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorExportsPrometheus(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpSearch, 250*time.Millisecond, nil)
	c.RecordLLMUsage(OpLLMGenerate, time.Second, 100, 20, nil)

	// search: calls, errors, seconds. llm_generate: the same plus two token series.
	assert.Equal(t, 8, testutil.CollectAndCount(c))

	expected := `
# HELP sopkb_operation_calls_total Number of calls per operation.
# TYPE sopkb_operation_calls_total counter
sopkb_operation_calls_total{op="llm_generate"} 1
sopkb_operation_calls_total{op="search"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "sopkb_operation_calls_total"))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpStoreSave, 10*time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "sopkb.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sopkb_operation_calls_total{op="store_save"} 1`)
}
