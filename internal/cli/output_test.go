package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/raphaelgruber/sopkb/internal/models"
	"github.com/raphaelgruber/sopkb/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{arg: "1", want: 0},
		{arg: "12", want: 11},
		{arg: "#3", want: 2},
		{arg: "0", wantErr: true},
		{arg: "-2", wantErr: true},
		{arg: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parsePosition(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintRecord(t *testing.T) {
	var buf bytes.Buffer
	printRecord(&buf, 2, models.Record{
		System:       "Workday",
		Process:      "Run payroll",
		Instructions: "Open Payroll<br>Select period<br>Submit",
		Rationale:    "Staff get paid on time",
	})

	out := buf.String()
	assert.Contains(t, out, "2. Workday / Run payroll")
	assert.Contains(t, out, "   1) Open Payroll\n")
	assert.Contains(t, out, "   3) Submit\n")
	assert.Contains(t, out, "Why: Staff get paid on time")
}

func TestRenderReport(t *testing.T) {
	tests := []struct {
		name     string
		report   service.IngestReport
		contains []string
		excludes []string
	}{
		{
			name: "ingested",
			report: service.IngestReport{
				SourceFile: "sop.pdf", Outcome: service.OutcomeIngested,
				Accepted: 3, Rejected: 1, Pages: 2, Windows: 1, Embedded: 2, EmbedFailed: 1,
				Duration: 1500 * time.Millisecond,
			},
			contains: []string{"Ingested sop.pdf", "3 accepted, 1 rejected", "1 without embedding"},
			excludes: []string{"Duplicates"},
		},
		{
			name: "dry run",
			report: service.IngestReport{
				SourceFile: "sop.pdf", Outcome: service.OutcomeIngested, DryRun: true, Accepted: 2,
			},
			contains: []string{"nothing saved", "2 accepted, 0 rejected"},
			excludes: []string{"Embedded"},
		},
		{
			name: "no new records",
			report: service.IngestReport{
				SourceFile: "sop.pdf", Outcome: service.OutcomeNoNewRecords, Duplicates: 4,
			},
			contains: []string{"No new records", "Duplicates:  4"},
		},
		{
			name: "model unavailable",
			report: service.IngestReport{
				SourceFile: "sop.pdf", Outcome: service.OutcomeModelUnavailable, Windows: 2, FailedWindows: 2,
			},
			contains: []string{"model_unavailable", "(2 failed)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderReport(&tt.report, defaultTheme)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}
