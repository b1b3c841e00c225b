package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/raphaelgruber/sopkb/internal/models"
)

// printRecord writes one record with its 1-based number.
func printRecord(w io.Writer, num int, r models.Record) {
	fmt.Fprintf(w, "%d. %s / %s\n", num, r.System, r.Process)
	for i, step := range r.Steps() {
		fmt.Fprintf(w, "   %d) %s\n", i+1, step)
	}
	if r.Rationale != "" {
		fmt.Fprintf(w, "   Why: %s\n", r.Rationale)
	}
	if verbose {
		fmt.Fprintf(w, "   Source: %s", r.SourceFile)
		if !r.LastUpdated.IsZero() {
			fmt.Fprintf(w, " (updated %s)", r.LastUpdated.Format("2006-01-02"))
		}
		if !r.HasEmbedding() {
			fmt.Fprint(w, " [no embedding]")
		}
		fmt.Fprintln(w)
	}
}

// parsePosition converts a 1-based record number from the command line to
// a 0-based store position.
func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid record number %q: use the number shown by 'sopkb list'", arg)
	}
	return n - 1, nil
}
