package cli

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/sopkb/internal/search"
	"github.com/raphaelgruber/sopkb/internal/service"
	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the procedures that best match a question",
	Long: `Search the knowledge base with a free-text question.

Records containing the query text are returned first, followed by records
whose embedding is similar enough to the query. When the embedding
provider is unreachable only the text match runs.

Examples:
  sopkb search "how do I run payroll"
  sopkb search "reset password" -n 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "max results (default: configured max_results)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx := cmd.Context()

	// A nil *Indexer must not reach the engine as a non-nil interface.
	var engine *search.Engine
	if ix := newIndexer(ctx); ix != nil {
		engine = search.NewEngine(ix, cfg)
	} else {
		engine = search.NewEngine(nil, cfg)
	}

	res, err := service.NewSearchService(cache, engine, collector).Search(ctx, query, searchLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch res.Outcome {
	case search.OutcomeEmptyQuery:
		return fmt.Errorf("empty query")
	case search.OutcomeNoMatch:
		fmt.Fprintln(out, "No matching procedures found.")
		return nil
	}

	if res.Degraded {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("Semantic search unavailable, showing text matches only."))
	}
	fmt.Fprintf(out, "Found %d results:\n\n", len(res.Hits))
	for _, h := range res.Hits {
		printRecord(out, h.Position+1, h.Record)
		if verbose && h.Score != nil {
			fmt.Fprintf(out, "   Score: %.3f\n", *h.Score)
		}
		fmt.Fprintln(out)
	}
	return nil
}
