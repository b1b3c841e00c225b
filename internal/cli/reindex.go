package cli

import (
	"fmt"

	"github.com/raphaelgruber/sopkb/internal/service"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Embed records that have no embedding",
	Long: `Compute embeddings for records stored without one, or with one from a
model of a different dimension. Run this after an embedding outage or
after switching embedding models.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	report, err := service.NewRecordService(cache, newIndexer(ctx)).Reindex(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d records (%d already up to date, %d failed)\n",
		report.Embedded, report.Skipped, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d records could not be embedded", report.Failed)
	}
	return nil
}
