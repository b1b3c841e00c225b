package cli

import (
	"fmt"

	"github.com/raphaelgruber/sopkb/internal/service"
	"github.com/spf13/cobra"
)

var listSystem string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored procedures",
	Long: `List every record in the knowledge base with its number.

The numbers are used by 'edit' and 'delete'.

Examples:
  sopkb list
  sopkb list --system Workday`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSystem, "system", "", "only records for this system")
}

func runList(cmd *cobra.Command, args []string) error {
	entries, err := service.NewRecordService(cache, nil).List(cmd.Context(), listSystem)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No records found.")
		return nil
	}

	for _, e := range entries {
		printRecord(out, e.Position+1, e.Record)
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d records\n", len(entries))
	return nil
}
