package cli

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/sopkb/internal/service"
	"github.com/spf13/cobra"
)

var addInput service.RecordInput

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a procedure by hand",
	Long: `Add a single procedure without going through a document.

Separate instruction steps with <br>. The record is stored with source
"manual" and embedded right away.

Examples:
  sopkb add --system Workday --process "Approve timesheet" \
    --instructions "Open Inbox<br>Select timesheet<br>Approve" \
    --rationale "Hours must be approved before payroll runs"`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addInput.System, "system", "", "system or application (required)")
	addCmd.Flags().StringVar(&addInput.Process, "process", "", "process name (required)")
	addCmd.Flags().StringVar(&addInput.Instructions, "instructions", "", "steps separated by <br>")
	addCmd.Flags().StringVar(&addInput.Rationale, "rationale", "", "why the procedure exists")
	_ = addCmd.MarkFlagRequired("system")
	_ = addCmd.MarkFlagRequired("process")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc := service.NewRecordService(cache, newIndexer(ctx))

	entry, err := svc.Add(ctx, addInput)
	if errors.Is(err, service.ErrDuplicate) {
		return fmt.Errorf("%s / %s already exists with the same instructions", addInput.System, addInput.Process)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Added:")
	printRecord(out, entry.Position+1, entry.Record)
	if !entry.Record.HasEmbedding() {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("Embedding failed; run 'sopkb reindex' later."))
	}
	return nil
}
