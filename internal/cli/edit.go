package cli

import (
	"fmt"

	"github.com/raphaelgruber/sopkb/internal/service"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <#>",
	Short: "Change fields of a stored procedure",
	Long: `Change one or more fields of the record with the given number.

Only the flags you pass are changed. Editing System, Process or
Instructions recomputes the record's embedding.

Examples:
  sopkb edit 3 --rationale "Required by the 2024 audit"
  sopkb edit 7 --instructions "Open Settings<br>Reset password"`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("system", "", "new system")
	editCmd.Flags().String("process", "", "new process")
	editCmd.Flags().String("instructions", "", "new steps separated by <br>")
	editCmd.Flags().String("rationale", "", "new rationale")
}

func runEdit(cmd *cobra.Command, args []string) error {
	pos, err := parsePosition(args[0])
	if err != nil {
		return err
	}

	var patch service.RecordPatch
	flagValue := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	patch.System = flagValue("system")
	patch.Process = flagValue("process")
	patch.Instructions = flagValue("instructions")
	patch.Rationale = flagValue("rationale")
	if patch == (service.RecordPatch{}) {
		return fmt.Errorf("nothing to change: pass at least one of --system, --process, --instructions, --rationale")
	}

	ctx := cmd.Context()
	entry, err := service.NewRecordService(cache, newIndexer(ctx)).Update(ctx, pos, patch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Updated:")
	printRecord(out, entry.Position+1, entry.Record)
	return nil
}
