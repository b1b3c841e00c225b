package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/sopkb/internal/service"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <#>",
	Short: "Delete a procedure from the knowledge base",
	Long: `Delete the record with the given number.

Records after it are renumbered. Requires confirmation unless --force is used.

Examples:
  sopkb delete 4
  sopkb delete 4 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	pos, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	svc := service.NewRecordService(cache, nil)

	if !deleteForce {
		entries, err := svc.List(ctx, "")
		if err != nil {
			return err
		}
		if pos >= len(entries) {
			return fmt.Errorf("record %s not found: the knowledge base has %d records", args[0], len(entries))
		}

		r := entries[pos].Record
		fmt.Printf("About to delete #%d: %s / %s\n", pos+1, r.System, r.Process)
		fmt.Print("\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	removed, err := svc.Delete(ctx, pos)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted: %s / %s\n", removed.System, removed.Process)
	return nil
}
