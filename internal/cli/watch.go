package cli

import (
	"fmt"

	"github.com/raphaelgruber/sopkb/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchPattern  string
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest PDFs as they are dropped into a directory",
	Long: `Watch an inbox directory and ingest every matching PDF once it has
finished writing. A file is ingested again only when its content changes.
Each record's source is the file's path relative to the inbox.

Runs until interrupted.

Examples:
  sopkb watch ./inbox
  sopkb watch /shared/sops --pattern "approved/**/*.pdf" --existing`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchPattern, "pattern", watch.DefaultPattern, "glob of files to ingest, relative to the directory")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest files already in the directory")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := newIngestService(ctx, true)
	if err != nil {
		return err
	}

	w, err := watch.New(args[0], watch.Options{Pattern: watchPattern, Existing: watchExisting})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s for %s (Ctrl+C to stop)\n", args[0], watchPattern)
	for ev := range w.Events() {
		// A failed document does not stop the watch; it is retried when it changes.
		err := ingestContent(ctx, out, svc, ev.Content, ev.RelPath, false)
		if err != nil && ctx.Err() == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), defaultTheme.errorStyle().Render("✗ "+err.Error()))
		}
	}
	return nil
}
