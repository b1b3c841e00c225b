package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/raphaelgruber/sopkb/internal/embedding"
	"github.com/raphaelgruber/sopkb/internal/extract"
	"github.com/raphaelgruber/sopkb/internal/llm"
	"github.com/raphaelgruber/sopkb/internal/parser"
	"github.com/raphaelgruber/sopkb/internal/service"
	"github.com/spf13/cobra"
)

var (
	ingestSource string
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>...",
	Short: "Extract procedures from PDFs into the knowledge base",
	Long: `Extract procedures from SOP documents and add them to the knowledge base.

The PDF text is split into windows and each window is sent to the
configured language model, which returns one row per procedure. Rows with
an empty System or Process are rejected, rows already present are skipped
and the rest are embedded and saved in a single write per document.

Arguments may be glob patterns, including ** for nested directories.

Examples:
  sopkb ingest payroll-sop.pdf
  sopkb ingest scan.pdf --source "HR Handbook 2024"
  sopkb ingest "handbooks/**/*.pdf"
  sopkb ingest draft.pdf --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "source name stored on each record (default: file name, single file only)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "extract and merge without saving")
}

// expandPaths resolves glob arguments to the files they match.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %s", arg)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// newIngestService builds the admin pipeline from the current config.
func newIngestService(ctx context.Context, withEmbeddings bool) (*service.IngestService, error) {
	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", extract.ErrModelUnavailable, err)
	}
	model.SetMetrics(collector)

	var indexer *embedding.Indexer
	if withEmbeddings {
		indexer = newIndexer(ctx)
	}
	return service.NewIngestService(cache, parser.NewPDFExtractor(), extract.NewClient(model, cfg), indexer, collector), nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if ingestSource != "" && len(paths) > 1 {
		return fmt.Errorf("--source can only be used with a single file, got %d", len(paths))
	}

	ctx := cmd.Context()
	svc, err := newIngestService(ctx, !ingestDryRun)
	if err != nil {
		return err
	}

	var failed int
	for _, path := range paths {
		source := ingestSource
		if source == "" {
			source = filepath.Base(path)
		}

		err := ingestFile(ctx, cmd.OutOrStdout(), svc, path, source, isTerminal())
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			if len(paths) == 1 {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), defaultTheme.errorStyle().Render("✗ "+err.Error()))
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(paths))
	}
	return nil
}

// ingestFile ingests one document and prints its report.
func ingestFile(ctx context.Context, out io.Writer, svc *service.IngestService, path, source string, interactive bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return ingestContent(ctx, out, svc, content, source, interactive)
}

func ingestContent(ctx context.Context, out io.Writer, svc *service.IngestService, content []byte, source string, interactive bool) error {
	run := func(ctx context.Context, progress func(done, total int)) (*service.IngestReport, error) {
		return svc.Ingest(ctx, content, service.IngestOptions{
			SourceFile: source,
			DryRun:     ingestDryRun,
			Progress:   progress,
		})
	}

	var (
		report *service.IngestReport
		err    error
	)
	if interactive {
		report, err = runIngestProgress(ctx, source, run)
	} else {
		fmt.Fprintf(out, "Ingesting %s...\n", source)
		report, err = run(ctx, nil)
	}

	if report != nil {
		fmt.Fprint(out, renderReport(report, defaultTheme))
	}
	if err != nil {
		return fmt.Errorf("ingest %s: %w", source, err)
	}
	return nil
}
