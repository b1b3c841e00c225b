// Package cli provides the sopkb command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/raphaelgruber/sopkb/internal/config"
	"github.com/raphaelgruber/sopkb/internal/db"
	"github.com/raphaelgruber/sopkb/internal/embedding"
	"github.com/raphaelgruber/sopkb/internal/llm"
	"github.com/raphaelgruber/sopkb/internal/metrics"
	"github.com/raphaelgruber/sopkb/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose     bool
	configPath  string
	metricsFile string

	cfg       config.Config
	collector *metrics.Collector
	cache     *store.Cache
	dbClient  *db.Client
	closeLog  func() error
)

var rootCmd = &cobra.Command{
	Use:   "sopkb",
	Short: "Standard operating procedure knowledge base",
	Long: `sopkb turns SOP documents into a searchable knowledge base.

Admins ingest PDF documents; a language model extracts one record per
procedure (System, Process, Instructions, Rationale), duplicates are
skipped and every record is embedded for semantic search. Anyone can then
ask free-text questions and get the best matching procedures back.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		cfg = config.Load()
		if configPath == "" {
			configPath = os.Getenv("SOPKB_CONFIG")
		}
		if configPath != "" {
			var err error
			if cfg, err = config.LoadFile(configPath, cfg); err != nil {
				return err
			}
		} else if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		var logger *slog.Logger
		logger, closeLog = config.SetupLogger(config.LogOptions{
			File:  cfg.LogFile,
			Level: cfg.LogLevel,
			Quiet: cmd.Name() == "ingest" && isTerminal(),
		})
		slog.SetDefault(logger)

		collector = metrics.NewCollector()

		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		cache = store.NewCache(s, collector)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			collector.Snapshot().Print(cmd.ErrOrStderr())
		}
		if metricsFile != "" {
			if err := collector.WriteTextfile(metricsFile); err != nil {
				slog.Warn("failed to write metrics file", "path", metricsFile, "error", err)
			}
		}
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				slog.Warn("failed to close database", "error", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// openStore returns the configured record store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSurrealDB:
		var err error
		dbClient, err = db.NewClient(ctx, db.ConfigFrom(cfg), nil)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := dbClient.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		return db.NewRecordStore(dbClient), nil
	default:
		return store.NewCSVStore(cfg.StorePath), nil
	}
}

// newIndexer creates the embedding indexer. When the embedder cannot be
// constructed it returns nil and commands fall back to keyword-only.
func newIndexer(ctx context.Context) *embedding.Indexer {
	embedder, err := llm.NewEmbedder(ctx, cfg)
	if err != nil {
		slog.Warn("embedder unavailable, continuing without embeddings", "provider", cfg.EmbedProvider, "error", err)
		return nil
	}
	embedder.SetMetrics(collector)
	return embedding.NewIndexer(embedder, cfg.EmbedMaxChars)
}

// Execute runs the root command. Cancelling ctx aborts long-running
// commands before they write to the store.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print operation metrics after the command")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides environment)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the command")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(watchCmd)
}
