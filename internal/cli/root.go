package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/viant/vecdb/config"
	"github.com/viant/vecdb/logging"
	"github.com/viant/vecdb/service"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string
	cfg      *config.Config
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vecdb",
	Short: "Embedded SQLite vector store with semantic search",
	Long: `vecdb stores text embeddings in a single SQLite file and answers
similarity searches by cosine distance, using a native SQL distance function
when one is available and an in-process scan otherwise.

Example usage:
  vecdb serve                          # Start the HTTP API on :4000
  vecdb insert --id a --text "hello"   # Embed and store a text
  vecdb import ./docs --include "**/*.md"
  vecdb search -q "greeting" --top-k 3`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dbPath != "" {
			cfg.Store.Path = dbPath
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "vecdb.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (overrides store.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func openService(ctx context.Context) (*service.Service, error) {
	svc, err := service.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Store.Path, err)
	}
	return svc, nil
}
