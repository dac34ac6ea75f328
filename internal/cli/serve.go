package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/viant/vecdb/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("error closing database", "error", err)
			return
		}
		logger.Info("database connection closed")
	}()
	if cfg.Embedding.Warmup {
		if err := svc.Embedder.Ready(ctx); err != nil {
			return err
		}
	}
	return server.New(svc, logger).ListenAndServe(ctx)
}

