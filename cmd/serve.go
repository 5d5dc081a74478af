package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apsinha/coursechat/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(a, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.Addr)
}
