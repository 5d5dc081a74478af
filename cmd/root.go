// Package cmd implements the coursechat command line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apsinha/coursechat/internal/app"
	"github.com/apsinha/coursechat/internal/config"
	"github.com/apsinha/coursechat/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "coursechat",
	Short: "Course materials assistant with retrieval-augmented answers",
	Long: `coursechat answers questions about course materials. It indexes course
documents into a vector store and lets a model search them with tools
before answering.

Run "coursechat serve" for the HTTP API or "coursechat chat" for an
interactive session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration, builds the application and ingests the
// configured documents directory.
func setup(ctx context.Context) (*app.App, *config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup: %w", err)
	}

	if cfg.DocsDir != "" {
		res, err := a.IngestDirectory(ctx, cfg.DocsDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ingesting %s: %w", cfg.DocsDir, err)
		}
		logger.Info("ingestion complete",
			"courses", res.Courses, "chunks", res.Chunks, "skipped", res.Skipped)
	}

	return a, cfg, logger, nil
}
