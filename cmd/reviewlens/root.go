package main

import (
	"github.com/spf13/cobra"

	"github.com/reviewlens/reviewlens/internal/docstore"
	"github.com/reviewlens/reviewlens/internal/shared/config"
	"github.com/reviewlens/reviewlens/internal/shared/logging"
)

func newRootCommand() *cobra.Command {
	var configPath string

	rc := &cobra.Command{
		Use:   "reviewlens",
		Short: "Load review data into a document store and analyze reviewer behavior",
		Long: `reviewlens ingests gzip-compressed review CSVs into a document store,
pivots them into per-reviewer aggregates with a server-side job, and runs
canned queries over the result: reviewers who rain all their reviews on a
single vendor with the lowest or highest possible rating.`,
		SilenceUsage: true,
	}

	rc.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file to read from")

	rc.AddCommand(newIngestCommand(&configPath))
	rc.AddCommand(newPivotCommand(&configPath))
	rc.AddCommand(newQueryCommand(&configPath))
	rc.AddCommand(newRunCommand(&configPath))
	rc.AddCommand(newRunsCommand(&configPath))

	return rc
}

// app bundles the pieces every command needs.
type app struct {
	cfg    *config.Config
	logger logging.Logger
	store  *docstore.Client
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	store := docstore.NewClient(cfg.Store.BaseURL, cfg.Store.Timeout)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}, nil
}
