package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reviewlens/reviewlens/internal/docstore"
	"github.com/reviewlens/reviewlens/internal/ingest"
	"github.com/reviewlens/reviewlens/internal/reviews"
)

func newIngestCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <pattern>...",
		Short: "Load review CSVs into the source collection",
		Long: `Recreates the source collection and bulk-loads the reviews from the given
files or glob patterns. Files with a .gz suffix are decompressed on the fly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			source := a.cfg.Pipeline.SourceCollection
			if err := a.store.DeleteCollection(ctx, source); err != nil && !docstore.IsNotFound(err) {
				return fmt.Errorf("deleting collection %s: %w", source, err)
			}
			if err := a.store.CreateCollection(ctx, source, reviews.SourceSchema()); err != nil {
				return fmt.Errorf("creating collection %s: %w", source, err)
			}

			ingestor := ingest.NewIngestor(a.store, source, a.cfg.Pipeline.BatchSize, a.logger)
			report, err := ingestor.Run(ctx, args)
			if err != nil {
				return err
			}

			if err := a.store.Flush(ctx, source); err != nil {
				return fmt.Errorf("flushing collection %s: %w", source, err)
			}
			count, err := a.store.Count(ctx, source)
			if err != nil {
				return fmt.Errorf("counting collection %s: %w", source, err)
			}

			fmt.Fprintf(c.OutOrStdout(), "Ingested %d records from %d files in %d batches; %s now holds %d documents\n",
				report.Records, len(report.Files), report.Batches, source, count)
			return nil
		},
	}
}
