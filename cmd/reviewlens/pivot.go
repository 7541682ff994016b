package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reviewlens/reviewlens/internal/pivot"
	"github.com/reviewlens/reviewlens/internal/query"
	"github.com/reviewlens/reviewlens/internal/reviews"
)

func newPivotCommand(configPath *string) *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "pivot",
		Args:  cobra.NoArgs,
		Short: "Run the per-reviewer pivot job over the source collection",
		Long: `Recreates the pivot job and its destination collection, starts the job, and
polls until the store reports it stopped. With --preview the job definition is
only evaluated against a data sample and nothing is persisted.`,
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			controller := pivot.NewController(
				a.store,
				a.cfg.Pipeline.JobName,
				reviews.PivotSpec(a.cfg.Pipeline.SourceCollection, a.cfg.Pipeline.PivotCollection),
				reviews.PivotSchema(),
				a.logger,
			)

			if preview {
				sample, err := controller.Preview(ctx)
				if err != nil {
					return err
				}
				columns := []string{reviews.FieldAvgRating, reviews.FieldDistinctVendors, reviews.FieldReviewCount}
				query.FrameFromDocuments(sample, columns, reviews.FieldReviewer).Render(c.OutOrStdout())
				return nil
			}

			if err := controller.Recreate(ctx); err != nil {
				return err
			}
			if err := controller.Start(ctx); err != nil {
				return err
			}

			policy := pivot.PollPolicy{
				Interval:    a.cfg.Pipeline.PollInterval,
				Deadline:    a.cfg.Pipeline.PollDeadline,
				MaxAttempts: a.cfg.Pipeline.PollMaxAttempts,
			}
			if _, err := controller.Poll(ctx, policy, nil); err != nil {
				return err
			}

			destination := a.cfg.Pipeline.PivotCollection
			if err := a.store.Flush(ctx, destination); err != nil {
				return fmt.Errorf("flushing collection %s: %w", destination, err)
			}
			count, err := a.store.Count(ctx, destination)
			if err != nil {
				return fmt.Errorf("counting collection %s: %w", destination, err)
			}

			fmt.Fprintf(c.OutOrStdout(), "Pivot job %s finished; %s holds %d reviewer groups\n",
				a.cfg.Pipeline.JobName, destination, count)
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "evaluate the job against a sample without persisting anything")
	return cmd
}
