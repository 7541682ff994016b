package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reviewlens/reviewlens/internal/query"
)

func newQueryCommand(configPath *string) *cobra.Command {
	var minReviewsFlag, limitFlag int

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query reviewer aggregates in the pivot collection",
	}
	cmd.PersistentFlags().IntVar(&minReviewsFlag, "min-reviews", 0, "minimum review count per reviewer (0 uses the configured default)")
	cmd.PersistentFlags().IntVar(&limitFlag, "limit", 0, "maximum rows to return (0 uses the configured default)")

	newService := func() (*query.Service, int, int, error) {
		a, err := newApp(*configPath)
		if err != nil {
			return nil, 0, 0, err
		}
		minReviews := minReviewsFlag
		if minReviews <= 0 {
			minReviews = a.cfg.Query.MinReviews
		}
		limit := limitFlag
		if limit <= 0 {
			limit = a.cfg.Query.ResultLimit
		}
		return query.NewService(a.store, a.cfg.Pipeline.SourceCollection, a.cfg.Pipeline.PivotCollection), minReviews, limit, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "haters",
		Args:  cobra.NoArgs,
		Short: "Reviewers with only zero-star reviews, all on one vendor",
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, minReviews, limit, err := newService()
			if err != nil {
				return err
			}
			frame, err := svc.Haters(ctx, minReviews, limit)
			if err != nil {
				return err
			}
			frame.Render(c.OutOrStdout())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "fanboys",
		Args:  cobra.NoArgs,
		Short: "Reviewers with only five-star reviews, all on one vendor",
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, minReviews, limit, err := newService()
			if err != nil {
				return err
			}
			frame, err := svc.Fanboys(ctx, minReviews, limit)
			if err != nil {
				return err
			}
			frame.Render(c.OutOrStdout())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reviewer <id>",
		Short: "List the raw reviews of a single reviewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, _, limit, err := newService()
			if err != nil {
				return err
			}
			frame, err := svc.ReviewerHistory(ctx, args[0], limit)
			if err != nil {
				return err
			}
			frame.Render(c.OutOrStdout())
			return nil
		},
	})

	return cmd
}
