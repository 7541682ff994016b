package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reviewlens/reviewlens/internal/runner"
	"github.com/reviewlens/reviewlens/internal/runstore"
)

func newRunCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <pattern>...",
		Short: "Run the full pipeline: ingest, pivot, and report",
		Long: `Runs ingest, the pivot job, and both reviewer queries in one go, recording
the run and its errors in the local run history database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}

			runs, err := runstore.Open(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer runs.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline := runner.New(a.store, runs, a.cfg.Pipeline, a.cfg.Query, a.logger)
			run, err := pipeline.NewRun(args)
			if err != nil {
				return err
			}

			result, err := pipeline.Execute(ctx, run)
			if err != nil {
				return fmt.Errorf("run %s failed: %w", run.ID, err)
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "Run %s completed: %d records in, %d reviewer groups out\n\n",
				run.ID, result.SourceCount, result.PivotCount)

			fmt.Fprintln(out, "Haters (only worst ratings, single vendor):")
			result.Haters.Render(out)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Fanboys (only best ratings, single vendor):")
			result.Fanboys.Render(out)
			return nil
		},
	}
}
