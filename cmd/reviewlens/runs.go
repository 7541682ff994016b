package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/spf13/cobra"

	"github.com/reviewlens/reviewlens/internal/runstore"
)

func newRunsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Args:  cobra.NoArgs,
		Short: "List past pipeline runs",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}

			store, err := runstore.Open(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(c.OutOrStdout())
			t.Style().Format.Header = text.FormatDefault
			t.AppendHeader(table.Row{"run_id", "status", "started", "finished", "records", "groups", "percent"})

			for _, run := range runs {
				finished := ""
				if run.FinishedAt != nil {
					finished = run.FinishedAt.Format(time.RFC3339)
				}
				t.AppendRow(table.Row{
					run.ID.String(),
					string(run.Status),
					run.StartedAt.Format(time.RFC3339),
					finished,
					run.SourceRecords,
					run.PivotGroups,
					fmt.Sprintf("%.1f%%", run.ProgressPercent),
				})
			}
			t.Render()
			return nil
		},
	}
}
