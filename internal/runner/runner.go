// Package runner orchestrates one end-to-end pipeline run: load the review
// CSVs into the source collection, drive the pivot job to completion, and
// execute the canned reviewer queries over its output. Everything is
// synchronous and single-threaded; the only waits are store round-trips and
// the poll interval.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewlens/reviewlens/internal/docstore"
	"github.com/reviewlens/reviewlens/internal/ingest"
	"github.com/reviewlens/reviewlens/internal/pivot"
	"github.com/reviewlens/reviewlens/internal/query"
	"github.com/reviewlens/reviewlens/internal/reviews"
	"github.com/reviewlens/reviewlens/internal/runstore"
	"github.com/reviewlens/reviewlens/internal/shared/config"
	"github.com/reviewlens/reviewlens/internal/shared/logging"
)

// DocStore is the full store client surface the pipeline exercises.
type DocStore interface {
	DeleteCollection(ctx context.Context, name string) error
	CreateCollection(ctx context.Context, name string, schema docstore.Schema) error
	BulkWrite(ctx context.Context, collection string, docs []docstore.Document) (*docstore.BulkReport, error)
	Flush(ctx context.Context, collection string) error
	Count(ctx context.Context, collection string) (int64, error)
	Search(ctx context.Context, collection string, q docstore.Query) (*docstore.SearchResult, error)
	PreviewJob(ctx context.Context, spec docstore.JobSpec) (*docstore.PreviewResult, error)
	CreateJob(ctx context.Context, name string, spec docstore.JobSpec) error
	DeleteJob(ctx context.Context, name string) error
	StopJob(ctx context.Context, name string) error
	StartJob(ctx context.Context, name string) error
	JobStatus(ctx context.Context, name string) (*docstore.JobStatus, error)
}

// Result carries the artifacts of a completed run.
type Result struct {
	Ingest      *ingest.Report
	SourceCount int64
	PivotCount  int64
	Preview     []docstore.Document
	Haters      *query.Frame
	Fanboys     *query.Frame
}

type Runner struct {
	store    DocStore
	runs     runstore.Store
	pipeline config.PipelineConfig
	queries  config.QueryConfig
	logger   logging.Logger
}

func New(store DocStore, runs runstore.Store, pipeline config.PipelineConfig, queries config.QueryConfig, logger logging.Logger) *Runner {
	return &Runner{
		store:    store,
		runs:     runs,
		pipeline: pipeline,
		queries:  queries,
		logger:   logger,
	}
}

// NewRun registers a pending run for the given inputs.
func (r *Runner) NewRun(inputs []string) (*runstore.Run, error) {
	run := &runstore.Run{
		ID:        uuid.New(),
		Status:    runstore.StatusPending,
		Inputs:    inputs,
		StartedAt: time.Now().UTC(),
	}
	if err := r.runs.SaveRun(run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}
	return run, nil
}

// Run executes the pipeline for an already-registered run and logs the
// failure instead of returning it; the outcome lives in the run store.
// Used by the REST service to launch runs asynchronously.
func (r *Runner) Run(ctx context.Context, run *runstore.Run) {
	if _, err := r.Execute(ctx, run); err != nil {
		r.logger.Error("Pipeline run failed", "run_id", run.ID.String(), "error", err)
	}
}

// Execute runs the pipeline for run, updating its status, counters, and
// errors in the run store as stages complete.
func (r *Runner) Execute(ctx context.Context, run *runstore.Run) (*Result, error) {
	r.logger.Info("Starting pipeline run", "run_id", run.ID.String(), "inputs", run.Inputs)

	run.Status = runstore.StatusRunning
	if err := r.runs.UpdateRun(run); err != nil {
		return nil, fmt.Errorf("updating run: %w", err)
	}

	result, err := r.execute(ctx, run)

	now := time.Now().UTC()
	run.FinishedAt = &now
	if err != nil {
		run.Status = runstore.StatusFailed
	} else {
		run.Status = runstore.StatusCompleted
	}
	if uerr := r.runs.UpdateRun(run); uerr != nil {
		r.logger.Error("Failed to update run", "run_id", run.ID.String(), "error", uerr)
	}
	return result, err
}

func (r *Runner) execute(ctx context.Context, run *runstore.Run) (*Result, error) {
	result := &Result{}

	// Source collection: drop any prior copy and recreate with the typed
	// schema so a re-run starts from a clean slate.
	if err := r.recreateSource(ctx); err != nil {
		return nil, r.fail(run, "prepare", err)
	}

	ingestor := ingest.NewIngestor(r.store, r.pipeline.SourceCollection, r.pipeline.BatchSize, r.logger)
	report, err := ingestor.Run(ctx, run.Inputs)
	if err != nil {
		return nil, r.fail(run, "ingest", err)
	}
	result.Ingest = report

	if err := r.store.Flush(ctx, r.pipeline.SourceCollection); err != nil {
		return nil, r.fail(run, "ingest", err)
	}
	result.SourceCount, err = r.store.Count(ctx, r.pipeline.SourceCollection)
	if err != nil {
		return nil, r.fail(run, "ingest", err)
	}
	run.SourceRecords = result.SourceCount
	if err := r.runs.UpdateRun(run); err != nil {
		return nil, r.fail(run, "ingest", err)
	}

	controller := pivot.NewController(
		r.store,
		r.pipeline.JobName,
		reviews.PivotSpec(r.pipeline.SourceCollection, r.pipeline.PivotCollection),
		reviews.PivotSchema(),
		r.logger,
	)

	result.Preview, err = controller.Preview(ctx)
	if err != nil {
		return nil, r.fail(run, "pivot", err)
	}
	if err := controller.Recreate(ctx); err != nil {
		return nil, r.fail(run, "pivot", err)
	}
	if err := controller.Start(ctx); err != nil {
		return nil, r.fail(run, "pivot", err)
	}

	policy := pivot.PollPolicy{
		Interval:    r.pipeline.PollInterval,
		Deadline:    r.pipeline.PollDeadline,
		MaxAttempts: r.pipeline.PollMaxAttempts,
	}
	_, err = controller.Poll(ctx, policy, func(p docstore.Progress) {
		run.ProgressTotal = p.TotalDocs
		run.ProgressRemaining = p.DocsRemaining
		run.ProgressPercent = p.PercentComplete
		if uerr := r.runs.UpdateRun(run); uerr != nil {
			r.logger.Warn("Failed to record progress", "run_id", run.ID.String(), "error", uerr)
		}
	})
	if err != nil {
		return nil, r.fail(run, "pivot", err)
	}

	if err := r.store.Flush(ctx, r.pipeline.PivotCollection); err != nil {
		return nil, r.fail(run, "pivot", err)
	}
	result.PivotCount, err = r.store.Count(ctx, r.pipeline.PivotCollection)
	if err != nil {
		return nil, r.fail(run, "pivot", err)
	}
	run.PivotGroups = result.PivotCount

	queries := query.NewService(r.store, r.pipeline.SourceCollection, r.pipeline.PivotCollection)
	result.Haters, err = queries.Haters(ctx, r.queries.MinReviews, r.queries.ResultLimit)
	if err != nil {
		return nil, r.fail(run, "query", err)
	}
	result.Fanboys, err = queries.Fanboys(ctx, r.queries.MinReviews, r.queries.ResultLimit)
	if err != nil {
		return nil, r.fail(run, "query", err)
	}

	r.logger.Info("Pipeline run completed",
		"run_id", run.ID.String(),
		"source_records", result.SourceCount,
		"pivot_groups", result.PivotCount,
		"haters", result.Haters.Len(),
		"fanboys", result.Fanboys.Len(),
	)
	return result, nil
}

func (r *Runner) recreateSource(ctx context.Context) error {
	err := r.store.DeleteCollection(ctx, r.pipeline.SourceCollection)
	if err != nil && !docstore.IsNotFound(err) {
		return fmt.Errorf("deleting source collection %s: %w", r.pipeline.SourceCollection, err)
	}
	if err := r.store.CreateCollection(ctx, r.pipeline.SourceCollection, reviews.SourceSchema()); err != nil {
		return fmt.Errorf("creating source collection %s: %w", r.pipeline.SourceCollection, err)
	}
	return nil
}

// fail records the stage error against the run and returns it unchanged.
func (r *Runner) fail(run *runstore.Run, stage string, err error) error {
	if serr := r.runs.AddError(run.ID, stage, err.Error()); serr != nil {
		r.logger.Error("Failed to record run error", "run_id", run.ID.String(), "error", serr)
	}
	return fmt.Errorf("%s: %w", stage, err)
}
