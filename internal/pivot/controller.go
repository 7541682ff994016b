// Package pivot drives the lifecycle of a server-side pivot job: preview,
// (re)create, start, and poll to completion. The store runs the job; this
// controller only sequences the transitions and watches progress.
package pivot

import (
	"context"
	"fmt"
	"time"

	"github.com/reviewlens/reviewlens/internal/docstore"
	"github.com/reviewlens/reviewlens/internal/shared/logging"
)

// State is the controller's view of the job lifecycle.
// not-created -> created (Recreate) -> running (Start) -> stopped (Poll).
// There is no pause or resume; re-running requires Recreate.
type State string

const (
	StateNotCreated State = "not-created"
	StateCreated    State = "created"
	StateRunning    State = "running"
	StateStopped    State = "stopped"
)

// Store is the slice of the store client the controller needs.
type Store interface {
	DeleteCollection(ctx context.Context, name string) error
	CreateCollection(ctx context.Context, name string, schema docstore.Schema) error
	PreviewJob(ctx context.Context, spec docstore.JobSpec) (*docstore.PreviewResult, error)
	CreateJob(ctx context.Context, name string, spec docstore.JobSpec) error
	DeleteJob(ctx context.Context, name string) error
	StopJob(ctx context.Context, name string) error
	StartJob(ctx context.Context, name string) error
	JobStatus(ctx context.Context, name string) (*docstore.JobStatus, error)
}

// PollPolicy bounds the status poll loop. A zero Deadline or MaxAttempts
// disables that bound; the context still applies either way.
type PollPolicy struct {
	Interval    time.Duration
	Deadline    time.Duration
	MaxAttempts int
}

// ProgressFunc observes the progress counters carried by a status poll.
type ProgressFunc func(docstore.Progress)

type Controller struct {
	store      Store
	name       string
	spec       docstore.JobSpec
	destSchema docstore.Schema
	state      State
	logger     logging.Logger
}

func NewController(store Store, name string, spec docstore.JobSpec, destSchema docstore.Schema, logger logging.Logger) *Controller {
	return &Controller{
		store:      store,
		name:       name,
		spec:       spec,
		destSchema: destSchema,
		state:      StateNotCreated,
		logger:     logger,
	}
}

func (c *Controller) State() State {
	return c.state
}

// Preview returns a bounded sample of the job's would-be output without
// persisting anything. Used for validation before committing resources.
func (c *Controller) Preview(ctx context.Context) ([]docstore.Document, error) {
	result, err := c.store.PreviewJob(ctx, c.spec)
	if err != nil {
		return nil, fmt.Errorf("previewing job %s: %w", c.name, err)
	}
	return result.Sample, nil
}

// Recreate tears down any prior run of the job and registers it afresh: the
// running job is stopped, the definition and the destination collection are
// deleted, and both are recreated. "Not found" from any teardown step means
// the resource never existed and is treated as success.
func (c *Controller) Recreate(ctx context.Context) error {
	if err := ignoreNotFound(c.store.StopJob(ctx, c.name)); err != nil {
		return fmt.Errorf("stopping prior job %s: %w", c.name, err)
	}
	if err := ignoreNotFound(c.store.DeleteJob(ctx, c.name)); err != nil {
		return fmt.Errorf("deleting prior job %s: %w", c.name, err)
	}
	if err := ignoreNotFound(c.store.DeleteCollection(ctx, c.spec.Destination)); err != nil {
		return fmt.Errorf("deleting destination collection %s: %w", c.spec.Destination, err)
	}

	if err := c.store.CreateCollection(ctx, c.spec.Destination, c.destSchema); err != nil {
		return fmt.Errorf("creating destination collection %s: %w", c.spec.Destination, err)
	}
	if err := c.store.CreateJob(ctx, c.name, c.spec); err != nil {
		return fmt.Errorf("creating job %s: %w", c.name, err)
	}

	c.state = StateCreated
	c.logger.Info("Pivot job registered",
		"job", c.name,
		"source", c.spec.Source,
		"destination", c.spec.Destination,
		"group_by", c.spec.GroupBy,
	)
	return nil
}

// Start transitions the job from created to running. The store begins
// scanning the source collection and writing grouped results.
func (c *Controller) Start(ctx context.Context) error {
	if c.state != StateCreated {
		return fmt.Errorf("cannot start job %s from state %s", c.name, c.state)
	}
	if err := c.store.StartJob(ctx, c.name); err != nil {
		return fmt.Errorf("starting job %s: %w", c.name, err)
	}
	c.state = StateRunning
	c.logger.Info("Pivot job started", "job", c.name)
	return nil
}

// Poll queries job status at policy.Interval until the store reports task
// state "stopped". Completion is authoritative on the reported state alone:
// a poll observing 100% progress while the state still reads running keeps
// polling, since the two signals may be observed in either order.
//
// Each poll that carries progress is surfaced through onProgress. Poll
// returns the final status, or an error when the context is cancelled, the
// deadline passes, or the attempt budget is exhausted. Aborting the poll
// only stops watching; the server keeps running the job.
func (c *Controller) Poll(ctx context.Context, policy PollPolicy, onProgress ProgressFunc) (*docstore.JobStatus, error) {
	if policy.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if policy.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Deadline)
		defer cancel()
	}

	ticker := time.NewTicker(policy.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		status, err := c.store.JobStatus(ctx, c.name)
		if err != nil {
			return nil, fmt.Errorf("polling job %s: %w", c.name, err)
		}

		if status.Progress != nil {
			c.logger.Info("Pivot job progress",
				"job", c.name,
				"total", status.Progress.TotalDocs,
				"remaining", status.Progress.DocsRemaining,
				"percent", status.Progress.PercentComplete,
			)
			if onProgress != nil {
				onProgress(*status.Progress)
			}
		}

		if status.State == docstore.TaskStateStopped {
			c.state = StateStopped
			c.logger.Info("Pivot job stopped", "job", c.name, "attempts", attempt)
			return status, nil
		}

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return nil, fmt.Errorf("job %s still %s after %d polls", c.name, status.State, attempt)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("polling job %s: %w", c.name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func ignoreNotFound(err error) error {
	if docstore.IsNotFound(err) {
		return nil
	}
	return err
}
