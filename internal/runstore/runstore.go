// Package runstore persists pipeline run history: one row per end-to-end
// run with its counters and terminal status, plus per-run error records.
package runstore

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Run is one end-to-end pipeline execution. The progress counters mirror the
// store's last reported pivot job progress.
type Run struct {
	ID     uuid.UUID
	Status Status
	Inputs []string

	SourceRecords int64
	PivotGroups   int64

	ProgressTotal     int64
	ProgressRemaining int64
	ProgressPercent   float64

	StartedAt  time.Time
	FinishedAt *time.Time
}

type RunError struct {
	RunID     uuid.UUID
	Stage     string
	Message   string
	CreatedAt time.Time
}

// Store is the run history storage contract. GetRun returns (nil, nil) for
// an unknown run ID.
type Store interface {
	SaveRun(run *Run) error
	UpdateRun(run *Run) error
	GetRun(id uuid.UUID) (*Run, error)
	ListRuns() ([]*Run, error)
	AddError(runID uuid.UUID, stage, message string) error
	ListErrors(runID uuid.UUID) ([]*RunError, error)
}
