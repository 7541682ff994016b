package rest

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reviewlens/reviewlens/internal/runstore"
)

func TestToRunResponse(t *testing.T) {
	started := time.Date(2019, 7, 1, 10, 30, 0, 0, time.UTC)
	finished := started.Add(4 * time.Minute)

	run := &runstore.Run{
		ID:                uuid.New(),
		Status:            runstore.StatusCompleted,
		Inputs:            []string{"data/reviews.csv.gz"},
		SourceRecords:     1000209,
		PivotGroups:       6040,
		ProgressTotal:     1000209,
		ProgressRemaining: 0,
		ProgressPercent:   100,
		StartedAt:         started,
		FinishedAt:        &finished,
	}

	resp := ToRunResponse(run)

	if resp.RunID != run.ID.String() {
		t.Errorf("Expected run ID %s, got %s", run.ID, resp.RunID)
	}
	if resp.Status != "COMPLETED" {
		t.Errorf("Expected status COMPLETED, got %s", resp.Status)
	}
	if resp.SourceRecords != 1000209 {
		t.Errorf("Expected 1000209 source records, got %d", resp.SourceRecords)
	}
	if resp.Progress.Percent != 100 {
		t.Errorf("Expected 100%% progress, got %f", resp.Progress.Percent)
	}
	if resp.FinishedAt == nil || !resp.FinishedAt.Equal(finished) {
		t.Errorf("Expected finished at %v, got %v", finished, resp.FinishedAt)
	}
}

func TestToRunResponseUnfinished(t *testing.T) {
	run := &runstore.Run{
		ID:        uuid.New(),
		Status:    runstore.StatusRunning,
		Inputs:    []string{"data/reviews.csv.gz"},
		StartedAt: time.Now().UTC(),
	}

	resp := ToRunResponse(run)

	if resp.FinishedAt != nil {
		t.Errorf("Expected nil finished time, got %v", resp.FinishedAt)
	}
	if resp.Status != "RUNNING" {
		t.Errorf("Expected status RUNNING, got %s", resp.Status)
	}
}

func TestToRunErrorInfo(t *testing.T) {
	now := time.Now().UTC()
	e := &runstore.RunError{
		RunID:     uuid.New(),
		Stage:     "pivot",
		Message:   "job reviews-pivot still running after 360 polls",
		CreatedAt: now,
	}

	info := ToRunErrorInfo(e)

	if info.Stage != "pivot" {
		t.Errorf("Expected stage pivot, got %s", info.Stage)
	}
	if !info.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, info.Timestamp)
	}
}
