package rest

import (
	"github.com/reviewlens/reviewlens/internal/runstore"
)

func ToRunResponse(run *runstore.Run) RunResponse {
	return RunResponse{
		RunID:         run.ID.String(),
		Status:        string(run.Status),
		Inputs:        run.Inputs,
		SourceRecords: run.SourceRecords,
		PivotGroups:   run.PivotGroups,
		Progress: ProgressInfo{
			TotalDocs:     run.ProgressTotal,
			DocsRemaining: run.ProgressRemaining,
			Percent:       run.ProgressPercent,
		},
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

func ToRunErrorInfo(e *runstore.RunError) RunErrorInfo {
	return RunErrorInfo{
		Stage:     e.Stage,
		Message:   e.Message,
		Timestamp: e.CreatedAt,
	}
}
