package rest

import (
	"time"
)

type TriggerRunRequest struct {
	Inputs []string `json:"inputs"`
}

type TriggerRunResponse struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	Links       Links     `json:"links"`
}

type Links struct {
	Self string `json:"self"`
}

type RunResponse struct {
	RunID         string       `json:"run_id"`
	Status        string       `json:"status"`
	Inputs        []string     `json:"inputs"`
	SourceRecords int64        `json:"source_records"`
	PivotGroups   int64        `json:"pivot_groups"`
	Progress      ProgressInfo `json:"progress"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
}

type ProgressInfo struct {
	TotalDocs     int64   `json:"total_docs"`
	DocsRemaining int64   `json:"docs_remaining"`
	Percent       float64 `json:"percent"`
}

type ListRunsResponse struct {
	Runs  []RunResponse `json:"runs"`
	Total int           `json:"total"`
}

type RunErrorInfo struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type RunErrorsResponse struct {
	Errors []RunErrorInfo `json:"errors"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
