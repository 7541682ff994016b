// Package rest exposes the pipeline over HTTP: trigger a run, watch its
// progress, and inspect its errors. Runs execute asynchronously; the trigger
// endpoint returns as soon as the run is registered.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/reviewlens/reviewlens/internal/runstore"
	"github.com/reviewlens/reviewlens/internal/shared/config"
	"github.com/reviewlens/reviewlens/internal/shared/logging"
)

// Pipeline launches pipeline runs. Satisfied by runner.Runner.
type Pipeline interface {
	NewRun(inputs []string) (*runstore.Run, error)
	Run(ctx context.Context, run *runstore.Run)
}

type API struct {
	pipeline Pipeline
	runs     runstore.Store
	logger   logging.Logger
}

func NewAPI(pipeline Pipeline, runs runstore.Store, logger logging.Logger) *API {
	return &API{
		pipeline: pipeline,
		runs:     runs,
		logger:   logger,
	}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/runs", a.triggerRun)
	mux.HandleFunc("GET /api/runs", a.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", a.getRun)
	mux.HandleFunc("GET /api/runs/{id}/errors", a.getRunErrors)
}

func (a *API) triggerRun(w http.ResponseWriter, r *http.Request) {
	var req TriggerRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if len(req.Inputs) == 0 {
		a.respondError(w, http.StatusBadRequest, "validation failed", "at least one input path is required")
		return
	}

	run, err := a.pipeline.NewRun(req.Inputs)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to register run", err.Error())
		return
	}

	// The request context dies with the response; the run must not.
	go a.pipeline.Run(context.Background(), run)

	a.respondJSON(w, http.StatusAccepted, TriggerRunResponse{
		RunID:       run.ID.String(),
		Status:      string(run.Status),
		SubmittedAt: run.StartedAt,
		Links: Links{
			Self: fmt.Sprintf("/api/runs/%s", run.ID),
		},
	})
}

func (a *API) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.runs.ListRuns()
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to list runs", err.Error())
		return
	}

	limit := len(runs)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l >= 0 && l < limit {
			limit = l
		}
	}

	resp := ListRunsResponse{
		Runs:  make([]RunResponse, 0, limit),
		Total: len(runs),
	}
	for _, run := range runs[:limit] {
		resp.Runs = append(resp.Runs, ToRunResponse(run))
	}

	a.respondJSON(w, http.StatusOK, resp)
}

func (a *API) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	a.respondJSON(w, http.StatusOK, ToRunResponse(run))
}

func (a *API) getRunErrors(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}

	errs, err := a.runs.ListErrors(run.ID)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to list run errors", err.Error())
		return
	}

	resp := RunErrorsResponse{Errors: make([]RunErrorInfo, 0, len(errs))}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, ToRunErrorInfo(e))
	}

	a.respondJSON(w, http.StatusOK, resp)
}

func (a *API) lookupRun(w http.ResponseWriter, r *http.Request) (*runstore.Run, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid run ID", err.Error())
		return nil, false
	}

	run, err := a.runs.GetRun(id)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "failed to load run", err.Error())
		return nil, false
	}
	if run == nil {
		a.respondError(w, http.StatusNotFound, "run not found", "")
		return nil, false
	}
	return run, true
}

func (a *API) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (a *API) respondError(w http.ResponseWriter, statusCode int, error string, message string) {
	resp := ErrorResponse{
		Error:   error,
		Message: message,
		Code:    statusCode,
	}
	a.respondJSON(w, statusCode, resp)
}

const (
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

func NewServer(cfg config.ServerConfig, api *API, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	handler := ChainMiddleware(
		mux,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		RequestIDMiddleware,
	)

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	idleTimeout := cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}
