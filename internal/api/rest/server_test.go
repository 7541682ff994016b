package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reviewlens/reviewlens/internal/runstore"
)

// fakePipeline registers runs in the store and signals when a run launches.
type fakePipeline struct {
	runs     runstore.Store
	launched chan uuid.UUID
}

func newFakePipeline(runs runstore.Store) *fakePipeline {
	return &fakePipeline{
		runs:     runs,
		launched: make(chan uuid.UUID, 1),
	}
}

func (f *fakePipeline) NewRun(inputs []string) (*runstore.Run, error) {
	run := &runstore.Run{
		ID:        uuid.New(),
		Status:    runstore.StatusPending,
		Inputs:    inputs,
		StartedAt: time.Now().UTC(),
	}
	if err := f.runs.SaveRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (f *fakePipeline) Run(ctx context.Context, run *runstore.Run) {
	f.launched <- run.ID
}

func newTestMux(t *testing.T) (*http.ServeMux, runstore.Store, *fakePipeline) {
	t.Helper()
	runs := runstore.NewMemoryStore()
	pipeline := newFakePipeline(runs)
	api := NewAPI(pipeline, runs, newMockLogger())
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	return mux, runs, pipeline
}

func seedRun(t *testing.T, runs runstore.Store, status runstore.Status) *runstore.Run {
	t.Helper()
	run := &runstore.Run{
		ID:            uuid.New(),
		Status:        status,
		Inputs:        []string{"data/reviews.csv.gz"},
		SourceRecords: 1000209,
		PivotGroups:   6040,
		StartedAt:     time.Now().UTC(),
	}
	if err := runs.SaveRun(run); err != nil {
		t.Fatalf("Failed to seed run: %v", err)
	}
	return run
}

func TestTriggerRun(t *testing.T) {
	mux, runs, pipeline := newTestMux(t)

	body, _ := json.Marshal(TriggerRunRequest{Inputs: []string{"data/*.csv.gz"}})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}

	var resp TriggerRunResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.RunID == "" {
		t.Error("Expected run ID to be set")
	}
	if resp.Status != "PENDING" {
		t.Errorf("Expected status PENDING, got %s", resp.Status)
	}
	if !strings.HasPrefix(resp.Links.Self, "/api/runs/") {
		t.Errorf("Expected self link under /api/runs/, got %s", resp.Links.Self)
	}

	select {
	case id := <-pipeline.launched:
		if id.String() != resp.RunID {
			t.Errorf("Expected run %s to launch, got %s", resp.RunID, id)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected pipeline run to launch")
	}

	stored, err := runs.GetRun(uuid.MustParse(resp.RunID))
	if err != nil || stored == nil {
		t.Fatalf("Expected run to be stored, got run=%v err=%v", stored, err)
	}
}

func TestTriggerRunValidation(t *testing.T) {
	mux, _, _ := newTestMux(t)

	body, _ := json.Marshal(TriggerRunRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if !strings.Contains(resp.Message, "input path") {
		t.Errorf("Expected message about input paths, got %q", resp.Message)
	}
}

func TestTriggerRunMalformedBody(t *testing.T) {
	mux, _, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetRun(t *testing.T) {
	mux, runs, _ := newTestMux(t)
	run := seedRun(t, runs, runstore.StatusCompleted)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID.String(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp RunResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.RunID != run.ID.String() {
		t.Errorf("Expected run ID %s, got %s", run.ID, resp.RunID)
	}
	if resp.SourceRecords != 1000209 {
		t.Errorf("Expected 1000209 source records, got %d", resp.SourceRecords)
	}
	if resp.PivotGroups != 6040 {
		t.Errorf("Expected 6040 pivot groups, got %d", resp.PivotGroups)
	}
}

func TestGetRunNotFound(t *testing.T) {
	mux, _, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetRunInvalidID(t *testing.T) {
	mux, _, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/not-a-uuid", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestListRuns(t *testing.T) {
	mux, runs, _ := newTestMux(t)
	seedRun(t, runs, runstore.StatusCompleted)
	second := seedRun(t, runs, runstore.StatusRunning)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp ListRunsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("Expected 2 runs, got %d", resp.Total)
	}
	if len(resp.Runs) != 2 {
		t.Fatalf("Expected 2 runs in response, got %d", len(resp.Runs))
	}
	if resp.Runs[0].RunID != second.ID.String() {
		t.Errorf("Expected most recent run first, got %s", resp.Runs[0].RunID)
	}
}

func TestListRunsLimit(t *testing.T) {
	mux, runs, _ := newTestMux(t)
	seedRun(t, runs, runstore.StatusCompleted)
	seedRun(t, runs, runstore.StatusCompleted)
	seedRun(t, runs, runstore.StatusRunning)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	var resp ListRunsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("Expected total 3, got %d", resp.Total)
	}
	if len(resp.Runs) != 2 {
		t.Errorf("Expected 2 runs in response, got %d", len(resp.Runs))
	}
}

func TestGetRunErrors(t *testing.T) {
	mux, runs, _ := newTestMux(t)
	run := seedRun(t, runs, runstore.StatusFailed)
	if err := runs.AddError(run.ID, "ingest", "rating \"abc\" is not an integer"); err != nil {
		t.Fatalf("Failed to seed error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID.String()+"/errors", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp RunErrorsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(resp.Errors))
	}
	if resp.Errors[0].Stage != "ingest" {
		t.Errorf("Expected stage ingest, got %s", resp.Errors[0].Stage)
	}
}

func TestGetRunErrorsUnknownRun(t *testing.T) {
	mux, _, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+uuid.New().String()+"/errors", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
