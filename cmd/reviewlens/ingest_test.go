package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reviewlens/reviewlens/internal/docstore"
)

// newFakeStoreServer serves just enough of the store API for an ingest:
// collection create/delete, bulk writes, flush, and count.
func newFakeStoreServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	stored := 0
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("PUT /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /collections/{name}/bulk", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Docs []docstore.Document `json:"docs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		stored += len(body.Docs)
		json.NewEncoder(w).Encode(docstore.BulkReport{Accepted: len(body.Docs)})
	})
	mux.HandleFunc("POST /collections/{name}/flush", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /collections/{name}/count", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"count": stored})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &stored
}

func writeTestConfig(t *testing.T, storeURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reviewlens.yaml")
	content := fmt.Sprintf("store:\n  base_url: %s\npipeline:\n  batch_size: 10\nlogging:\n  level: error\n", storeURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeTestReviews(t *testing.T, rows int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.csv")
	var sb strings.Builder
	sb.WriteString("reviewerId,vendorId,date,rating\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "reviewer-%d,vendor-%d,2019-07-%02d 10:30,%d\n", i, i%3, i%27+1, i%6)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestIngestCommandSummary(t *testing.T) {
	server, stored := newFakeStoreServer(t)
	cfgPath := writeTestConfig(t, server.URL)
	csvPath := writeTestReviews(t, 25)

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"ingest", "--config", cfgPath, csvPath})

	require.NoError(t, root.Execute())
	require.Equal(t, 25, *stored)

	summary := out.String()
	require.Contains(t, summary, "Ingested 25 records from 1 files in 3 batches")
	require.Contains(t, summary, "reviews now holds 25 documents")
	// The file count is a number, never the path list itself.
	require.NotContains(t, summary, csvPath)
}
