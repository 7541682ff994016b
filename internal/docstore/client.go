// Package docstore is a typed HTTP client for the external document store.
// The store owns all storage, aggregation, and query execution; this client
// only shapes requests and decodes responses. A *Client is an explicit value
// passed to every component that talks to the store.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient returns a client for the store at baseURL. Transport failures
// and non-2xx responses are surfaced immediately; the client never retries.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// errorBody is the JSON error envelope the store attaches to failed requests.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s request", method, path)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrapf(err, "building %s %s request", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(ErrNotFound, "%s %s", method, path)
	}
	if resp.StatusCode/100 != 2 {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Error != "" {
			return errors.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, eb.Error)
		}
		return errors.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

func collectionPath(name string, parts ...string) string {
	p := "/collections/" + url.PathEscape(name)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func jobPath(name string, parts ...string) string {
	p := "/jobs/" + url.PathEscape(name)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// CreateCollection registers a collection with a field-type schema.
func (c *Client) CreateCollection(ctx context.Context, name string, schema Schema) error {
	return c.do(ctx, http.MethodPut, collectionPath(name), schema, nil)
}

// DeleteCollection drops a collection. Returns ErrNotFound (wrapped) if the
// collection does not exist.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, collectionPath(name), nil, nil)
}

// BulkWrite submits docs as a single bulk request and returns the store's
// per-record report. The caller decides whether reported failures are fatal.
func (c *Client) BulkWrite(ctx context.Context, collection string, docs []Document) (*BulkReport, error) {
	body := struct {
		Docs []Document `json:"docs"`
	}{Docs: docs}

	var report BulkReport
	if err := c.do(ctx, http.MethodPost, collectionPath(collection, "bulk"), body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Flush makes all previously written documents visible to counts and reads.
func (c *Client) Flush(ctx context.Context, collection string) error {
	return c.do(ctx, http.MethodPost, collectionPath(collection, "flush"), nil, nil)
}

func (c *Client) Count(ctx context.Context, collection string) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, collectionPath(collection, "count"), nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Search runs a filtered, optionally sorted query against a collection.
func (c *Client) Search(ctx context.Context, collection string, q Query) (*SearchResult, error) {
	var result SearchResult
	if err := c.do(ctx, http.MethodPost, collectionPath(collection, "search"), q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PreviewJob returns a bounded sample of the output spec would produce,
// without persisting anything.
func (c *Client) PreviewJob(ctx context.Context, spec JobSpec) (*PreviewResult, error) {
	var result PreviewResult
	if err := c.do(ctx, http.MethodPost, "/jobs/preview", spec, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateJob registers spec under name. The store rejects duplicate names,
// so callers delete any prior job of the same name first.
func (c *Client) CreateJob(ctx context.Context, name string, spec JobSpec) error {
	return c.do(ctx, http.MethodPut, jobPath(name), spec, nil)
}

// DeleteJob removes a job definition. Returns ErrNotFound (wrapped) if no
// job of that name exists.
func (c *Client) DeleteJob(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, jobPath(name), nil, nil)
}

// StopJob asks the store to stop a running job. Returns ErrNotFound
// (wrapped) if no job of that name exists or it is not running.
func (c *Client) StopJob(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, jobPath(name, "stop"), nil, nil)
}

// StartJob transitions a created job to running.
func (c *Client) StartJob(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, jobPath(name, "start"), nil, nil)
}

// JobStatus reports the job's task state and, while it is scanning,
// its progress counters.
func (c *Client) JobStatus(ctx context.Context, name string) (*JobStatus, error) {
	var status JobStatus
	if err := c.do(ctx, http.MethodGet, jobPath(name), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
