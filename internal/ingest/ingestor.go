// Package ingest loads review CSVs into the document store in fixed-size
// bulk batches. Batches are submitted sequentially, one in flight at a time,
// in source order; any batch failure aborts the ingest.
package ingest

import (
	"context"
	"fmt"

	"github.com/reviewlens/reviewlens/internal/docstore"
	"github.com/reviewlens/reviewlens/internal/reviews"
	"github.com/reviewlens/reviewlens/internal/shared/logging"
)

// BulkWriter is the slice of the store client the ingestor needs.
type BulkWriter interface {
	BulkWrite(ctx context.Context, collection string, docs []docstore.Document) (*docstore.BulkReport, error)
}

// Report summarizes a completed ingest.
type Report struct {
	Files   []string `json:"files"`
	Records int      `json:"records"`
	Batches int      `json:"batches"`
}

type Ingestor struct {
	store      BulkWriter
	collection string
	batchSize  int
	logger     logging.Logger
}

func NewIngestor(store BulkWriter, collection string, batchSize int, logger logging.Logger) *Ingestor {
	return &Ingestor{
		store:      store,
		collection: collection,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Run expands the given glob patterns and loads every matched file. Records
// are batched across file boundaries; the final partial batch is submitted
// once all files are exhausted. For N records and batch size B this issues
// exactly ceil(N/B) bulk writes.
func (ing *Ingestor) Run(ctx context.Context, patterns []string) (*Report, error) {
	files, err := ExpandInputs(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched %v", patterns)
	}

	report := &Report{Files: files}
	batch := make([]docstore.Document, 0, ing.batchSize)

	for _, file := range files {
		ing.logger.Info("Ingesting file", "file", file, "collection", ing.collection)

		err := forEachReview(file, func(r reviews.Review) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			batch = append(batch, r.Document())
			report.Records++
			if len(batch) == ing.batchSize {
				if err := ing.submit(ctx, batch, report.Batches); err != nil {
					return err
				}
				report.Batches++
				batch = batch[:0]
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(batch) > 0 {
		if err := ing.submit(ctx, batch, report.Batches); err != nil {
			return nil, err
		}
		report.Batches++
	}

	ing.logger.Info("Ingest finished",
		"collection", ing.collection,
		"files", len(report.Files),
		"records", report.Records,
		"batches", report.Batches,
	)
	return report, nil
}

// submit issues one bulk write. A store-reported per-record failure fails
// the whole batch; there is no retry or splitting.
func (ing *Ingestor) submit(ctx context.Context, batch []docstore.Document, batchIndex int) error {
	report, err := ing.store.BulkWrite(ctx, ing.collection, batch)
	if err != nil {
		return fmt.Errorf("bulk write of batch %d (%d records): %w", batchIndex, len(batch), err)
	}
	if report.Failed > 0 {
		reason := "unknown"
		if len(report.Failures) > 0 {
			reason = report.Failures[0].Reason
		}
		return fmt.Errorf("bulk write of batch %d rejected %d of %d records: %s",
			batchIndex, report.Failed, len(batch), reason)
	}

	ing.logger.Debug("Batch accepted",
		"collection", ing.collection,
		"batch", batchIndex,
		"records", len(batch),
	)
	return nil
}
