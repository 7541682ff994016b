// Package query runs the ad-hoc threshold queries over the pivot output and
// shapes the hits into tabular frames. The two canned scenarios surface
// "concentrated" reviewers: accounts whose reviews all target a single
// vendor with a uniform extreme rating.
package query

import (
	"context"
	"fmt"

	"github.com/reviewlens/reviewlens/internal/docstore"
	"github.com/reviewlens/reviewlens/internal/reviews"
)

// Searcher is the slice of the store client the query service needs.
type Searcher interface {
	Search(ctx context.Context, collection string, q docstore.Query) (*docstore.SearchResult, error)
}

type Service struct {
	store  Searcher
	source string
	pivot  string
}

// NewService returns a query service reading pivot results from the pivot
// collection and drilling back into the source collection for raw reviews.
func NewService(store Searcher, source, pivot string) *Service {
	return &Service{store: store, source: source, pivot: pivot}
}

var pivotColumns = []string{
	reviews.FieldAvgRating,
	reviews.FieldDistinctVendors,
	reviews.FieldReviewCount,
}

var sourceColumns = []string{
	reviews.FieldReviewer,
	reviews.FieldVendor,
	reviews.FieldDate,
	reviews.FieldRating,
}

// ConcentratedReviewers finds reviewers whose reviews all hit one vendor
// (dc_vendorId = 1), number more than minReviews, and average exactly
// rating; sorted by review count descending and indexed by reviewer.
func (s *Service) ConcentratedReviewers(ctx context.Context, rating, minReviews, limit int) (*Frame, error) {
	q := docstore.Query{
		Filter: []docstore.Predicate{
			{Field: reviews.FieldDistinctVendors, Op: docstore.OpEq, Value: 1},
			{Field: reviews.FieldReviewCount, Op: docstore.OpGt, Value: minReviews},
			{Field: reviews.FieldAvgRating, Op: docstore.OpEq, Value: rating},
		},
		SortBy: reviews.FieldReviewCount,
		Order:  docstore.SortDesc,
		Limit:  limit,
	}

	result, err := s.store.Search(ctx, s.pivot, q)
	if err != nil {
		return nil, fmt.Errorf("querying concentrated reviewers (rating=%d): %w", rating, err)
	}
	return frameFromHits(result.Hits, pivotColumns, reviews.FieldReviewer), nil
}

// Haters returns single-vendor reviewers with uniformly minimal ratings.
func (s *Service) Haters(ctx context.Context, minReviews, limit int) (*Frame, error) {
	return s.ConcentratedReviewers(ctx, reviews.MinRating, minReviews, limit)
}

// Fanboys returns single-vendor reviewers with uniformly maximal ratings.
func (s *Service) Fanboys(ctx context.Context, minReviews, limit int) (*Frame, error) {
	return s.ConcentratedReviewers(ctx, reviews.MaxRating, minReviews, limit)
}

// ReviewerHistory drills back into the raw source collection for a single
// reviewer's reviews, in arrival order, with a positional index.
func (s *Service) ReviewerHistory(ctx context.Context, reviewerID string, limit int) (*Frame, error) {
	q := docstore.Query{
		Filter: []docstore.Predicate{
			{Field: reviews.FieldReviewer, Op: docstore.OpEq, Value: reviewerID},
		},
		Limit: limit,
	}

	result, err := s.store.Search(ctx, s.source, q)
	if err != nil {
		return nil, fmt.Errorf("querying reviews of %s: %w", reviewerID, err)
	}
	return frameFromHits(result.Hits, sourceColumns, ""), nil
}
