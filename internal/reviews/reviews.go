// Package reviews holds the domain model shared by the ingest, pivot, and
// query components: the review record itself, the field names used in the
// store, and the schemas of the source and pivot collections.
package reviews

import (
	"time"

	"github.com/reviewlens/reviewlens/internal/docstore"
)

// Source collection fields.
const (
	FieldReviewer = "reviewerId"
	FieldVendor   = "vendorId"
	FieldDate     = "date"
	FieldRating   = "rating"
)

// Pivot collection fields, one document per distinct reviewer.
const (
	FieldAvgRating       = "avg_rating"
	FieldDistinctVendors = "dc_vendorId"
	FieldReviewCount     = "count"
)

// DateLayout is the fixed textual timestamp format of the input CSV.
const DateLayout = "2006-01-02 15:04"

// Rating bounds. A group's avg_rating always falls inside them.
const (
	MinRating = 0
	MaxRating = 5
)

// Review is a single product review. Immutable once ingested; owned by the
// store thereafter.
type Review struct {
	ReviewerID string
	VendorID   string
	Date       time.Time
	Rating     int
}

// Document shapes the review for a bulk write.
func (r Review) Document() docstore.Document {
	return docstore.Document{
		FieldReviewer: r.ReviewerID,
		FieldVendor:   r.VendorID,
		FieldDate:     r.Date.Format(DateLayout),
		FieldRating:   r.Rating,
	}
}

// SourceSchema is the field-type schema of the raw reviews collection.
func SourceSchema() docstore.Schema {
	return docstore.Schema{Fields: []docstore.Field{
		{Name: FieldReviewer, Type: docstore.FieldTypeString},
		{Name: FieldVendor, Type: docstore.FieldTypeString},
		{Name: FieldDate, Type: docstore.FieldTypeTimestamp},
		{Name: FieldRating, Type: docstore.FieldTypeInt},
	}}
}

// PivotSchema is the field-type schema of the derived per-reviewer collection.
func PivotSchema() docstore.Schema {
	return docstore.Schema{Fields: []docstore.Field{
		{Name: FieldReviewer, Type: docstore.FieldTypeString},
		{Name: FieldAvgRating, Type: docstore.FieldTypeFloat},
		{Name: FieldDistinctVendors, Type: docstore.FieldTypeInt},
		{Name: FieldReviewCount, Type: docstore.FieldTypeInt},
	}}
}

// PivotSpec builds the job specification that groups reviews by reviewer and
// computes the mean rating, the approximate distinct vendor count, and the
// review count per group.
func PivotSpec(source, destination string) docstore.JobSpec {
	return docstore.JobSpec{
		Source:      source,
		Destination: destination,
		GroupBy:     FieldReviewer,
		Aggregations: map[string]docstore.Aggregation{
			FieldAvgRating:       {Type: docstore.AggMean, Field: FieldRating},
			FieldDistinctVendors: {Type: docstore.AggDistinctCount, Field: FieldVendor},
			FieldReviewCount:     {Type: docstore.AggCount},
		},
	}
}
