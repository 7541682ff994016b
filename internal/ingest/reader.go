package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reviewlens/reviewlens/internal/reviews"
)

// RowError describes a malformed input row or header.
type RowError struct {
	File   string
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// ExpandInputs resolves glob patterns to regular files.
func ExpandInputs(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding pattern %q: %w", pattern, err)
		}
		for _, name := range matches {
			info, err := os.Lstat(name)
			if err != nil {
				continue
			}
			if info.Mode().IsRegular() {
				files = append(files, name)
			}
		}
	}
	return files, nil
}

// columnIndex resolves the positions of the required review columns in the
// CSV header, case-sensitively.
type columnIndex struct {
	reviewer int
	vendor   int
	date     int
	rating   int
}

func resolveColumns(file string, header []string) (columnIndex, error) {
	idx := columnIndex{reviewer: -1, vendor: -1, date: -1, rating: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case reviews.FieldReviewer:
			idx.reviewer = i
		case reviews.FieldVendor:
			idx.vendor = i
		case reviews.FieldDate:
			idx.date = i
		case reviews.FieldRating:
			idx.rating = i
		}
	}

	missing := []string{}
	if idx.reviewer < 0 {
		missing = append(missing, reviews.FieldReviewer)
	}
	if idx.vendor < 0 {
		missing = append(missing, reviews.FieldVendor)
	}
	if idx.date < 0 {
		missing = append(missing, reviews.FieldDate)
	}
	if idx.rating < 0 {
		missing = append(missing, reviews.FieldRating)
	}
	if len(missing) > 0 {
		return idx, &RowError{
			File:   file,
			Line:   1,
			Reason: "header is missing columns: " + strings.Join(missing, ", "),
		}
	}
	return idx, nil
}

// forEachReview streams the reviews in a CSV file, decompressing it when the
// name carries a .gz suffix, and calls fn for each parsed record in order.
// A non-nil error from fn stops the scan.
func forEachReview(path string, fn func(reviews.Review) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		reader = gz
	}

	cr := csv.NewReader(reader)
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("reading CSV header of %s: %w", path, err)
	}
	cols, err := resolveColumns(path, header)
	if err != nil {
		return err
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &RowError{File: path, Line: line, Reason: err.Error()}
		}

		review, err := parseRow(path, line, cols, row)
		if err != nil {
			return err
		}
		if err := fn(review); err != nil {
			return err
		}
	}
}

func parseRow(file string, line int, cols columnIndex, row []string) (reviews.Review, error) {
	var rec reviews.Review

	max := cols.reviewer
	for _, i := range []int{cols.vendor, cols.date, cols.rating} {
		if i > max {
			max = i
		}
	}
	if len(row) <= max {
		return rec, &RowError{File: file, Line: line, Reason: fmt.Sprintf("expected at least %d columns, got %d", max+1, len(row))}
	}

	rating, err := strconv.Atoi(strings.TrimSpace(row[cols.rating]))
	if err != nil {
		return rec, &RowError{File: file, Line: line, Reason: fmt.Sprintf("rating %q is not an integer", row[cols.rating])}
	}

	date, err := time.Parse(reviews.DateLayout, strings.TrimSpace(row[cols.date]))
	if err != nil {
		return rec, &RowError{File: file, Line: line, Reason: fmt.Sprintf("date %q does not match %q", row[cols.date], reviews.DateLayout)}
	}

	rec = reviews.Review{
		ReviewerID: strings.TrimSpace(row[cols.reviewer]),
		VendorID:   strings.TrimSpace(row[cols.vendor]),
		Date:       date,
		Rating:     rating,
	}
	return rec, nil
}
