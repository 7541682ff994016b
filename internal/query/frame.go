package query

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"

	"github.com/reviewlens/reviewlens/internal/docstore"
)

const nullValue = "<nil>"

// Frame is an ordered, tabular record set. When indexed, each row carries a
// label (the group key of the hit it came from); otherwise rows are labeled
// by position.
type Frame struct {
	Columns []string   `json:"columns"`
	Index   []string   `json:"index"`
	Rows    [][]any    `json:"rows"`
	indexed bool
}

// frameFromHits projects each hit's fields into a row, in hit order.
// If indexField is non-empty its value labels the row and the remaining
// columns are projected; otherwise the label is the row position.
func frameFromHits(hits []docstore.Document, columns []string, indexField string) *Frame {
	f := &Frame{
		Columns: columns,
		Index:   make([]string, 0, len(hits)),
		Rows:    make([][]any, 0, len(hits)),
		indexed: indexField != "",
	}

	for i, hit := range hits {
		label := fmt.Sprintf("%d", i)
		if f.indexed {
			label = fmt.Sprintf("%v", hit[indexField])
		}

		row := make([]any, len(columns))
		for j, col := range columns {
			if v, ok := hit[col]; ok {
				row[j] = v
			}
		}

		f.Index = append(f.Index, label)
		f.Rows = append(f.Rows, row)
	}
	return f
}

// FrameFromDocuments builds a frame over arbitrary documents, such as pivot
// job preview samples.
func FrameFromDocuments(docs []docstore.Document, columns []string, indexField string) *Frame {
	return frameFromHits(docs, columns, indexField)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Row returns the values of the row labeled by index, or nil when absent.
func (f *Frame) Row(index string) []any {
	for i, label := range f.Index {
		if label == index {
			return f.Rows[i]
		}
	}
	return nil
}

// Render writes the frame as a table. Nil cells render as a null marker;
// go-pretty does not expect nil values in rows.
func (f *Frame) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	// Keep header values as-is instead of uppercasing them.
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, 0, len(f.Columns)+1)
	header = append(header, "")
	for _, col := range f.Columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for i, row := range f.Rows {
		line := make(table.Row, 0, len(row)+1)
		line = append(line, f.Index[i])
		for _, v := range row {
			if v == nil {
				v = nullValue
			}
			line = append(line, v)
		}
		t.AppendRow(line)
	}
	t.Render()
}
