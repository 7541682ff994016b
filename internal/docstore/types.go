package docstore

// Document is a single store record, keyed by field name.
type Document map[string]any

// FieldType enumerates the scalar types a collection schema can declare.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInt       FieldType = "int"
	FieldTypeFloat     FieldType = "float"
	FieldTypeTimestamp FieldType = "timestamp"
)

type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema declares the typed fields of a collection. The store rejects
// documents whose values do not match the declared field types.
type Schema struct {
	Fields []Field `json:"fields"`
}

// BulkReport is the per-record success/failure report returned by a bulk write.
type BulkReport struct {
	Accepted int           `json:"accepted"`
	Failed   int           `json:"failed"`
	Failures []BulkFailure `json:"failures,omitempty"`
}

type BulkFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// AggType enumerates the aggregations a pivot job can compute per group.
type AggType string

const (
	AggMean          AggType = "mean"
	AggDistinctCount AggType = "distinct_count"
	AggCount         AggType = "count"
)

// Aggregation is one named aggregation inside a pivot job specification.
// Field is empty for AggCount, which counts records rather than values.
type Aggregation struct {
	Type  AggType `json:"type"`
	Field string  `json:"field,omitempty"`
}

// JobSpec describes a pivot job: scan Source, group by GroupBy, compute
// Aggregations per group, write one document per group to Destination.
// It is a value object and is never mutated after submission.
type JobSpec struct {
	Source       string                 `json:"source"`
	Destination  string                 `json:"destination"`
	GroupBy      string                 `json:"group_by"`
	Aggregations map[string]Aggregation `json:"aggregations"`
}

// TaskState is the server-reported lifecycle state of a pivot job.
type TaskState string

const (
	TaskStateCreated TaskState = "created"
	TaskStateRunning TaskState = "running"
	TaskStateStopped TaskState = "stopped"
)

// Progress carries the job's scan counters. The store may omit it on
// polls issued before the job has started scanning.
type Progress struct {
	TotalDocs       int64   `json:"total_docs"`
	DocsRemaining   int64   `json:"docs_remaining"`
	PercentComplete float64 `json:"percent_complete"`
}

type JobStatus struct {
	Name     string    `json:"name"`
	State    TaskState `json:"state"`
	Progress *Progress `json:"progress,omitempty"`
}

// PreviewResult is a bounded sample of the output a job spec would produce.
type PreviewResult struct {
	Sample []Document `json:"sample"`
}

// Op enumerates the predicate operators the store's filter language supports.
type Op string

const (
	OpEq Op = "eq"
	OpGt Op = "gt"
	OpLt Op = "lt"
)

type Predicate struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query is a conjunctive filter with an optional sort and a result cap.
// An empty SortBy returns hits in arrival order.
type Query struct {
	Filter []Predicate `json:"filter"`
	SortBy string      `json:"sort_by,omitempty"`
	Order  SortOrder   `json:"order,omitempty"`
	Limit  int         `json:"limit"`
}

type SearchResult struct {
	Hits  []Document `json:"hits"`
	Total int64      `json:"total"`
}
