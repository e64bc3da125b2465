package form

// RowFailure reports a row that failed validation; the batch continues without it
type RowFailure struct {
	Sheet     string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	RowNumber int    `json:"rowNumber" yaml:"rowNumber"`
	Reason    string `json:"reason" yaml:"reason"`
}

// SkippedRow reports a row whose entity was already emitted by an earlier run
type SkippedRow struct {
	Sheet     string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	RowNumber int    `json:"rowNumber" yaml:"rowNumber"`
	Key       string `json:"key" yaml:"key"`
	Reason    string `json:"reason" yaml:"reason"`
}

// DroppedRecord reports a validated update elided by the merge step
type DroppedRecord struct {
	Sheet     string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	RowNumber int    `json:"rowNumber" yaml:"rowNumber"`
	Key       string `json:"key" yaml:"key"`
	Reason    string `json:"reason" yaml:"reason"`
}

// Shape names the operation element a document was rendered with
type Shape string

const (
	ShapeSingleInsert Shape = "single-insert"
	ShapeBulkInsert   Shape = "bulk-insert"
	ShapeSingleUpdate Shape = "single-update"
	ShapeBulkUpdate   Shape = "bulk-update"
)

// GeneratedDocument describes one written changelog file
type GeneratedDocument struct {
	Path        string    `json:"path" yaml:"path"`
	FileName    string    `json:"fileName" yaml:"fileName"`
	ChangesetID string    `json:"changesetId" yaml:"changesetId"`
	Operation   Operation `json:"operation" yaml:"operation"`
	Shape       Shape     `json:"shape" yaml:"shape"`
	Keys        []string  `json:"keys" yaml:"keys"`
}

// BatchResult is everything one pipeline invocation reports to its caller
type BatchResult struct {
	BatchID   string              `json:"batchId" yaml:"batchId"`
	Source    string              `json:"source" yaml:"source"`
	Records   []Record            `json:"validatedRecords" yaml:"validatedRecords"`
	Errors    []RowFailure        `json:"errors" yaml:"errors"`
	Skipped   []SkippedRow        `json:"skipped" yaml:"skipped"`
	Dropped   []DroppedRecord     `json:"dropped" yaml:"dropped"`
	Documents []GeneratedDocument `json:"documents" yaml:"documents"`
}

// Accepted is the number of rows that passed normalization and the duplicate guard
func (r *BatchResult) Accepted() int { return len(r.Records) }

// Failed is the number of distinct rows that have at least one failure and
// were not kept. Errors may hold several reasons for one row.
func (r *BatchResult) Failed() int {
	type rowRef struct {
		sheet string
		row   int
	}
	kept := make(map[rowRef]bool, len(r.Records))
	for _, rec := range r.Records {
		meta := rec.RecordMeta()
		kept[rowRef{meta.Sheet, meta.RowNumber}] = true
	}
	failed := make(map[rowRef]bool, len(r.Errors))
	for _, e := range r.Errors {
		if ref := (rowRef{e.Sheet, e.RowNumber}); !kept[ref] {
			failed[ref] = true
		}
	}
	return len(failed)
}

// SkippedCount is the number of rows already present in the ledger
func (r *BatchResult) SkippedCount() int { return len(r.Skipped) }

// Paths lists the generated document paths in generation order
func (r *BatchResult) Paths() []string {
	paths := make([]string, 0, len(r.Documents))
	for _, d := range r.Documents {
		paths = append(paths, d.Path)
	}
	return paths
}
