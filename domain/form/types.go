package form

import (
	"fmt"
	"strings"
)

// Operation tags a validated record as an insert or update intent
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
)

// ParseOperation resolves an operation cell value case-insensitively.
// Plural sheet-style names ("inserts", "updates") are accepted as well.
func ParseOperation(raw string) (Operation, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "insert", "inserts":
		return OperationInsert, true
	case "update", "updates":
		return OperationUpdate, true
	}
	return "", false
}

// EntityKey identifies one logical record across runs
type EntityKey struct {
	OutputFileKey string `json:"outputFileKey" yaml:"outputFileKey"`
	RecordNumber  string `json:"recordNumber" yaml:"recordNumber"`
}

// String returns the ledger form of the key
func (k EntityKey) String() string {
	return fmt.Sprintf("%s-%s", k.OutputFileKey, k.RecordNumber)
}

// Meta identifies which output document and changeset a record belongs to
type Meta struct {
	Operation     Operation `json:"operation" yaml:"operation"`
	OutputFileKey string    `json:"outputFileKey" yaml:"outputFileKey" col:"fileName" validate:"required"`
	ChangesetID   string    `json:"changesetId" yaml:"changesetId" col:"changeSetId" validate:"required"`
	Sheet         string    `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	RowNumber     int       `json:"rowNumber" yaml:"rowNumber"`
}

// Attribute is a named document value. Value is one of string, bool,
// []string or SortKey.
type Attribute struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

// Record is the sum of InsertRecord and UpdateRecord
type Record interface {
	RecordMeta() Meta
	Key() EntityKey
	Identifier() string
	isRecord()
}

// InsertRecord carries the full state of a new form
type InsertRecord struct {
	Meta           `json:"meta" yaml:"meta"`
	FormNbr        string      `json:"formNbr" yaml:"formNbr" validate:"required"`
	FormName       string      `json:"formName" yaml:"formName" validate:"required"`
	EffectiveDate  string      `json:"effectiveDate" yaml:"effectiveDate" validate:"required"`
	ExpirationDate string      `json:"expirationDate" yaml:"expirationDate" validate:"required"`
	RecipientTypes []string    `json:"rcpType" yaml:"rcpType" validate:"required,min=1"`
	SortKey        *SortKey    `json:"srtKey" yaml:"srtKey" validate:"required"`
	EditionDate    string      `json:"editionDt,omitempty" yaml:"editionDt,omitempty"`
	LineOfBusiness string      `json:"lob,omitempty" yaml:"lob,omitempty"`
	Indicators     []Attribute `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	Attributes     []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

func (r InsertRecord) RecordMeta() Meta   { return r.Meta }
func (r InsertRecord) Identifier() string { return r.FormNbr }
func (r InsertRecord) Key() EntityKey {
	return EntityKey{OutputFileKey: r.OutputFileKey, RecordNumber: r.FormNbr}
}
func (InsertRecord) isRecord() {}

// WithoutDynamic returns a copy of the record without the dynamic
// attributes at the given positions.
func (r InsertRecord) WithoutDynamic(drop map[int]bool) InsertRecord {
	r.Attributes = withoutPositions(r.Attributes, drop)
	return r
}

// UpdateRecord carries only the attributes that change for an existing form
type UpdateRecord struct {
	Meta    `json:"meta" yaml:"meta"`
	FormNbr string `json:"formNbr" yaml:"formNbr" validate:"required"`
	// Changes holds values from recognised columns, in canonical order
	Changes []Attribute `json:"changes,omitempty" yaml:"changes,omitempty"`
	// Attributes holds values from non-reserved columns, in column order
	Attributes []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	// Explicit holds pairs from the attributesToUpdate column; they win over columns
	Explicit []Attribute `json:"explicit,omitempty" yaml:"explicit,omitempty"`
}

func (r UpdateRecord) RecordMeta() Meta   { return r.Meta }
func (r UpdateRecord) Identifier() string { return r.FormNbr }
func (r UpdateRecord) Key() EntityKey {
	return EntityKey{OutputFileKey: r.OutputFileKey, RecordNumber: r.FormNbr}
}
func (UpdateRecord) isRecord() {}

// WithoutDynamic returns a copy without the dynamic attributes at the given positions
func (r UpdateRecord) WithoutDynamic(drop map[int]bool) UpdateRecord {
	r.Attributes = withoutPositions(r.Attributes, drop)
	return r
}

// AttributesToUpdate merges column changes, dynamic attributes and explicit
// pairs into one ordered list. A later value for a name replaces the earlier
// one in place.
func (r UpdateRecord) AttributesToUpdate() []Attribute {
	merged := make([]Attribute, 0, len(r.Changes)+len(r.Attributes)+len(r.Explicit))
	index := make(map[string]int)
	for _, group := range [][]Attribute{r.Changes, r.Attributes, r.Explicit} {
		for _, a := range group {
			if i, ok := index[a.Name]; ok {
				merged[i] = a
				continue
			}
			index[a.Name] = len(merged)
			merged = append(merged, a)
		}
	}
	return merged
}

// DynamicAttributes returns the non-reserved attributes a record carries,
// in column order, repeats included.
func DynamicAttributes(rec Record) []Attribute {
	switch r := rec.(type) {
	case InsertRecord:
		return r.Attributes
	case UpdateRecord:
		return r.Attributes
	}
	return nil
}

// WithoutDynamic drops dynamic attributes by position from either record kind
func WithoutDynamic(rec Record, drop map[int]bool) Record {
	if len(drop) == 0 {
		return rec
	}
	switch r := rec.(type) {
	case InsertRecord:
		return r.WithoutDynamic(drop)
	case UpdateRecord:
		return r.WithoutDynamic(drop)
	}
	return rec
}

func withoutPositions(attrs []Attribute, drop map[int]bool) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for i, a := range attrs {
		if drop[i] {
			continue
		}
		out = append(out, a)
	}
	return out
}
