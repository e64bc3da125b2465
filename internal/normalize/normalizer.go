package normalize

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"liquigen/domain/form"
	"liquigen/internal/errors"
	"liquigen/internal/logging"
	"liquigen/ports"

	"github.com/go-playground/validator/v10"
)

// UnknownOperationPolicy decides what happens to a non-empty operation cell
// that is neither insert nor update
type UnknownOperationPolicy string

const (
	UnknownOperationReject UnknownOperationPolicy = "reject"
	UnknownOperationInsert UnknownOperationPolicy = "insert"
)

// Config holds normalizer policies
type Config struct {
	UnknownOperation UnknownOperationPolicy
}

// DefaultConfig rejects unrecognised operations
func DefaultConfig() Config {
	return Config{UnknownOperation: UnknownOperationReject}
}

// Outcome is exactly one of Record, Failure or Skipped
type Outcome struct {
	Record  form.Record
	Failure *form.RowFailure
	Skipped *form.SkippedRow
}

// Normalizer turns raw rows into validated insert or update records
type Normalizer struct {
	ledger   ports.LedgerReaderPort
	config   Config
	validate *validator.Validate
}

// NewNormalizer creates a normalizer that consults ledger before accepting a row
func NewNormalizer(ledger ports.LedgerReaderPort, config Config) (*Normalizer, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger dependency is required")
	}
	if config.UnknownOperation == "" {
		config.UnknownOperation = UnknownOperationReject
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if col := fld.Tag.Get("col"); col != "" {
			return col
		}
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	return &Normalizer{ledger: ledger, config: config, validate: v}, nil
}

// SheetOperation infers an operation from a sheet named insert(s) or update(s)
func SheetOperation(sheetName string) (form.Operation, bool) {
	return form.ParseOperation(sheetName)
}

// parsedRow is the intermediate, typed view of one raw row
type parsedRow struct {
	values     map[string]string
	dynamic    []form.Attribute
	sortKey    *form.SortKey
	recipients []string
	flags      []form.Attribute
	problems   []string
	invalid    map[string]bool
}

// Normalize validates one row. hint is the operation implied by the sheet,
// empty when the sheet says nothing. A non-nil error means the ledger could
// not be consulted and the batch must stop.
func (n *Normalizer) Normalize(ctx context.Context, row form.RawRow, hint form.Operation) (Outcome, error) {
	p := parseCells(row.Cells)

	op, opProblem := n.resolveOperation(p.values[ColOperation], hint)
	if opProblem != "" {
		return n.fail(ctx, row, []string{opProblem}), nil
	}

	meta := form.Meta{
		Operation:     op,
		OutputFileKey: p.values[ColFileName],
		ChangesetID:   p.values[ColChangeSetID],
		Sheet:         row.Sheet,
		RowNumber:     row.Number,
	}

	var rec form.Record
	switch op {
	case form.OperationInsert:
		rec = p.insertRecord(meta)
	default:
		rec = p.updateRecord(meta)
	}

	problems := p.problems
	if missing := n.missingFields(rec, p.invalid); len(missing) > 0 {
		problems = append(problems, "Missing required fields: "+strings.Join(missing, ", "))
	}
	if len(problems) > 0 {
		return n.fail(ctx, row, problems), nil
	}

	key := rec.Key().String()
	processed, err := n.ledger.HasBeenProcessed(ctx, key)
	if err != nil {
		return Outcome{}, errors.LedgerFailure("lookup", key, err)
	}
	if processed {
		return Outcome{Skipped: &form.SkippedRow{
			Sheet:     row.Sheet,
			RowNumber: row.Number,
			Key:       key,
			Reason:    fmt.Sprintf("File %q has already been processed.", key),
		}}, nil
	}

	return Outcome{Record: rec}, nil
}

func (n *Normalizer) fail(ctx context.Context, row form.RawRow, problems []string) Outcome {
	reason := strings.Join(problems, "; ")
	logging.FromContext(ctx).Debug().
		Str("sheet", row.Sheet).
		Int("row", row.Number).
		Str("reason", reason).
		Msg("row rejected")
	return Outcome{Failure: &form.RowFailure{Sheet: row.Sheet, RowNumber: row.Number, Reason: reason}}
}

// resolveOperation prefers the operation cell, then the sheet hint, then insert
func (n *Normalizer) resolveOperation(cell string, hint form.Operation) (form.Operation, string) {
	if strings.TrimSpace(cell) == "" {
		if hint != "" {
			return hint, ""
		}
		return form.OperationInsert, ""
	}
	if op, ok := form.ParseOperation(cell); ok {
		return op, ""
	}
	if n.config.UnknownOperation == UnknownOperationInsert {
		return form.OperationInsert, ""
	}
	return "", fmt.Sprintf("Invalid operation %q: expected insert or update", cell)
}

// missingFields lists required columns that are empty, skipping any already
// reported as malformed
func (n *Normalizer) missingFields(rec form.Record, invalid map[string]bool) []string {
	var err error
	switch r := rec.(type) {
	case form.InsertRecord:
		err = n.validate.Struct(r)
	case form.UpdateRecord:
		err = n.validate.Struct(r)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if invalid[fe.Field()] {
			continue
		}
		missing = append(missing, fe.Field())
	}
	return missing
}

// parseCells applies the per-column format rules
func parseCells(cells []form.Cell) *parsedRow {
	p := &parsedRow{
		values:  make(map[string]string),
		invalid: make(map[string]bool),
	}

	for _, cell := range cells {
		col, reserved := CanonicalColumn(cell.Header)
		if !reserved {
			if cell.Value != "" {
				p.dynamic = append(p.dynamic, form.Attribute{Name: cell.Header, Value: cell.Value})
			}
			continue
		}
		if cell.Value == "" || p.values[col] != "" {
			continue
		}

		value := cell.Value
		if dateColumns[col] {
			value = FormatDate(value)
		}
		p.values[col] = value
	}

	if raw := p.values[ColRecipientTypes]; raw != "" {
		p.recipients = SplitList(raw)
	}

	if raw := p.values[ColSortKey]; raw != "" {
		sk, err := form.ParseSortKey(raw)
		if err != nil {
			p.problems = append(p.problems, "Invalid srtKey format: must be exactly 8 digits (e.g., 20500200)")
			p.invalid[ColSortKey] = true
		} else {
			p.sortKey = &sk
		}
	}

	for _, ind := range indicators {
		raw := p.values[ind.Column]
		if raw == "" {
			continue
		}
		v, ok := ParseIndicator(raw)
		if !ok {
			p.problems = append(p.problems, fmt.Sprintf("Invalid %s value %q: expected true or false", ind.Column, raw))
			continue
		}
		p.flags = append(p.flags, form.Attribute{Name: ind.Field, Value: v})
	}

	return p
}

func (p *parsedRow) insertRecord(meta form.Meta) form.InsertRecord {
	return form.InsertRecord{
		Meta:           meta,
		FormNbr:        p.values[ColFormNbr],
		FormName:       p.values[ColFormName],
		EffectiveDate:  p.values[ColEffectiveDate],
		ExpirationDate: p.values[ColExpirationDate],
		RecipientTypes: p.recipients,
		SortKey:        p.sortKey,
		EditionDate:    p.values[ColEditionDate],
		LineOfBusiness: p.values[ColLineOfBusiness],
		Indicators:     p.flags,
		Attributes:     p.dynamic,
	}
}

// updateRecord keeps only non-empty values, named as they appear in the
// stored document
func (p *parsedRow) updateRecord(meta form.Meta) form.UpdateRecord {
	var changes []form.Attribute
	add := func(name string, value any) {
		changes = append(changes, form.Attribute{Name: name, Value: value})
	}

	if v := p.values[ColFormName]; v != "" {
		add("formName", v)
	}
	if v := p.values[ColEditionDate]; v != "" {
		add("editionDt", v)
	}
	changes = append(changes, p.flags...)
	if v := p.values[ColEffectiveDate]; v != "" {
		add("effectiveDate", v)
	}
	if v := p.values[ColExpirationDate]; v != "" {
		add("expirationDate", v)
	}
	if v := p.values[ColLineOfBusiness]; v != "" {
		add("lob", v)
	}
	if len(p.recipients) > 0 {
		add("recipientTypes", p.recipients)
	}
	if p.sortKey != nil {
		add("sortingKeys", *p.sortKey)
	}

	return form.UpdateRecord{
		Meta:       meta,
		FormNbr:    p.values[ColFormNbr],
		Changes:    changes,
		Attributes: p.dynamic,
		Explicit:   ParseLooseAttributes(p.values[ColAttributesToUpdate]),
	}
}
