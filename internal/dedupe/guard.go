package dedupe

import (
	"fmt"

	"liquigen/domain/form"
)

// Policy decides what a duplicate dynamic attribute does to its row
type Policy string

const (
	// PolicyRejectRow excludes the whole row
	PolicyRejectRow Policy = "reject-row"
	// PolicyDropAttribute keeps the row without the repeated attribute
	PolicyDropAttribute Policy = "drop-attribute"
)

// Verdict is the guard's answer for one record. Record is nil when the row
// was rejected. Failures are reported under both policies.
type Verdict struct {
	Record   form.Record
	Failures []form.RowFailure
}

// Guard tracks (entity key, attribute) pairs seen in one batch. A Guard must
// not be shared between batches.
type Guard struct {
	policy Policy
	seen   map[pair]int
}

type pair struct {
	key       string
	attribute string
}

// NewGuard creates an empty guard. An unknown policy falls back to reject-row.
func NewGuard(policy Policy) *Guard {
	if policy != PolicyDropAttribute {
		policy = PolicyRejectRow
	}
	return &Guard{
		policy: policy,
		seen:   make(map[pair]int),
	}
}

// Policy returns the active policy
func (g *Guard) Policy() Policy {
	return g.policy
}

// Check looks for dynamic attributes repeated within the record's row, or
// already defined for the same entity by an earlier accepted row. Pairs are
// committed only when the record is kept.
func (g *Guard) Check(rec form.Record) Verdict {
	meta := rec.RecordMeta()
	key := rec.Key().String()

	var failures []form.RowFailure
	drop := make(map[int]bool)
	inRow := make(map[string]bool)

	for i, attr := range form.DynamicAttributes(rec) {
		if inRow[attr.Name] {
			drop[i] = true
			failures = append(failures, form.RowFailure{
				Sheet:     meta.Sheet,
				RowNumber: meta.RowNumber,
				Reason:    fmt.Sprintf("Duplicate attribute %q in the same row", attr.Name),
			})
			continue
		}
		inRow[attr.Name] = true

		if first, ok := g.seen[pair{key: key, attribute: attr.Name}]; ok {
			drop[i] = true
			failures = append(failures, form.RowFailure{
				Sheet:     meta.Sheet,
				RowNumber: meta.RowNumber,
				Reason:    fmt.Sprintf("Duplicate attribute %q for %s, already defined in row %d", attr.Name, key, first),
			})
		}
	}

	if len(failures) > 0 && g.policy == PolicyRejectRow {
		return Verdict{Failures: failures}
	}

	kept := form.WithoutDynamic(rec, drop)
	for _, attr := range form.DynamicAttributes(kept) {
		g.seen[pair{key: key, attribute: attr.Name}] = meta.RowNumber
	}

	return Verdict{Record: kept, Failures: failures}
}
