package grouping

import (
	"fmt"

	"liquigen/domain/form"
)

// Plan is the engine's output for one batch
type Plan struct {
	Groups   []*form.Group
	Dropped  []form.DroppedRecord
	Failures []form.RowFailure
}

type groupKey struct {
	file string
	op   form.Operation
}

type mergeKey struct {
	formNbr   string
	changeset string
}

// Engine partitions records by output file and operation. Inserts always
// win over updates to the same entity, regardless of arrival order. An
// Engine holds batch state and must not be shared between batches.
type Engine struct {
	inserts []form.InsertRecord
	updates []form.UpdateRecord

	insertedKeys map[string]int
	groups       map[groupKey]*form.Group
	members      map[groupKey]map[mergeKey]bool
	order        []groupKey
}

// NewEngine creates an empty engine
func NewEngine() *Engine {
	return &Engine{
		insertedKeys: make(map[string]int),
		groups:       make(map[groupKey]*form.Group),
		members:      make(map[groupKey]map[mergeKey]bool),
	}
}

// Add queues records. It may be called once per sheet.
func (e *Engine) Add(records ...form.Record) {
	for _, rec := range records {
		switch r := rec.(type) {
		case form.InsertRecord:
			e.inserts = append(e.inserts, r)
		case form.UpdateRecord:
			e.updates = append(e.updates, r)
		}
	}
}

// Build groups every queued record. Insert groups come first, in the order
// their file keys were first seen, followed by update groups.
func (e *Engine) Build() Plan {
	var plan Plan

	for _, rec := range e.inserts {
		key := rec.Key().String()
		if first, ok := e.insertedKeys[key]; ok {
			plan.Failures = append(plan.Failures, form.RowFailure{
				Sheet:     rec.Sheet,
				RowNumber: rec.RowNumber,
				Reason:    fmt.Sprintf("Duplicate insert for %s, already defined in row %d", key, first),
			})
			continue
		}
		e.insertedKeys[key] = rec.RowNumber
		e.place(rec)
	}

	for _, rec := range e.updates {
		key := rec.Key().String()
		if _, ok := e.insertedKeys[key]; ok {
			plan.Dropped = append(plan.Dropped, dropped(rec, key, "inserted in the same batch"))
			continue
		}
		if len(rec.AttributesToUpdate()) == 0 {
			plan.Dropped = append(plan.Dropped, dropped(rec, key, "no attributes to update"))
			continue
		}
		if !e.place(rec) {
			plan.Dropped = append(plan.Dropped, dropped(rec, key, "already merged into "+rec.ChangesetID))
		}
	}

	for _, k := range e.order {
		plan.Groups = append(plan.Groups, e.groups[k])
	}
	e.inserts, e.updates = nil, nil

	return plan
}

// place appends rec to its group, opening the group if needed. It reports
// false when the same record identifier and changeset is already a member.
func (e *Engine) place(rec form.Record) bool {
	meta := rec.RecordMeta()
	gk := groupKey{file: meta.OutputFileKey, op: meta.Operation}
	mk := mergeKey{formNbr: rec.Identifier(), changeset: meta.ChangesetID}

	group, ok := e.groups[gk]
	if !ok {
		group = &form.Group{
			OutputFileKey: meta.OutputFileKey,
			Operation:     meta.Operation,
			ChangesetID:   meta.ChangesetID,
		}
		e.groups[gk] = group
		e.members[gk] = make(map[mergeKey]bool)
		e.order = append(e.order, gk)
	}

	if e.members[gk][mk] {
		return false
	}
	e.members[gk][mk] = true
	group.Records = append(group.Records, rec)
	return true
}

func dropped(rec form.UpdateRecord, key, why string) form.DroppedRecord {
	return form.DroppedRecord{
		Sheet:     rec.Sheet,
		RowNumber: rec.RowNumber,
		Key:       key,
		Reason:    fmt.Sprintf("Update for %s dropped: %s", key, why),
	}
}
