package grouping

import (
	"testing"

	"liquigen/domain/form"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ins(file, nbr, cs string, row int) form.InsertRecord {
	return form.InsertRecord{
		Meta:     form.Meta{Operation: form.OperationInsert, OutputFileKey: file, ChangesetID: cs, RowNumber: row},
		FormNbr:  nbr,
		FormName: "Form " + nbr,
	}
}

func upd(file, nbr, cs string, row int, changes ...form.Attribute) form.UpdateRecord {
	return form.UpdateRecord{
		Meta:    form.Meta{Operation: form.OperationUpdate, OutputFileKey: file, ChangesetID: cs, RowNumber: row},
		FormNbr: nbr,
		Changes: changes,
	}
}

var renamed = form.Attribute{Name: "formName", Value: "Renamed"}

func TestInsertsShareOneGroup(t *testing.T) {
	e := NewEngine()
	e.Add(ins("F1", "100", "CS1", 2), ins("F1", "101", "CS1", 3), ins("F1", "102", "CS9", 4))

	plan := e.Build()
	require.Len(t, plan.Groups, 1)

	g := plan.Groups[0]
	assert.Equal(t, "F1", g.OutputFileKey)
	assert.Equal(t, form.OperationInsert, g.Operation)
	assert.Equal(t, "CS1", g.ChangesetID)
	assert.Equal(t, []string{"F1-100", "F1-101", "F1-102"}, g.Keys())
}

func TestInsertWinsOverUpdate(t *testing.T) {
	e := NewEngine()
	// update arrives first, from an earlier sheet
	e.Add(upd("F1", "100", "CS1", 2, renamed))
	e.Add(ins("F1", "100", "CS1", 3))

	plan := e.Build()
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, form.OperationInsert, plan.Groups[0].Operation)
	require.Len(t, plan.Dropped, 1)
	assert.Equal(t, "F1-100", plan.Dropped[0].Key)
	assert.Equal(t, 2, plan.Dropped[0].RowNumber)
	assert.Contains(t, plan.Dropped[0].Reason, "inserted in the same batch")
}

func TestEmptyUpdateDropped(t *testing.T) {
	e := NewEngine()
	e.Add(upd("F2", "200", "CS1", 2))

	plan := e.Build()
	assert.Empty(t, plan.Groups)
	require.Len(t, plan.Dropped, 1)
	assert.Contains(t, plan.Dropped[0].Reason, "no attributes to update")
}

func TestUpdateMergeIsIdempotent(t *testing.T) {
	e := NewEngine()
	e.Add(
		upd("F2", "200", "CS1", 2, renamed),
		upd("F2", "201", "CS1", 3, renamed),
		upd("F2", "200", "CS1", 4, renamed),
		upd("F2", "200", "CS2", 5, renamed),
	)

	plan := e.Build()
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, []string{"F2-200", "F2-201", "F2-200"}, plan.Groups[0].Keys())
	require.Len(t, plan.Dropped, 1)
	assert.Equal(t, 4, plan.Dropped[0].RowNumber)
}

func TestDuplicateInsertIsFailure(t *testing.T) {
	e := NewEngine()
	e.Add(ins("F1", "100", "CS1", 2), ins("F1", "100", "CS1", 7))

	plan := e.Build()
	require.Len(t, plan.Failures, 1)
	assert.Equal(t, 7, plan.Failures[0].RowNumber)
	assert.Equal(t, "Duplicate insert for F1-100, already defined in row 2", plan.Failures[0].Reason)
	assert.Len(t, plan.Groups[0].Records, 1)
}

func TestGroupOrdering(t *testing.T) {
	e := NewEngine()
	e.Add(
		upd("F3", "300", "CS1", 2, renamed),
		ins("F2", "200", "CS1", 3),
		ins("F1", "100", "CS1", 4),
		upd("F1", "101", "CS1", 5, renamed),
	)

	plan := e.Build()
	require.Len(t, plan.Groups, 4)

	var got []string
	for _, g := range plan.Groups {
		got = append(got, g.OutputFileKey+"/"+string(g.Operation))
	}
	assert.Equal(t, []string{"F2/insert", "F1/insert", "F3/update", "F1/update"}, got)
}
