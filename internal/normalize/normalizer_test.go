package normalize

import (
	"context"
	"io"
	"testing"

	"liquigen/domain/form"
	"liquigen/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) HasBeenProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func row(number int, pairs ...string) form.RawRow {
	r := form.RawRow{Sheet: "Sheet1", Number: number}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Cells = append(r.Cells, form.Cell{Header: pairs[i], Value: pairs[i+1]})
	}
	return r
}

func insertRow(number int, extra ...string) form.RawRow {
	base := []string{
		"fileName", "F1",
		"changeSetId", "CS1",
		"formNbr", "100",
		"formName", "Policy",
		"effectiveDate", "2024-01-01",
		"expirationDate", "12/31/2030",
		"rcpType", "AGT, INS",
		"srtKey", "20500200",
	}
	return row(number, append(base, extra...)...)
}

func newTestNormalizer(t *testing.T, ledger *mockLedger, cfg Config) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(ledger, cfg)
	require.NoError(t, err)
	return n
}

func TestNormalizeInsert(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("HasBeenProcessed", mock.Anything, "F1-100").Return(false, nil)
	n := newTestNormalizer(t, ledger, DefaultConfig())

	out, err := n.Normalize(context.Background(), insertRow(2, "lob", "AUTO", "optInd", "Y", "color", "red", "blank", ""), "")
	require.NoError(t, err)
	require.Nil(t, out.Failure)
	require.Nil(t, out.Skipped)

	rec, ok := out.Record.(form.InsertRecord)
	require.True(t, ok)
	assert.Equal(t, form.OperationInsert, rec.Operation)
	assert.Equal(t, "F1", rec.OutputFileKey)
	assert.Equal(t, "CS1", rec.ChangesetID)
	assert.Equal(t, 2, rec.RowNumber)
	assert.Equal(t, "01/01/2024", rec.EffectiveDate)
	assert.Equal(t, []string{"AGT", "INS"}, rec.RecipientTypes)
	assert.Equal(t, &form.SortKey{Level1: "20", Level2: "500", Level3: "200"}, rec.SortKey)
	assert.Equal(t, "AUTO", rec.LineOfBusiness)
	assert.Equal(t, []form.Attribute{{Name: "optionalInd", Value: true}}, rec.Indicators)
	assert.Equal(t, []form.Attribute{{Name: "color", Value: "red"}}, rec.Attributes)
	ledger.AssertExpectations(t)
}

func TestNormalizeMissingFields(t *testing.T) {
	ledger := &mockLedger{}
	n := newTestNormalizer(t, ledger, DefaultConfig())

	out, err := n.Normalize(context.Background(), row(3, "fileName", "F1", "formNbr", "100"), "")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Equal(t, 3, out.Failure.RowNumber)
	assert.Equal(t,
		"Missing required fields: changeSetId, formName, effectiveDate, expirationDate, rcpType, srtKey",
		out.Failure.Reason)
	ledger.AssertNotCalled(t, "HasBeenProcessed", mock.Anything, mock.Anything)
}

func TestNormalizeInvalidSortKeyNotReportedAsMissing(t *testing.T) {
	ledger := &mockLedger{}
	n := newTestNormalizer(t, ledger, DefaultConfig())

	r := insertRow(4)
	r.Cells[7].Value = "2050-02"

	out, err := n.Normalize(context.Background(), r, "")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Equal(t, "Invalid srtKey format: must be exactly 8 digits (e.g., 20500200)", out.Failure.Reason)
}

func TestNormalizeCombinesProblems(t *testing.T) {
	ledger := &mockLedger{}
	n := newTestNormalizer(t, ledger, DefaultConfig())

	out, err := n.Normalize(context.Background(),
		row(5, "fileName", "F1", "changeSetId", "CS1", "formNbr", "7", "srtKey", "1", "msrInd", "perhaps"), "")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Contains(t, out.Failure.Reason, "Invalid srtKey format")
	assert.Contains(t, out.Failure.Reason, `Invalid msrInd value "perhaps"`)
	assert.Contains(t, out.Failure.Reason, "; Missing required fields: formName, effectiveDate, expirationDate, rcpType")
	assert.NotContains(t, out.Failure.Reason, "srtKey,")
}

func TestNormalizeUpdate(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("HasBeenProcessed", mock.Anything, "F1-100").Return(false, nil)
	n := newTestNormalizer(t, ledger, DefaultConfig())

	out, err := n.Normalize(context.Background(), row(2,
		"operation", "UPDATE",
		"fileName", "F1",
		"changeSetId", "CS2",
		"formNbr", "100",
		"expirationDate", "2031-06-30",
		"pullLstInd", "false",
		"status", "RETIRED",
		"attributesToUpdate", "status:ACTIVE, owner:ops",
	), "")
	require.NoError(t, err)

	rec, ok := out.Record.(form.UpdateRecord)
	require.True(t, ok)
	assert.Equal(t, form.OperationUpdate, rec.Operation)
	assert.Equal(t, []form.Attribute{
		{Name: "pullListInd", Value: false},
		{Name: "expirationDate", Value: "06/30/2031"},
		{Name: "status", Value: "ACTIVE"},
		{Name: "owner", Value: "ops"},
	}, rec.AttributesToUpdate())
}

func TestNormalizeUpdateOnlyNeedsIdentity(t *testing.T) {
	ledger := &mockLedger{}
	n := newTestNormalizer(t, ledger, DefaultConfig())

	out, err := n.Normalize(context.Background(), row(2, "fileName", "F1", "formNbr", "100", "color", "blue"), form.OperationUpdate)
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Equal(t, "Missing required fields: changeSetId", out.Failure.Reason)
}

func TestResolveOperation(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("HasBeenProcessed", mock.Anything, mock.Anything).Return(false, nil)

	strict := newTestNormalizer(t, ledger, DefaultConfig())
	lenient := newTestNormalizer(t, ledger, Config{UnknownOperation: UnknownOperationInsert})

	out, err := strict.Normalize(context.Background(), insertRow(2, "operation", "upsert"), "")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Equal(t, `Invalid operation "upsert": expected insert or update`, out.Failure.Reason)

	out, err = lenient.Normalize(context.Background(), insertRow(2, "operation", "upsert"), "")
	require.NoError(t, err)
	assert.Equal(t, form.OperationInsert, out.Record.RecordMeta().Operation)

	out, err = strict.Normalize(context.Background(), insertRow(2), form.OperationUpdate)
	require.NoError(t, err)
	assert.Equal(t, form.OperationUpdate, out.Record.RecordMeta().Operation)

	out, err = strict.Normalize(context.Background(), insertRow(2, "operation", "insert"), form.OperationUpdate)
	require.NoError(t, err)
	assert.Equal(t, form.OperationInsert, out.Record.RecordMeta().Operation)
}

func TestNormalizeSkipsProcessedKey(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("HasBeenProcessed", mock.Anything, "F1-100").Return(true, nil)
	n := newTestNormalizer(t, ledger, DefaultConfig())

	out, err := n.Normalize(context.Background(), insertRow(6), "")
	require.NoError(t, err)
	require.Nil(t, out.Record)
	require.NotNil(t, out.Skipped)
	assert.Equal(t, "F1-100", out.Skipped.Key)
	assert.Equal(t, 6, out.Skipped.RowNumber)
	assert.Equal(t, `File "F1-100" has already been processed.`, out.Skipped.Reason)
}

func TestNormalizeLedgerError(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("HasBeenProcessed", mock.Anything, "F1-100").Return(false, io.ErrUnexpectedEOF)
	n := newTestNormalizer(t, ledger, DefaultConfig())

	_, err := n.Normalize(context.Background(), insertRow(2), "")
	require.Error(t, err)
	assert.True(t, errors.IsLedgerFailure(err))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestRepeatedReservedHeaderFirstValueWins(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("HasBeenProcessed", mock.Anything, "F1-100").Return(false, nil)
	n := newTestNormalizer(t, ledger, DefaultConfig())

	out, err := n.Normalize(context.Background(), insertRow(2, "FormName", "Ignored"), "")
	require.NoError(t, err)
	assert.Equal(t, "Policy", out.Record.(form.InsertRecord).FormName)
}

func TestNewNormalizerRequiresLedger(t *testing.T) {
	_, err := NewNormalizer(nil, DefaultConfig())
	assert.Error(t, err)
}
