package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"liquigen/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}, order ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	path := filepath.Join(t.TempDir(), "forms.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadWorkbookAllSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Inserts": {
			{"fileName", "changeSetId", "formNbr", "srtKey"},
			{"F1", "CS1", "100", 20500200},
			{nil, nil, nil, nil},
			{"F1", "CS1", "101", "20-500-201"},
		},
		"Updates": {
			{"fileName", "formNbr", " formName "},
			{"F2", "200", "Renamed"},
		},
	}, "Inserts", "Updates")

	book, err := NewDataReader(DefaultExcelConfig()).ReadWorkbook(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, book.Sheets, 2)

	inserts := book.Sheets[0]
	assert.Equal(t, "Inserts", inserts.Name)
	require.Len(t, inserts.Rows, 2, "blank row must be dropped")
	assert.Equal(t, 2, inserts.Rows[0].Number)
	assert.Equal(t, 4, inserts.Rows[1].Number)
	assert.Equal(t, "20500200", inserts.Rows[0].Cells[3].Value)
	assert.Equal(t, "Inserts", inserts.Rows[0].Sheet)

	updates := book.Sheets[1]
	assert.Equal(t, []string{"fileName", "formNbr", "formName"}, updates.Headers)
	assert.Equal(t, "Renamed", updates.Rows[0].Cells[2].Value)
	assert.Equal(t, 3, book.RowCount())
}

func TestReadWorkbookSheetFilter(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"A": {{"formNbr"}, {"1"}},
		"B": {{"formNbr"}, {"2"}},
	}, "A", "B")

	book, err := NewDataReader(ExcelConfig{Sheets: []string{"B"}}).ReadWorkbook(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, book.Sheets, 1)
	assert.Equal(t, "B", book.Sheets[0].Name)

	_, err = NewDataReader(ExcelConfig{Sheets: []string{"Missing"}}).ReadWorkbook(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
}

func TestReadWorkbookStructuralFailures(t *testing.T) {
	reader := NewDataReader(DefaultExcelConfig())
	dir := t.TempDir()

	_, err := reader.ReadWorkbook(context.Background(), filepath.Join(dir, "missing.xlsx"))
	assert.True(t, errors.IsStructural(err))

	garbage := filepath.Join(dir, "garbage.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a zip"), 0o644))
	_, err = reader.ReadWorkbook(context.Background(), garbage)
	assert.True(t, errors.IsStructural(err))

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))
	_, err = reader.ReadWorkbook(context.Background(), text)
	assert.True(t, errors.IsStructural(err))
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updates.csv")
	content := "fileName,formNbr,formName\nF1,100,Renamed\n,,\nF1,101\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	book, err := NewDataReader(DefaultExcelConfig()).ReadWorkbook(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, book.Sheets, 1)

	sheet := book.Sheets[0]
	assert.Equal(t, "updates", sheet.Name)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, 4, sheet.Rows[1].Number)
	assert.Equal(t, "", sheet.Rows[1].Cells[2].Value, "short rows are padded")
}

func TestProcessRowsMissingHeader(t *testing.T) {
	_, err := processRows("S", [][]string{{"", " "}, {"x", "y"}})
	assert.True(t, errors.IsStructural(err))

	sheet, err := processRows("S", nil)
	assert.NoError(t, err)
	assert.Nil(t, sheet)
}

func TestProcessRowsRepeatedHeaders(t *testing.T) {
	sheet, err := processRows("S", [][]string{{"formNbr", "color", "color", ""}, {"1", "red", "blue", "ignored"}})
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)

	cells := sheet.Rows[0].Cells
	require.Len(t, cells, 3, "cells under a blank header are ignored")
	assert.Equal(t, "color", cells[1].Header)
	assert.Equal(t, "color", cells[2].Header)
	assert.Equal(t, "blue", cells[2].Value)
}

func TestIsSupported(t *testing.T) {
	for name, want := range map[string]bool{
		"forms.xlsx": true,
		"FORMS.XLSM": true,
		"forms.csv":  true,
		"forms.xls":  false,
		"forms.txt":  false,
		"forms":      false,
	} {
		assert.Equal(t, want, IsSupported(name), name)
	}
}
