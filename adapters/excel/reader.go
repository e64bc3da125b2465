package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"liquigen/domain/form"
	"liquigen/internal/errors"
	"liquigen/internal/logging"

	"github.com/xuri/excelize/v2"
)

// DataReader reads Excel and CSV sources into raw rows
type DataReader struct {
	config ExcelConfig
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(config ExcelConfig) *DataReader {
	return &DataReader{config: config}
}

// fileType maps an extension to the reader that handles it
func fileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return "xlsx"
	default:
		return ""
	}
}

// IsSupported reports whether the reader understands the file's extension
func IsSupported(path string) bool {
	return fileType(path) != ""
}

// ReadWorkbook reads every selected sheet of the source. Errors are structural.
func (r *DataReader) ReadWorkbook(ctx context.Context, path string) (*form.Workbook, error) {
	log := logging.FromContext(ctx)
	kind := fileType(path)
	log.Debug().Str("path", path).Str("type", kind).Msg("reading source")

	if _, err := os.Stat(path); err != nil {
		return nil, errors.Structural(fmt.Sprintf("source file not readable: %s", path), err)
	}

	switch kind {
	case "csv":
		return r.readCSVData(ctx, path)
	case "xlsx":
		return r.readExcelData(ctx, path)
	default:
		return nil, errors.Structural(fmt.Sprintf("unsupported file type: %s", filepath.Ext(path)), nil)
	}
}

// readExcelData reads the selected worksheets with raw cell values, so date
// cells arrive as Excel serial numbers rather than display strings
func (r *DataReader) readExcelData(ctx context.Context, path string) (*form.Workbook, error) {
	log := logging.FromContext(ctx)
	startTime := time.Now()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Structural("failed to open Excel file", err)
	}
	defer f.Close()

	names, err := r.selectSheets(f.GetSheetList())
	if err != nil {
		return nil, err
	}

	book := &form.Workbook{Path: path}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.Structural(fmt.Sprintf("failed to read worksheet %q", name), err)
		}

		sheet, err := processRows(name, rows)
		if err != nil {
			return nil, err
		}
		if sheet == nil {
			log.Debug().Str("sheet", name).Msg("skipping empty worksheet")
			continue
		}
		book.Sheets = append(book.Sheets, *sheet)
	}

	log.Debug().
		Int("sheets", len(book.Sheets)).
		Int("rows", book.RowCount()).
		Dur("elapsed", time.Since(startTime)).
		Msg("workbook read")

	return book, nil
}

// readCSVData reads a CSV file as a single sheet named after the file
func (r *DataReader) readCSVData(ctx context.Context, path string) (*form.Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Structural("failed to open CSV file", err)
	}
	defer file.Close()

	rows, err := readCSV(file)
	if err != nil {
		return nil, errors.Structural("failed to read CSV file", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sheet, err := processRows(name, rows)
	if err != nil {
		return nil, err
	}

	book := &form.Workbook{Path: path}
	if sheet != nil {
		book.Sheets = append(book.Sheets, *sheet)
	}
	logging.FromContext(ctx).Debug().Int("rows", book.RowCount()).Msg("csv read")
	return book, nil
}

func readCSV(rd io.Reader) ([][]string, error) {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// selectSheets applies the configured sheet filter, preserving workbook order
func (r *DataReader) selectSheets(available []string) ([]string, error) {
	if len(available) == 0 {
		return nil, errors.Structural("worksheet not found in the Excel file", nil)
	}
	if len(r.config.Sheets) == 0 {
		return available, nil
	}

	present := make(map[string]bool, len(available))
	for _, name := range available {
		present[name] = true
	}
	for _, want := range r.config.Sheets {
		if !present[want] {
			return nil, errors.Structural(fmt.Sprintf("worksheet %q not found in the Excel file", want), nil)
		}
	}

	wanted := make(map[string]bool, len(r.config.Sheets))
	for _, want := range r.config.Sheets {
		wanted[want] = true
	}
	selected := make([]string, 0, len(r.config.Sheets))
	for _, name := range available {
		if wanted[name] {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// processRows converts a header row plus data rows into a sheet. Blank rows
// are dropped; row numbers stay 1-based spreadsheet numbers. A sheet with no
// rows at all yields nil.
func processRows(name string, rows [][]string) (*form.Sheet, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	hasHeader := false
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
		if headers[i] != "" {
			hasHeader = true
		}
	}

	if !hasHeader {
		for _, row := range rows[1:] {
			for _, v := range row {
				if strings.TrimSpace(v) != "" {
					return nil, errors.Structural(fmt.Sprintf("worksheet %q has no header row", name), nil)
				}
			}
		}
		return nil, nil
	}

	sheet := &form.Sheet{Name: name, Headers: headers}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		cells := make([]form.Cell, 0, len(headers))
		empty := true

		for j, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if j < len(row) {
				value = strings.TrimSpace(row[j])
			}
			if value != "" {
				empty = false
			}
			cells = append(cells, form.Cell{Header: header, Value: value})
		}
		if empty {
			continue
		}

		sheet.Rows = append(sheet.Rows, form.RawRow{Sheet: name, Number: i + 1, Cells: cells})
	}

	return sheet, nil
}
