package form

// Cell is one header/value pair of a raw row
type Cell struct {
	Header string
	Value  string
}

// RawRow is one non-empty data row, cells in column order. Headers may repeat.
type RawRow struct {
	Sheet  string
	Number int
	Cells  []Cell
}

// Sheet is a named table with a header row
type Sheet struct {
	Name    string
	Headers []string
	Rows    []RawRow
}

// Workbook is a tabular source made of one or more sheets
type Workbook struct {
	Path   string
	Sheets []Sheet
}

// RowCount returns the number of data rows across all sheets
func (w *Workbook) RowCount() int {
	total := 0
	for _, s := range w.Sheets {
		total += len(s.Rows)
	}
	return total
}
