package excel

// ExcelConfig holds configuration for spreadsheet sources
type ExcelConfig struct {
	// Sheets restricts reading to the named sheets; empty reads every sheet
	Sheets []string `json:"sheets"`
}

// DefaultExcelConfig reads every sheet
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{}
}
