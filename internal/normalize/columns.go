package normalize

import "strings"

// Recognised column headers. Any other header is a dynamic attribute.
const (
	ColFileName           = "fileName"
	ColChangeSetID        = "changeSetId"
	ColFormNbr            = "formNbr"
	ColFormName           = "formName"
	ColEffectiveDate      = "effectiveDate"
	ColExpirationDate     = "expirationDate"
	ColRecipientTypes     = "rcpType"
	ColSortKey            = "srtKey"
	ColEditionDate        = "editionDt"
	ColLineOfBusiness     = "lob"
	ColOperation          = "operation"
	ColAttributesToUpdate = "attributesToUpdate"
)

// indicator maps a boolean indicator column to its document field
type indicator struct {
	Column string
	Field  string
}

// indicators in document order
var indicators = []indicator{
	{Column: "lclPrtEle", Field: "localPrintEligibleInd"},
	{Column: "optInd", Field: "optionalInd"},
	{Column: "mnlAmdInd", Field: "manualAmendmentInd"},
	{Column: "msrInd", Field: "manuscriptInd"},
	{Column: "pullLstInd", Field: "pullListInd"},
}

// dateColumns are reformatted to MM/DD/YYYY
var dateColumns = map[string]bool{
	ColEffectiveDate:  true,
	ColExpirationDate: true,
	ColEditionDate:    true,
}

var reservedColumns = func() map[string]string {
	names := []string{
		ColFileName, ColChangeSetID, ColFormNbr, ColFormName, ColEffectiveDate,
		ColExpirationDate, ColRecipientTypes, ColSortKey, ColEditionDate,
		ColLineOfBusiness, ColOperation, ColAttributesToUpdate,
	}
	for _, ind := range indicators {
		names = append(names, ind.Column)
	}
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = n
	}
	return m
}()

// CanonicalColumn returns the recognised spelling of header, matched
// case-insensitively, and whether it is reserved at all.
func CanonicalColumn(header string) (string, bool) {
	name, ok := reservedColumns[strings.ToLower(strings.TrimSpace(header))]
	return name, ok
}
