package normalize

import (
	"strconv"
	"strings"
	"time"

	"liquigen/domain/form"

	"github.com/xuri/excelize/v2"
)

// CanonicalDateLayout is the textual form every parseable date is rewritten to
const CanonicalDateLayout = "01/02/2006"

// dateLayouts are tried in order; US month-first wins over day-first
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01-02-2006",
	"1-2-06",
	"1/2/06",
	"2006/01/02",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// maxExcelSerial is 9999-12-31
const maxExcelSerial = 2958465

// FormatDate rewrites a date cell to MM/DD/YYYY. Excel serial numbers are
// converted first. Values that do not parse are returned unchanged.
func FormatDate(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 1 && serial <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.Format(CanonicalDateLayout)
			}
		}
		return value
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(CanonicalDateLayout)
		}
	}

	return value
}

// SplitList splits on commas, trims, and drops empty entries. Order and
// repeats are kept.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseIndicator accepts the usual boolean spellings
func ParseIndicator(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y", "on", "x":
		return true, true
	case "false", "0", "no", "n", "off":
		return false, true
	}
	return false, false
}

// ParseLooseAttributes reads "key:value, key2;value2" pairs. Each pair splits
// on its first ':' or ';' and keys are lower-cased. Pairs missing a key or
// value are ignored.
func ParseLooseAttributes(raw string) []form.Attribute {
	var attrs []form.Attribute
	for _, pair := range strings.Split(raw, ",") {
		idx := strings.IndexAny(pair, ":;")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(pair[:idx]))
		value := strings.TrimSpace(pair[idx+1:])
		if key == "" || value == "" {
			continue
		}
		attrs = append(attrs, form.Attribute{Name: key, Value: value})
	}
	return attrs
}
