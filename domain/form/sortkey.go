package form

import (
	"fmt"
	"strings"
)

// SortKeyDigits is the number of digits a composite sort key normalizes to
const SortKeyDigits = 8

// SortKey is an 8-digit code split into three hierarchical levels (2, 3, 3 digits)
type SortKey struct {
	Level1 string `json:"LEVEL1" yaml:"LEVEL1"`
	Level2 string `json:"LEVEL2" yaml:"LEVEL2"`
	Level3 string `json:"LEVEL3" yaml:"LEVEL3"`
}

// ParseSortKey strips every non-digit character and decomposes the remaining
// digits. Anything other than exactly eight digits is rejected.
func ParseSortKey(raw string) (SortKey, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if len(digits) != SortKeyDigits {
		return SortKey{}, fmt.Errorf("invalid srtKey format: must be exactly %d digits (e.g., 20500200), got %d", SortKeyDigits, len(digits))
	}

	return SortKey{
		Level1: digits[0:2],
		Level2: digits[2:5],
		Level3: digits[5:8],
	}, nil
}

// String joins the levels back into the 8-digit code
func (k SortKey) String() string {
	return k.Level1 + k.Level2 + k.Level3
}
