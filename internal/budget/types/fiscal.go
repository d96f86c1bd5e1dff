package types

import (
	"fmt"
	"strconv"
	"strings"
)

// FiscalYearDigits strips the "fy" prefix from a fiscal year token,
// e.g. "fy2025" -> "2025".
func FiscalYearDigits(fiscalYear string) string {
	return strings.TrimPrefix(strings.ToLower(fiscalYear), "fy")
}

// FiscalYearLabel renders the display label for a fiscal year token,
// e.g. "fy2025" -> "FY2025".
func FiscalYearLabel(fiscalYear string) string {
	return strings.ToUpper(fiscalYear)
}

// FiscalYearBounds returns the start and end dates of a fiscal year as
// YYYY-MM-DD strings. The covered entities budget on the calendar year, so the
// bounds are always Jan 1 through Dec 31.
func FiscalYearBounds(fiscalYear string) (start, end string, err error) {
	year, err := strconv.Atoi(FiscalYearDigits(fiscalYear))
	if err != nil {
		return "", "", fmt.Errorf("invalid fiscal year token %q: %w", fiscalYear, err)
	}
	return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year), nil
}
