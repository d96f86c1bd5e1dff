package table

import (
	"fmt"
	"strings"

	"github.com/civistat/budget_pipeline/internal/budget/types"
)

// SchemaError reports that the dollar-amount column could not be resolved for
// a fiscal year. It lists every available column so the drift can be fixed by
// adding a pattern rather than by spelunking the raw extract.
type SchemaError struct {
	FiscalYear string
	Columns    []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("could not detect amount column for %s in %v", e.FiscalYear, e.Columns)
}

// amountPatterns are tried in decreasing specificity. %s is the fiscal year's
// numeric suffix. The source portals rename the dollar column release to
// release without warning, so the generic fallbacks stay at the end.
var amountPatterns = []string{
	"%s_ordinance",
	"ordinance_amount_%s",
	"%s_recommendation",
	"ordinance_amount",
	"estimated_revenue",
	"amount",
}

// ResolveAmountColumn detects which column holds the dollar amount for the
// given fiscal year. All columns are scanned for each pattern before the next,
// less specific pattern is tried. Returns a *SchemaError when nothing matches.
func (rs *RecordSet) ResolveAmountColumn(fiscalYear string) (string, error) {
	year := types.FiscalYearDigits(fiscalYear)

	for _, pattern := range amountPatterns {
		needle := pattern
		if strings.Contains(pattern, "%s") {
			needle = fmt.Sprintf(pattern, year)
		}
		for _, col := range rs.df.Names() {
			if strings.Contains(strings.ToLower(col), needle) {
				return col, nil
			}
		}
	}

	return "", &SchemaError{FiscalYear: fiscalYear, Columns: rs.df.Names()}
}
