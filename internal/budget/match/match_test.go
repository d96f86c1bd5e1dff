package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civistat/budget_pipeline/internal/budget/config"
)

func TestMatchesWildcard(t *testing.T) {
	assert.True(t, Matches("Community Development Grant Fund", "*grant*"))
	assert.True(t, Matches("GRANT FUND", "*grant*"))
	assert.False(t, Matches("Corporate Fund", "*grant*"))
	assert.True(t, Matches("Policemen's Annuity and Benefit Fund", "*annuity and benefit*"))
}

func TestMatchesExact(t *testing.T) {
	assert.True(t, Matches("Corporate Fund", "Corporate Fund"))
	assert.False(t, Matches("corporate fund", "Corporate Fund"))
	assert.False(t, Matches("Corporate Fund No. 2", "Corporate Fund"))
}

func TestCategorizeFirstRuleWins(t *testing.T) {
	rules := []config.CategoryRule{
		{Key: "grant", Patterns: []string{"*grant*"}},
		{Key: "pension", Patterns: []string{"*annuity*", "*grant*"}},
	}

	assert.Equal(t, "grant", Categorize("Community Development Grant Fund", rules, "operating"))
	assert.Equal(t, "pension", Categorize("Policemen's Annuity and Benefit Fund", rules, "operating"))
	assert.Equal(t, "operating", Categorize("Corporate Fund", rules, "operating"))
}

func testCategorization() config.RevenueCategorization {
	return config.RevenueCategorization{
		SourceOverrides: []config.CategoryRule{
			{Key: "property_tax", Patterns: []string{"*property tax levy*"}},
		},
		CategoryFieldMapping: map[string]string{
			"Charges for Services": "charges_for_services",
			"Utility Taxes":        "unlisted_key",
		},
		FundBasedCategories: []config.CategoryRule{
			{Key: "pension_allocations", Patterns: []string{"*annuity and benefit*"}},
		},
		DisplayCategories: map[string]config.DisplayCategory{
			"property_tax":         {Name: "Property Tax", RevenueType: "tax"},
			"charges_for_services": {Name: "Charges for Services", RevenueType: "fee"},
			"pension_allocations":  {RevenueType: "internal_transfer"},
		},
	}
}

func TestRevenueCategorizerSourceOverrideWins(t *testing.T) {
	rc := NewRevenueCategorizer(testCategorization())

	// The override outranks both the category field and the fund rule.
	res := rc.Categorize("Charges for Services", "Policemen's Annuity and Benefit Fund", "Property Tax Levy (Net Abatement)")
	assert.Equal(t, "property_tax", res.Key)
	assert.Equal(t, "Property Tax", res.Name)
	assert.Equal(t, "tax", res.RevenueType)
}

func TestRevenueCategorizerCategoryField(t *testing.T) {
	rc := NewRevenueCategorizer(testCategorization())

	res := rc.Categorize("Charges for Services", "Water Fund", "Water Fees")
	assert.Equal(t, "charges_for_services", res.Key)
}

func TestRevenueCategorizerFundStage(t *testing.T) {
	rc := NewRevenueCategorizer(testCategorization())

	res := rc.Categorize("", "Policemen's Annuity and Benefit Fund", "Employer Contribution")
	assert.Equal(t, "pension_allocations", res.Key)
	// Display entry has no name, so the key is title-cased.
	assert.Equal(t, "Pension Allocations", res.Name)
	assert.Equal(t, "internal_transfer", res.RevenueType)
}

func TestRevenueCategorizerDisplayGate(t *testing.T) {
	rc := NewRevenueCategorizer(testCategorization())

	// "unlisted_key" has no display entry, so the category field stage is
	// skipped and the fund stage resolves the row.
	res := rc.Categorize("Utility Taxes", "Policemen's Annuity and Benefit Fund", "Electricity Use Tax")
	assert.Equal(t, "pension_allocations", res.Key)
}

func TestRevenueCategorizerUncategorized(t *testing.T) {
	rc := NewRevenueCategorizer(testCategorization())

	res := rc.Categorize("", "Corporate Fund", "Miscellaneous Receipts")
	assert.Equal(t, UncategorizedKey, res.Key)
	assert.Equal(t, "Uncategorized", res.Name)
	assert.Equal(t, "other", res.RevenueType)
}
