package trend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civistat/budget_pipeline/internal/budget/types"
	"github.com/civistat/budget_pipeline/internal/logger"
)

func yearDocument(fiscalYear string, policeAmount int64, withRevenue bool) *types.BudgetDocument {
	doc := &types.BudgetDocument{
		SchemaVersion: types.SchemaVersion,
		Metadata: types.Metadata{
			EntityID:            "chicago",
			FiscalYear:          fiscalYear,
			TotalAppropriations: policeAmount,
			GrossAppropriations: policeAmount,
		},
		Appropriations: types.Appropriations{
			ByDepartment: []types.Department{
				{
					ID:     "dept-police-department",
					Name:   "Police Department",
					Code:   "057",
					Amount: policeAmount,
					FundBreakdown: []types.FundBreakdown{
						{FundID: "corporate-fund", FundName: "Corporate Fund", Amount: policeAmount},
					},
					Subcategories: []types.Subcategory{
						{ID: "police-department-salaries", Name: "Salaries", Amount: policeAmount},
					},
				},
			},
			ByFund: []types.FundSummary{
				{ID: "corporate-fund", Name: "Corporate Fund", Amount: policeAmount, FundType: "operating"},
			},
		},
	}
	if withRevenue {
		doc.Revenue = &types.Revenue{
			BySource: []types.RevenueSource{
				{
					ID: "revenue-property-tax", Name: "Property Tax", Amount: policeAmount, RevenueType: "tax",
					Subcategories: []types.Subcategory{
						{ID: "property-tax-levy", Name: "Property Tax Levy", Amount: policeAmount},
					},
				},
			},
			ByFund:           []types.FundSummary{},
			TotalRevenue:     policeAmount,
			LocalRevenueOnly: true,
		}
	}
	return doc
}

func TestEnrichDepartmentTrends(t *testing.T) {
	docs := map[string]*types.BudgetDocument{
		"fy2025": yearDocument("fy2025", 2_000_000, true),
		"fy2024": yearDocument("fy2024", 1_500_000, true),
	}

	Enrich(docs)

	trend := docs["fy2024"].Appropriations.ByDepartment[0].Trend
	require.Len(t, trend, 2)
	assert.Equal(t, types.TrendPoint{FiscalYear: "fy2024", Amount: 1_500_000}, trend[0])
	assert.Equal(t, types.TrendPoint{FiscalYear: "fy2025", Amount: 2_000_000}, trend[1])

	// Every year carries the full series.
	assert.Equal(t, trend, docs["fy2025"].Appropriations.ByDepartment[0].Trend)
}

func TestEnrichRevenueTrends(t *testing.T) {
	docs := map[string]*types.BudgetDocument{
		"fy2024": yearDocument("fy2024", 1_500_000, true),
		"fy2025": yearDocument("fy2025", 2_000_000, true),
	}

	Enrich(docs)

	source := docs["fy2025"].Revenue.BySource[0]
	require.Len(t, source.Trend, 2)
	assert.Equal(t, "fy2024", source.Trend[0].FiscalYear)

	require.Len(t, source.Subcategories[0].Trend, 2)
}

func TestEnrichSubcategorySinglePointGate(t *testing.T) {
	older := yearDocument("fy2024", 1_500_000, false)
	newer := yearDocument("fy2025", 2_000_000, false)
	newer.Appropriations.ByDepartment[0].Subcategories = append(
		newer.Appropriations.ByDepartment[0].Subcategories,
		types.Subcategory{ID: "police-department-equipment", Name: "Equipment", Amount: 1},
	)

	docs := map[string]*types.BudgetDocument{"fy2024": older, "fy2025": newer}
	Enrich(docs)

	subs := docs["fy2025"].Appropriations.ByDepartment[0].Subcategories
	assert.Len(t, subs[0].Trend, 2)
	// Seen in one year only: no trend, and never an empty array.
	assert.Nil(t, subs[1].Trend)
}

func TestEnrichSingleYear(t *testing.T) {
	docs := map[string]*types.BudgetDocument{
		"fy2025": yearDocument("fy2025", 2_000_000, false),
	}

	Enrich(docs)

	dept := docs["fy2025"].Appropriations.ByDepartment[0]
	require.Len(t, dept.Trend, 1)
	assert.Nil(t, dept.Subcategories[0].Trend)
}

func TestEnrichYearsWithoutRevenue(t *testing.T) {
	docs := map[string]*types.BudgetDocument{
		"fy2023": yearDocument("fy2023", 1_000_000, false),
		"fy2024": yearDocument("fy2024", 1_500_000, true),
		"fy2025": yearDocument("fy2025", 2_000_000, true),
	}

	Enrich(docs)

	require.Len(t, docs["fy2023"].Appropriations.ByDepartment[0].Trend, 3)
	assert.Len(t, docs["fy2025"].Revenue.BySource[0].Trend, 2)
}

func TestEnrichEmptyInput(t *testing.T) {
	docs := map[string]*types.BudgetDocument{}
	assert.Empty(t, Enrich(docs))
}

func TestEnrichDirIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	log := logger.New(zerolog.Disabled)

	require.NoError(t, WriteDocument(filepath.Join(dir, "fy2024.json"), yearDocument("fy2024", 1_500_000, true)))
	require.NoError(t, WriteDocument(filepath.Join(dir, "fy2025.json"), yearDocument("fy2025", 2_000_000, true)))

	n, err := EnrichDir(dir, log)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := os.ReadFile(filepath.Join(dir, "fy2025.json"))
	require.NoError(t, err)

	_, err = EnrichDir(dir, log)
	require.NoError(t, err)

	second, err := os.ReadFile(filepath.Join(dir, "fy2025.json"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestEnrichDirEmpty(t *testing.T) {
	n, err := EnrichDir(t.TempDir(), logger.New(zerolog.Disabled))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadEntityYears(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDocument(filepath.Join(dir, "fy2025.json"), yearDocument("fy2025", 2_000_000, false)))

	docs, err := LoadEntityYears(dir)
	require.NoError(t, err)
	require.Contains(t, docs, "fy2025")
	assert.Equal(t, "chicago", docs["fy2025"].Metadata.EntityID)
}
