// Package trend injects cross-year trend arrays into an entity's per-year
// budget documents. Enrichment is two-phase: immutable indices are built from
// every year first, then trend fields are written back. Because trends are
// recomputed from source amounts each run, enrichment is idempotent.
package trend

import (
	"sort"

	"github.com/civistat/budget_pipeline/internal/budget/types"
)

// indices holds the trend arrays keyed by each entity kind's stable identity.
type indices struct {
	departments    map[string][]types.TrendPoint // key: department code
	revenueSources map[string][]types.TrendPoint // key: revenue source id
	subcategories  map[string][]types.TrendPoint // key: subcategory id, >= 2 points only
}

// Enrich mutates the trend fields of every document in place and returns the
// same map. All other fields are left untouched. An empty input is a no-op.
func Enrich(docs map[string]*types.BudgetDocument) map[string]*types.BudgetDocument {
	if len(docs) == 0 {
		return docs
	}

	idx := buildIndices(docs)

	for _, doc := range docs {
		byDept := doc.Appropriations.ByDepartment
		for i := range byDept {
			if points, ok := idx.departments[byDept[i].Code]; ok {
				byDept[i].Trend = points
			}
			attachSubcategoryTrends(byDept[i].Subcategories, idx)
		}
		if doc.Revenue != nil {
			bySource := doc.Revenue.BySource
			for i := range bySource {
				if points, ok := idx.revenueSources[bySource[i].ID]; ok {
					bySource[i].Trend = points
				}
				attachSubcategoryTrends(bySource[i].Subcategories, idx)
			}
		}
	}

	return docs
}

// attachSubcategoryTrends sets trend arrays on subcategories present in the
// index. Single-year subcategories are not in the index and keep a nil trend;
// an empty array is never written.
func attachSubcategoryTrends(subcategories []types.Subcategory, idx *indices) {
	for i := range subcategories {
		if points, ok := idx.subcategories[subcategories[i].ID]; ok {
			subcategories[i].Trend = points
		}
	}
}

func buildIndices(docs map[string]*types.BudgetDocument) *indices {
	years := sortedYears(docs)

	idx := &indices{
		departments:    make(map[string][]types.TrendPoint),
		revenueSources: make(map[string][]types.TrendPoint),
		subcategories:  make(map[string][]types.TrendPoint),
	}

	for _, year := range years {
		doc := docs[year]
		for _, dept := range doc.Appropriations.ByDepartment {
			idx.departments[dept.Code] = append(idx.departments[dept.Code],
				types.TrendPoint{FiscalYear: year, Amount: dept.Amount})
			for _, sub := range dept.Subcategories {
				idx.subcategories[sub.ID] = append(idx.subcategories[sub.ID],
					types.TrendPoint{FiscalYear: year, Amount: sub.Amount})
			}
		}
		// Years without revenue data are simply skipped for the revenue
		// index; absence is an expected state.
		if doc.Revenue == nil {
			continue
		}
		for _, source := range doc.Revenue.BySource {
			idx.revenueSources[source.ID] = append(idx.revenueSources[source.ID],
				types.TrendPoint{FiscalYear: year, Amount: source.Amount})
			for _, sub := range source.Subcategories {
				idx.subcategories[sub.ID] = append(idx.subcategories[sub.ID],
					types.TrendPoint{FiscalYear: year, Amount: sub.Amount})
			}
		}
	}

	sortPoints(idx.departments)
	sortPoints(idx.revenueSources)
	sortPoints(idx.subcategories)

	// A single observation of a fine-grained line item is not a trend worth
	// shipping; departments and revenue sources keep length-1 arrays.
	for id, points := range idx.subcategories {
		if len(points) < 2 {
			delete(idx.subcategories, id)
		}
	}

	return idx
}

// sortedYears orders fiscal year tokens ascending. Tokens sort lexically
// because every year shares the same digit width.
func sortedYears(docs map[string]*types.BudgetDocument) []string {
	years := make([]string, 0, len(docs))
	for year := range docs {
		years = append(years, year)
	}
	sort.Strings(years)
	return years
}

func sortPoints(index map[string][]types.TrendPoint) {
	for _, points := range index {
		sort.Slice(points, func(i, j int) bool {
			return points[i].FiscalYear < points[j].FiscalYear
		})
	}
}
