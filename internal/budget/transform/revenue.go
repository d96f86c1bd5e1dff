package transform

import (
	"sort"

	"github.com/civistat/budget_pipeline/internal/budget/match"
	"github.com/civistat/budget_pipeline/internal/budget/table"
	"github.com/civistat/budget_pipeline/internal/budget/types"
)

// revenue dataset column fallbacks when the entity config leaves them unset.
const (
	defaultSourceColumn   = "revenue_source"
	defaultFundColumn     = "fund_name"
	defaultCategoryColumn = "revenue_category"
)

// transformRevenue aggregates raw revenue line items into categorized revenue
// sources. Zero-amount rows are dropped here, unlike on the appropriations
// side where zeros are kept.
func (e *Engine) transformRevenue(records *table.RecordSet, fiscalYear string) (*types.Revenue, error) {
	amountCol, err := records.ResolveAmountColumn(fiscalYear)
	if err != nil {
		return nil, err
	}

	sourceCol := e.cfg.RevenueColumns.SourceColumn
	if sourceCol == "" {
		sourceCol = defaultSourceColumn
	}
	fundCol := e.cfg.RevenueColumns.FundColumn
	if fundCol == "" {
		fundCol = defaultFundColumn
	}
	categoryCol := e.cfg.RevenueColumns.CategoryColumn
	if categoryCol == "" {
		categoryCol = defaultCategoryColumn
	}

	type group struct {
		resolution  match.RevenueResolution
		total       float64
		fundOrder   []string
		fundTotals  map[string]float64
		labelOrder  []string
		labelTotals map[string]float64
	}

	groups := make(map[string]*group)
	var order []string

	for i := 0; i < records.Nrow(); i++ {
		amount, ok := records.Amount(amountCol, i)
		if !ok || amount == 0 {
			continue
		}
		sourceLabel := records.Get(sourceCol, i)
		fundName := records.Get(fundCol, i)
		resolution := e.revenue.Categorize(records.Get(categoryCol, i), fundName, sourceLabel)

		g, seen := groups[resolution.Key]
		if !seen {
			g = &group{
				resolution:  resolution,
				fundTotals:  make(map[string]float64),
				labelTotals: make(map[string]float64),
			}
			groups[resolution.Key] = g
			order = append(order, resolution.Key)
		}
		g.total += amount
		if _, seen := g.fundTotals[fundName]; !seen {
			g.fundOrder = append(g.fundOrder, fundName)
		}
		g.fundTotals[fundName] += amount
		if _, seen := g.labelTotals[sourceLabel]; !seen {
			g.labelOrder = append(g.labelOrder, sourceLabel)
		}
		g.labelTotals[sourceLabel] += amount
	}

	sources := make([]types.RevenueSource, 0, len(order))
	for _, key := range order {
		g := groups[key]

		fundBreakdown := make([]types.FundBreakdown, 0, len(g.fundOrder))
		for _, fund := range g.fundOrder {
			fundBreakdown = append(fundBreakdown, types.FundBreakdown{
				FundID:   types.Slugify(fund),
				FundName: fund,
				Amount:   int64(g.fundTotals[fund]),
			})
		}
		sortFundBreakdown(fundBreakdown)

		subcategories := make([]types.Subcategory, 0, len(g.labelOrder))
		for _, label := range g.labelOrder {
			subcategories = append(subcategories, types.Subcategory{
				ID:     types.Slugify(key + "-" + label),
				Name:   label,
				Amount: int64(g.labelTotals[label]),
			})
		}
		sortSubcategories(subcategories)

		sources = append(sources, types.RevenueSource{
			ID:            types.Slugify("revenue-" + key),
			Name:          g.resolution.Name,
			Amount:        int64(g.total),
			RevenueType:   g.resolution.RevenueType,
			Subcategories: subcategories,
			FundBreakdown: fundBreakdown,
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Amount > sources[j].Amount
	})

	// Fund summary across all revenue sources. The revenue datasets cover
	// local funds only, so everything lands in the operating bucket.
	fundTotals := make(map[string]int64)
	var fundOrder []string
	for _, source := range sources {
		for _, fb := range source.FundBreakdown {
			if _, seen := fundTotals[fb.FundName]; !seen {
				fundOrder = append(fundOrder, fb.FundName)
			}
			fundTotals[fb.FundName] += fb.Amount
		}
	}
	byFund := make([]types.FundSummary, 0, len(fundOrder))
	for _, name := range fundOrder {
		byFund = append(byFund, types.FundSummary{
			ID:       types.Slugify(name),
			Name:     name,
			Amount:   fundTotals[name],
			FundType: types.FundTypeOperating,
		})
	}
	sort.SliceStable(byFund, func(i, j int) bool {
		return byFund[i].Amount > byFund[j].Amount
	})

	var total int64
	uncategorized := int64(0)
	for _, source := range sources {
		total += source.Amount
		if source.ID == types.Slugify("revenue-"+match.UncategorizedKey) {
			uncategorized = source.Amount
		}
	}
	if uncategorized != 0 {
		e.log.Warn(component, "Uncategorized revenue remains: entity=%s fiscalYear=%s amount=%d", e.entity.ID, fiscalYear, uncategorized)
	}

	return &types.Revenue{
		BySource:         sources,
		ByFund:           byFund,
		TotalRevenue:     total,
		LocalRevenueOnly: true,
	}, nil
}
