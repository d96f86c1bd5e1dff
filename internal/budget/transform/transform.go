// Package transform converts raw appropriation and revenue line items into a
// normalized budget document for one entity and fiscal year.
package transform

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/civistat/budget_pipeline/internal/budget/config"
	"github.com/civistat/budget_pipeline/internal/budget/match"
	"github.com/civistat/budget_pipeline/internal/budget/table"
	"github.com/civistat/budget_pipeline/internal/budget/types"
	"github.com/civistat/budget_pipeline/internal/logger"
)

const component = "Transformer"

// Engine transforms raw record sets for a single configured entity.
type Engine struct {
	entity config.Entity
	cfg    *config.Transform

	acronyms      map[string]string
	nonAdjustable map[string]struct{}
	revenue       *match.RevenueCategorizer
	titler        cases.Caser
	log           *logger.Logger

	// overridable in tests
	now func() time.Time
}

// New builds an engine for the entity. The entity must carry a transform
// section; a missing section is a *config.Error.
func New(entity config.Entity, log *logger.Logger) (*Engine, error) {
	if entity.Transform == nil {
		return nil, &config.Error{Entity: entity.ID, Key: "transform"}
	}
	cfg := entity.Transform

	acronyms := make(map[string]string, len(cfg.Acronyms))
	for word, rendering := range cfg.Acronyms {
		acronyms[strings.ToLower(word)] = rendering
	}
	nonAdjustable := make(map[string]struct{}, len(cfg.NonAdjustableDepartments))
	for _, name := range cfg.NonAdjustableDepartments {
		nonAdjustable[strings.ToUpper(name)] = struct{}{}
	}

	return &Engine{
		entity:        entity,
		cfg:           cfg,
		acronyms:      acronyms,
		nonAdjustable: nonAdjustable,
		revenue:       match.NewRevenueCategorizer(cfg.RevenueCategorization),
		titler:        cases.Title(language.AmericanEnglish),
		log:           log,
		now:           time.Now,
	}, nil
}

// Input is one transform call. PriorFiscalYear must accompany PriorRecords:
// the engine never derives it by year arithmetic.
type Input struct {
	Records    *table.RecordSet
	FiscalYear string

	PriorRecords    *table.RecordSet
	PriorFiscalYear string

	RevenueRecords  *table.RecordSet
	DataSource      string
	SourceDatasetID string
}

// lineItem is one coerced appropriation row.
type lineItem struct {
	dept    string // normalized display name
	code    string
	fund    string
	account string
	amount  float64
}

// Transform produces the complete budget document for in.FiscalYear.
func (e *Engine) Transform(in Input) (*types.BudgetDocument, error) {
	amountCol, err := in.Records.ResolveAmountColumn(in.FiscalYear)
	if err != nil {
		return nil, err
	}
	e.log.Debug(component, "Resolved amount column: entity=%s fiscalYear=%s column=%s", e.entity.ID, in.FiscalYear, amountCol)

	items := e.coerceLineItems(in.Records, amountCol)
	e.log.Info(component, "Coerced appropriation rows: entity=%s fiscalYear=%s rows=%d kept=%d", e.entity.ID, in.FiscalYear, in.Records.Nrow(), len(items))

	var priorTotals map[string]float64
	if in.PriorRecords != nil {
		priorTotals, err = e.priorYearTotals(in.PriorRecords, in.PriorFiscalYear)
		if err != nil {
			return nil, err
		}
	}

	departments := e.buildDepartments(items, priorTotals)
	byFund := e.buildFundSummary(departments)

	gross, adjustments := rowTotals(items)
	total := gross + adjustments

	categoryBreakdown := e.fundCategoryBreakdown(departments)
	operating := e.operatingAppropriations(departments, total, categoryBreakdown)

	fyStart, fyEnd, err := types.FiscalYearBounds(in.FiscalYear)
	if err != nil {
		return nil, err
	}

	grantTotal := int64(0)
	for _, f := range byFund {
		if strings.Contains(strings.ToLower(f.Name), "grant") {
			grantTotal += f.Amount
		}
	}

	metadata := types.Metadata{
		EntityID:                e.entity.ID,
		EntityName:              e.entity.Name,
		FiscalYear:              in.FiscalYear,
		FiscalYearLabel:         types.FiscalYearLabel(in.FiscalYear),
		FiscalYearStart:         fyStart,
		FiscalYearEnd:           fyEnd,
		GrossAppropriations:     gross,
		AccountingAdjustments:   adjustments,
		TotalAppropriations:     total,
		OperatingAppropriations: operating,
		FundCategoryBreakdown:   categoryBreakdown,
		DataSource:              in.DataSource,
		SourceDatasetID:         in.SourceDatasetID,
		ExtractionDate:          e.now().Format("2006-01-02"),
		PipelineVersion:         types.PipelineVersion,
		Notes: "Total appropriations include accounting adjustments. " +
			"Operating appropriations exclude non-operating funds. " +
			"Fund categories are entity-specific.",
	}

	doc := &types.BudgetDocument{
		Metadata: metadata,
		Appropriations: types.Appropriations{
			ByDepartment: departments,
			ByFund:       byFund,
		},
		SchemaVersion: types.SchemaVersion,
	}

	if in.RevenueRecords != nil && in.RevenueRecords.Nrow() > 0 {
		revenue, err := e.transformRevenue(in.RevenueRecords, in.FiscalYear)
		if err != nil {
			return nil, err
		}
		if grantTotal > 0 {
			revenue.GrantRevenueEstimated = &grantTotal
		}
		doc.Revenue = revenue
		doc.Metadata.TotalRevenue = &revenue.TotalRevenue
		surplus := revenue.TotalRevenue - total
		doc.Metadata.RevenueSurplusDeficit = &surplus
	}

	e.log.Info(component, "Transform complete: entity=%s fiscalYear=%s departments=%d totalAppropriations=%d", e.entity.ID, in.FiscalYear, len(departments), total)
	return doc, nil
}

// coerceLineItems parses every row's amount, dropping unparseable rows and
// keeping zeros and negatives. Negative amounts are legitimate accounting
// adjustments and must survive through to the totals.
func (e *Engine) coerceLineItems(records *table.RecordSet, amountCol string) []lineItem {
	items := make([]lineItem, 0, records.Nrow())
	dropped := 0
	for i := 0; i < records.Nrow(); i++ {
		amount, ok := records.Amount(amountCol, i)
		if !ok {
			dropped++
			continue
		}
		items = append(items, lineItem{
			dept:    e.TitleCaseWithAcronyms(records.Get(e.cfg.DepartmentColumn, i)),
			code:    records.Get(e.cfg.DepartmentCodeColumn, i),
			fund:    records.Get(e.cfg.FundDescriptionColumn, i),
			account: records.Get(e.cfg.AppropriationAccountDescriptionColumn, i),
			amount:  amount,
		})
	}
	if dropped > 0 {
		e.log.Warn(component, "Dropped unparseable amount rows: entity=%s dropped=%d", e.entity.ID, dropped)
	}
	return items
}

// TitleCaseWithAcronyms lower-cases text and title-cases each word, except
// words present in the configured acronym dictionary, which are rendered
// exactly as configured.
func (e *Engine) TitleCaseWithAcronyms(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i, word := range words {
		if rendering, ok := e.acronyms[word]; ok {
			words[i] = rendering
		} else {
			words[i] = e.titler.String(word)
		}
	}
	return strings.Join(words, " ")
}

// buildDepartments groups line items by (normalized name, code) and assembles
// the per-department structures. Code is the stable cross-year identity, but
// the composite key keeps codes reused for different purposes apart.
func (e *Engine) buildDepartments(items []lineItem, priorTotals map[string]float64) []types.Department {
	type group struct {
		name, code   string
		total        float64
		fundOrder    []string
		fundTotals   map[string]float64
		acctOrder    []string
		acctTotals   map[string]float64
	}

	groups := make(map[string]*group)
	var order []string

	for _, item := range items {
		key := item.dept + "\x00" + item.code
		g, ok := groups[key]
		if !ok {
			g = &group{
				name:       item.dept,
				code:       item.code,
				fundTotals: make(map[string]float64),
				acctTotals: make(map[string]float64),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.total += item.amount
		if _, seen := g.fundTotals[item.fund]; !seen {
			g.fundOrder = append(g.fundOrder, item.fund)
		}
		g.fundTotals[item.fund] += item.amount
		if _, seen := g.acctTotals[item.account]; !seen {
			g.acctOrder = append(g.acctOrder, item.account)
		}
		g.acctTotals[item.account] += item.amount
	}

	departments := make([]types.Department, 0, len(order))
	for _, key := range order {
		g := groups[key]
		total := int64(g.total)

		fundBreakdown := make([]types.FundBreakdown, 0, len(g.fundOrder))
		for _, fund := range g.fundOrder {
			fundBreakdown = append(fundBreakdown, types.FundBreakdown{
				FundID:   types.Slugify(fund),
				FundName: fund,
				Amount:   int64(g.fundTotals[fund]),
			})
		}
		sortFundBreakdown(fundBreakdown)

		subcategories := make([]types.Subcategory, 0, len(g.acctOrder))
		for _, acct := range g.acctOrder {
			subcategories = append(subcategories, types.Subcategory{
				ID:     types.Slugify(g.name + "-" + acct),
				Name:   acct,
				Amount: int64(g.acctTotals[acct]),
			})
		}
		sortSubcategories(subcategories)

		dept := types.Department{
			ID:            types.Slugify("dept-" + g.name),
			Name:          g.name,
			Code:          g.code,
			Amount:        total,
			FundBreakdown: fundBreakdown,
			Subcategories: subcategories,
			Simulation:    e.simulationConfig(g.name, fundBreakdown, total),
		}

		if priorTotals != nil {
			if priorSum, ok := priorTotals[g.name]; ok {
				prior := int64(priorSum)
				dept.PriorYearAmount = &prior
				if prior > 0 {
					change := (float64(total) - float64(prior)) / float64(prior) * 100
					dept.ChangePct = &change
				}
			}
		}

		departments = append(departments, dept)
	}

	sort.SliceStable(departments, func(i, j int) bool {
		return departments[i].Amount > departments[j].Amount
	})
	return departments
}

// priorYearTotals aggregates the prior year's amounts by normalized
// department name, for year-over-year comparison.
func (e *Engine) priorYearTotals(records *table.RecordSet, priorFiscalYear string) (map[string]float64, error) {
	amountCol, err := records.ResolveAmountColumn(priorFiscalYear)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for i := 0; i < records.Nrow(); i++ {
		amount, ok := records.Amount(amountCol, i)
		if !ok {
			continue
		}
		name := e.TitleCaseWithAcronyms(records.Get(e.cfg.DepartmentColumn, i))
		totals[name] += amount
	}
	return totals, nil
}

// simulationConfig derives the adjustment constraints for a department, in
// priority order: legally mandated, grant-funded above threshold, standard.
func (e *Engine) simulationConfig(deptName string, fundBreakdown []types.FundBreakdown, total int64) types.SimulationConfig {
	if _, ok := e.nonAdjustable[strings.ToUpper(deptName)]; ok {
		return types.SimulationConfig{
			Adjustable:  false,
			MinPct:      1.0,
			MaxPct:      1.0,
			StepPct:     0.01,
			Constraints: []string{"Debt service and pension obligations are legally mandated"},
			Description: "This department cannot be adjusted due to legal obligations.",
		}
	}

	var grantAmount int64
	for _, fb := range fundBreakdown {
		if strings.Contains(strings.ToLower(fb.FundName), "grant") {
			grantAmount += fb.Amount
		}
	}
	grantPct := 0.0
	if total > 0 {
		grantPct = float64(grantAmount) / float64(total)
	}

	if grantPct > e.cfg.Threshold() {
		return types.SimulationConfig{
			Adjustable: true,
			MinPct:     0.9,
			MaxPct:     1.1,
			StepPct:    0.01,
			Constraints: []string{fmt.Sprintf(
				"Department is %.0f%% grant-funded; grants are restricted and cannot be reallocated",
				grantPct*100,
			)},
			Description: "Limited adjustment due to restricted grant funding.",
		}
	}

	return types.SimulationConfig{
		Adjustable:  true,
		MinPct:      0.5,
		MaxPct:      1.5,
		StepPct:     0.01,
		Constraints: []string{},
		Description: "This department can be adjusted within standard constraints.",
	}
}

// buildFundSummary aggregates fund breakdowns across all departments.
func (e *Engine) buildFundSummary(departments []types.Department) []types.FundSummary {
	totals := make(map[string]int64)
	var order []string
	for _, dept := range departments {
		for _, fb := range dept.FundBreakdown {
			if _, seen := totals[fb.FundName]; !seen {
				order = append(order, fb.FundName)
			}
			totals[fb.FundName] += fb.Amount
		}
	}

	byFund := make([]types.FundSummary, 0, len(order))
	for _, name := range order {
		fundType := types.FundTypeOperating
		if strings.Contains(strings.ToLower(name), "grant") {
			fundType = types.FundTypeGrant
		}
		byFund = append(byFund, types.FundSummary{
			ID:       types.Slugify(name),
			Name:     name,
			Amount:   totals[name],
			FundType: fundType,
		})
	}
	sort.SliceStable(byFund, func(i, j int) bool {
		return byFund[i].Amount > byFund[j].Amount
	})
	return byFund
}

// fundCategoryBreakdown sums department fund breakdowns per configured fund
// category. Uncategorized funds default to "operating".
func (e *Engine) fundCategoryBreakdown(departments []types.Department) map[string]int64 {
	breakdown := make(map[string]int64)
	for _, dept := range departments {
		for _, fb := range dept.FundBreakdown {
			category := match.Categorize(fb.FundName, e.cfg.FundCategories, types.FundTypeOperating)
			breakdown[category] += fb.Amount
		}
	}
	return breakdown
}

// operatingAppropriations derives the operating total, preferring the explicit
// non_operating_funds exclusion list over the "operating" category bucket.
// When neither is configured the value stays unset.
func (e *Engine) operatingAppropriations(departments []types.Department, total int64, categoryBreakdown map[string]int64) *int64 {
	if len(e.cfg.NonOperatingFunds) > 0 {
		var nonOperating int64
		for _, dept := range departments {
			for _, fb := range dept.FundBreakdown {
				if match.MatchesAny(fb.FundName, e.cfg.NonOperatingFunds) {
					nonOperating += fb.Amount
				}
			}
		}
		operating := total - nonOperating
		return &operating
	}
	if len(categoryBreakdown) > 0 {
		if operating, ok := categoryBreakdown[types.FundTypeOperating]; ok {
			return &operating
		}
	}
	return nil
}

// rowTotals computes gross (positive rows) and adjustments (negative rows) at
// line-item granularity, before any grouping.
func rowTotals(items []lineItem) (gross, adjustments int64) {
	var pos, neg float64
	for _, item := range items {
		if item.amount > 0 {
			pos += item.amount
		} else if item.amount < 0 {
			neg += item.amount
		}
	}
	return int64(pos), int64(neg)
}

func sortFundBreakdown(fb []types.FundBreakdown) {
	sort.SliceStable(fb, func(i, j int) bool { return fb[i].Amount > fb[j].Amount })
}

func sortSubcategories(sc []types.Subcategory) {
	sort.SliceStable(sc, func(i, j int) bool { return sc[i].Amount > sc[j].Amount })
}
