// Package types defines the normalized budget document schema shared by the
// transformation, validation and trend enrichment engines. The JSON shape of
// BudgetDocument is the persisted contract consumed by the front end, so field
// names and nesting must stay stable across releases.
package types

// SchemaVersion is stamped on every document produced by the pipeline.
const SchemaVersion = "1.0.0"

// PipelineVersion identifies the pipeline release that generated a document.
const PipelineVersion = "1.0.0"

// TrendPoint is one observation in a cross-year time series. Trend arrays are
// always sorted ascending by fiscal year.
type TrendPoint struct {
	FiscalYear string `json:"fiscal_year"`
	Amount     int64  `json:"amount"`
}

// FundBreakdown is the share of a named fund inside a department or a revenue
// source. Amounts can be negative for accounting adjustments.
type FundBreakdown struct {
	FundID   string `json:"fund_id"`
	FundName string `json:"fund_name"`
	Amount   int64  `json:"amount"`
}

// Subcategory is a fine-grained line inside a department (appropriation
// account) or a revenue source (raw source label).
type Subcategory struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Amount int64        `json:"amount"`
	Trend  []TrendPoint `json:"trend,omitempty"`
}

// SimulationConfig carries the adjustment constraints the front-end budget
// simulator applies to a department.
type SimulationConfig struct {
	Adjustable  bool     `json:"adjustable"`
	MinPct      float64  `json:"min_pct"`
	MaxPct      float64  `json:"max_pct"`
	StepPct     float64  `json:"step_pct"`
	Constraints []string `json:"constraints"`
	Description string   `json:"description"`
}

// Department is a single organizational unit with its appropriations. Code is
// the stable cross-year identity key; Name may drift between releases of the
// source data and must not be used for identity.
type Department struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Code            string           `json:"code"`
	Amount          int64            `json:"amount"`
	PriorYearAmount *int64           `json:"prior_year_amount,omitempty"`
	ChangePct       *float64         `json:"change_pct,omitempty"`
	FundBreakdown   []FundBreakdown  `json:"fund_breakdown"`
	Subcategories   []Subcategory    `json:"subcategories"`
	Simulation      SimulationConfig `json:"simulation"`
	Trend           []TrendPoint     `json:"trend,omitempty"`
}

// Fund type categories for FundSummary.
const (
	FundTypeOperating  = "operating"
	FundTypeRestricted = "restricted"
	FundTypeCapital    = "capital"
	FundTypeGrant      = "grant"
)

// FundSummary aggregates one fund across all departments or all revenue
// sources.
type FundSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	FundType string `json:"fund_type"`
}

// Revenue type categories for RevenueSource.
const (
	RevenueTypeTax              = "tax"
	RevenueTypeFee              = "fee"
	RevenueTypeEnterprise       = "enterprise"
	RevenueTypeInternalTransfer = "internal_transfer"
	RevenueTypeDebtProceeds     = "debt_proceeds"
	RevenueTypeOther            = "other"
)

// RevenueSource is one configured revenue category aggregated from raw line
// items. Its ID derives from the config-defined category key, which makes it
// the stable cross-year identity for revenue trends.
type RevenueSource struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Amount        int64           `json:"amount"`
	RevenueType   string          `json:"revenue_type"`
	Subcategories []Subcategory   `json:"subcategories"`
	FundBreakdown []FundBreakdown `json:"fund_breakdown"`
	Trend         []TrendPoint    `json:"trend,omitempty"`
}

// Revenue is the complete revenue side of a document.
type Revenue struct {
	BySource              []RevenueSource `json:"by_source"`
	ByFund                []FundSummary   `json:"by_fund"`
	TotalRevenue          int64           `json:"total_revenue"`
	LocalRevenueOnly      bool            `json:"local_revenue_only"`
	GrantRevenueEstimated *int64          `json:"grant_revenue_estimated,omitempty"`
}

// Metadata describes the entity, the fiscal year and the document totals.
// total_appropriations is always gross_appropriations + accounting_adjustments.
type Metadata struct {
	EntityID                string           `json:"entity_id"`
	EntityName              string           `json:"entity_name"`
	FiscalYear              string           `json:"fiscal_year"`
	FiscalYearLabel         string           `json:"fiscal_year_label"`
	FiscalYearStart         string           `json:"fiscal_year_start"`
	FiscalYearEnd           string           `json:"fiscal_year_end"`
	GrossAppropriations     int64            `json:"gross_appropriations"`
	AccountingAdjustments   int64            `json:"accounting_adjustments"`
	TotalAppropriations     int64            `json:"total_appropriations"`
	OperatingAppropriations *int64           `json:"operating_appropriations,omitempty"`
	FundCategoryBreakdown   map[string]int64 `json:"fund_category_breakdown"`
	DataSource              string           `json:"data_source"`
	SourceDatasetID         string           `json:"source_dataset_id"`
	ExtractionDate          string           `json:"extraction_date"`
	PipelineVersion         string           `json:"pipeline_version"`
	Notes                   string           `json:"notes,omitempty"`
	TotalRevenue            *int64           `json:"total_revenue,omitempty"`
	RevenueSurplusDeficit   *int64           `json:"revenue_surplus_deficit,omitempty"`
}

// Appropriations holds the spending side of a document.
type Appropriations struct {
	ByDepartment []Department  `json:"by_department"`
	ByFund       []FundSummary `json:"by_fund"`
}

// BudgetDocument is the root aggregate: one per entity per fiscal year.
type BudgetDocument struct {
	Metadata       Metadata       `json:"metadata"`
	Appropriations Appropriations `json:"appropriations"`
	Revenue        *Revenue       `json:"revenue,omitempty"`
	SchemaVersion  string         `json:"schema_version"`
}
