// Package validate checks the numeric invariants a budget document claims to
// hold: hierarchical sums, identifier uniqueness, revenue reconciliation and
// year-over-year consistency.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/civistat/budget_pipeline/internal/budget/types"
)

// Report is the outcome of one validation pass. Errors fail the document;
// warnings are informational and never halt processing.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Valid reports whether the document passed, i.e. no errors were found.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// DefaultTolerance absorbs floating rounding in dollar sums.
const DefaultTolerance = 1.0

// largeChangeThresholdPct flags year-over-year department swings.
const largeChangeThresholdPct = 50.0

// revenueGapThreshold flags revenue diverging from appropriations by more
// than this fraction.
const revenueGapThreshold = 0.10

var (
	schemaVersionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	fiscalYearPattern    = regexp.MustCompile(`^fy\d{4}$`)
)

// Validator runs every check on every call; checks are independent.
type Validator struct {
	Tolerance float64

	printer *message.Printer
}

// New builds a validator with the default $1 tolerance.
func New() *Validator {
	return NewWithTolerance(DefaultTolerance)
}

// NewWithTolerance builds a validator with a custom dollar tolerance.
func NewWithTolerance(tolerance float64) *Validator {
	return &Validator{
		Tolerance: tolerance,
		printer:   message.NewPrinter(language.AmericanEnglish),
	}
}

// Validate checks doc and, when prior is non-nil, its consistency against the
// prior fiscal year's document.
func (v *Validator) Validate(doc *types.BudgetDocument, prior *types.BudgetDocument) *Report {
	r := &Report{Errors: []string{}, Warnings: []string{}}

	v.checkSchema(doc, r)
	v.checkDepartmentSum(doc, r)
	v.checkSubcategorySums(doc, r)
	v.checkFundBreakdownSums(doc, r)
	v.checkFundSummarySum(doc, r)
	v.checkUniqueIDs(doc, r)
	if doc.Revenue != nil {
		v.checkRevenue(doc, r)
	}
	if prior != nil {
		v.checkCrossYear(doc, prior, r)
	}

	return r
}

func (v *Validator) dollars(amount int64) string {
	return v.printer.Sprintf("$%d", amount)
}

func (v *Validator) within(a, b int64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= v.Tolerance
}

func (v *Validator) checkSchema(doc *types.BudgetDocument, r *Report) {
	if !schemaVersionPattern.MatchString(doc.SchemaVersion) {
		r.Errors = append(r.Errors, fmt.Sprintf("Invalid schema_version %q: must match MAJOR.MINOR.PATCH", doc.SchemaVersion))
	}
	if !fiscalYearPattern.MatchString(doc.Metadata.FiscalYear) {
		r.Errors = append(r.Errors, fmt.Sprintf("Invalid fiscal_year token %q", doc.Metadata.FiscalYear))
	}
}

func (v *Validator) checkDepartmentSum(doc *types.BudgetDocument, r *Report) {
	var deptSum int64
	for _, d := range doc.Appropriations.ByDepartment {
		deptSum += d.Amount
	}
	total := doc.Metadata.TotalAppropriations
	if !v.within(deptSum, total) {
		r.Errors = append(r.Errors, fmt.Sprintf(
			"Department sum (%s) does not match total appropriations (%s)",
			v.dollars(deptSum), v.dollars(total)))
	}
}

// Subcategories are assumed exhaustive per department, so drift here is a
// grouping bug and fails the document.
func (v *Validator) checkSubcategorySums(doc *types.BudgetDocument, r *Report) {
	for _, dept := range doc.Appropriations.ByDepartment {
		if len(dept.Subcategories) == 0 {
			continue
		}
		var sum int64
		for _, s := range dept.Subcategories {
			sum += s.Amount
		}
		if !v.within(sum, dept.Amount) {
			r.Errors = append(r.Errors, fmt.Sprintf(
				"Subcategory sum (%s) does not match department amount (%s) for %s",
				v.dollars(sum), v.dollars(dept.Amount), dept.Name))
		}
	}
}

// Fund labels are sometimes missing on individual source rows, so fund
// breakdown drift is expected occasionally and only warns.
func (v *Validator) checkFundBreakdownSums(doc *types.BudgetDocument, r *Report) {
	for _, dept := range doc.Appropriations.ByDepartment {
		if len(dept.FundBreakdown) == 0 {
			continue
		}
		var sum int64
		for _, f := range dept.FundBreakdown {
			sum += f.Amount
		}
		if !v.within(sum, dept.Amount) {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"Fund breakdown sum (%s) does not match department amount (%s) for %s",
				v.dollars(sum), v.dollars(dept.Amount), dept.Name))
		}
	}
}

func (v *Validator) checkFundSummarySum(doc *types.BudgetDocument, r *Report) {
	var fundSum int64
	for _, f := range doc.Appropriations.ByFund {
		fundSum += f.Amount
	}
	total := doc.Metadata.TotalAppropriations
	if !v.within(fundSum, total) {
		r.Errors = append(r.Errors, fmt.Sprintf(
			"Fund summary sum (%s) does not match total appropriations (%s)",
			v.dollars(fundSum), v.dollars(total)))
	}
}

func (v *Validator) checkUniqueIDs(doc *types.BudgetDocument, r *Report) {
	seen := make(map[string]int)
	for _, dept := range doc.Appropriations.ByDepartment {
		seen[dept.ID]++
	}
	if dupes := duplicates(seen); len(dupes) > 0 {
		r.Errors = append(r.Errors, fmt.Sprintf("Duplicate department IDs found: %v", dupes))
	}

	for _, dept := range doc.Appropriations.ByDepartment {
		subSeen := make(map[string]int)
		for _, s := range dept.Subcategories {
			subSeen[s.ID]++
		}
		if dupes := duplicates(subSeen); len(dupes) > 0 {
			r.Errors = append(r.Errors, fmt.Sprintf("Duplicate subcategory IDs in %s: %v", dept.Name, dupes))
		}
	}
}

func duplicates(counts map[string]int) []string {
	var dupes []string
	for id, n := range counts {
		if n > 1 {
			dupes = append(dupes, id)
		}
	}
	sort.Strings(dupes)
	return dupes
}

func (v *Validator) checkRevenue(doc *types.BudgetDocument, r *Report) {
	rev := doc.Revenue

	var sourceSum int64
	for _, s := range rev.BySource {
		sourceSum += s.Amount
	}
	if !v.within(sourceSum, rev.TotalRevenue) {
		r.Errors = append(r.Errors, fmt.Sprintf(
			"Revenue source sum (%s) does not match total revenue (%s)",
			v.dollars(sourceSum), v.dollars(rev.TotalRevenue)))
	}

	// A wide gap between revenue and appropriations is often debt financing
	// or a fund-balance draw, so it only warns.
	approp := doc.Metadata.TotalAppropriations
	if approp != 0 {
		gap := float64(rev.TotalRevenue-approp) / float64(approp)
		if gap < 0 {
			gap = -gap
		}
		if gap > revenueGapThreshold {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"Revenue (%s) diverges from appropriations (%s) by %.1f%%",
				v.dollars(rev.TotalRevenue), v.dollars(approp), gap*100))
		}
	}

	if rev.GrantRevenueEstimated != nil && *rev.GrantRevenueEstimated > 0 {
		allIn := rev.TotalRevenue + *rev.GrantRevenueEstimated
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"Revenue excludes an estimated %s in grant funding; the all-in budget total is %s",
			v.dollars(*rev.GrantRevenueEstimated), v.dollars(allIn)))
	}

	for _, source := range rev.BySource {
		if len(source.Subcategories) == 0 {
			continue
		}
		var sum int64
		for _, s := range source.Subcategories {
			sum += s.Amount
		}
		if !v.within(sum, source.Amount) {
			r.Errors = append(r.Errors, fmt.Sprintf(
				"Subcategory sum (%s) does not match revenue source amount (%s) for %s",
				v.dollars(sum), v.dollars(source.Amount), source.Name))
		}
	}
}

// checkCrossYear matches departments by code, the same stable key the trend
// enricher uses. Reshuffling is legitimate, so appearances and disappearances
// only warn.
func (v *Validator) checkCrossYear(current, prior *types.BudgetDocument, r *Report) {
	currentByCode := make(map[string]types.Department)
	for _, d := range current.Appropriations.ByDepartment {
		currentByCode[d.Code] = d
	}
	priorByCode := make(map[string]types.Department)
	for _, d := range prior.Appropriations.ByDepartment {
		priorByCode[d.Code] = d
	}

	codes := make([]string, 0, len(currentByCode))
	for code := range currentByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var added []string
	for _, code := range codes {
		cur := currentByCode[code]
		prev, ok := priorByCode[code]
		if !ok {
			added = append(added, cur.Name)
			continue
		}
		if prev.Amount > 0 {
			changePct := (float64(cur.Amount) - float64(prev.Amount)) / float64(prev.Amount) * 100
			if changePct > largeChangeThresholdPct || changePct < -largeChangeThresholdPct {
				r.Warnings = append(r.Warnings, fmt.Sprintf(
					"%s: large year-over-year change: %+.1f%% (%s -> %s)",
					cur.Name, changePct, v.dollars(prev.Amount), v.dollars(cur.Amount)))
			}
		}
	}

	var removed []string
	for code, prev := range priorByCode {
		if _, ok := currentByCode[code]; !ok {
			removed = append(removed, prev.Name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	if len(added) > 0 {
		r.Warnings = append(r.Warnings, "New departments: "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		r.Warnings = append(r.Warnings, "Removed departments: "+strings.Join(removed, ", "))
	}
}
