package match

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/civistat/budget_pipeline/internal/budget/config"
)

// UncategorizedKey is the terminal fallback of the revenue chain.
const UncategorizedKey = "uncategorized"

// RevenueResolution is the outcome of categorizing one revenue row.
type RevenueResolution struct {
	Key         string
	Name        string
	RevenueType string
}

// RevenueCategorizer resolves raw revenue rows into configured categories.
//
// The raw data carries three fields of very different reliability: a free-text
// source label, a fund label, and a categorical field that is often blank.
// Resolution therefore runs as a priority chain:
//
//  1. source_overrides matched against the source label; the same tax can be
//     booked under many funds, so these win over everything
//  2. the dataset's own categorical field, via an exact-match dictionary
//  3. the fund label, matched against fund_based_categories
//  4. "uncategorized" / revenue type "other"
//
// A category key missing from display_categories is treated as unmatched and
// the row falls through to the next stage.
type RevenueCategorizer struct {
	cfg    config.RevenueCategorization
	titler cases.Caser
}

// NewRevenueCategorizer builds a categorizer from the entity's revenue
// categorization config.
func NewRevenueCategorizer(cfg config.RevenueCategorization) *RevenueCategorizer {
	return &RevenueCategorizer{
		cfg:    cfg,
		titler: cases.Title(language.AmericanEnglish),
	}
}

// Categorize resolves one revenue row.
func (rc *RevenueCategorizer) Categorize(categoryField, fundName, sourceLabel string) RevenueResolution {
	for _, rule := range rc.cfg.SourceOverrides {
		if MatchesAny(sourceLabel, rule.Patterns) {
			if res, ok := rc.display(rule.Key); ok {
				return res
			}
		}
	}

	if trimmed := strings.TrimSpace(categoryField); trimmed != "" {
		if key, ok := rc.cfg.CategoryFieldMapping[trimmed]; ok {
			if res, ok := rc.display(key); ok {
				return res
			}
		}
	}

	for _, rule := range rc.cfg.FundBasedCategories {
		if MatchesAny(fundName, rule.Patterns) {
			if res, ok := rc.display(rule.Key); ok {
				return res
			}
		}
	}

	return RevenueResolution{
		Key:         UncategorizedKey,
		Name:        "Uncategorized",
		RevenueType: "other",
	}
}

// display looks up the user-facing name and revenue type for a category key.
// ok is false when the key has no display entry.
func (rc *RevenueCategorizer) display(key string) (RevenueResolution, bool) {
	dc, ok := rc.cfg.DisplayCategories[key]
	if !ok {
		return RevenueResolution{}, false
	}
	name := dc.Name
	if name == "" {
		name = rc.titler.String(strings.ReplaceAll(key, "_", " "))
	}
	revenueType := dc.RevenueType
	if revenueType == "" {
		revenueType = "other"
	}
	return RevenueResolution{Key: key, Name: name, RevenueType: revenueType}, true
}
