// Package match evaluates the configured categorization rules against raw
// labels. Fund categorization and revenue categorization both go through the
// same matcher so the pattern semantics cannot drift apart.
package match

import (
	"strings"

	"github.com/ryanuber/go-glob"

	"github.com/civistat/budget_pipeline/internal/budget/config"
)

// Matches reports whether label satisfies pattern. A pattern containing '*'
// is a case-insensitive substring test on the text between the stars; any
// other pattern must match exactly.
func Matches(label, pattern string) bool {
	if strings.Contains(pattern, "*") {
		needle := strings.ToLower(strings.ReplaceAll(pattern, "*", ""))
		return glob.Glob("*"+needle+"*", strings.ToLower(label))
	}
	return label == pattern
}

// MatchesAny reports whether label satisfies any pattern in the list.
func MatchesAny(label string, patterns []string) bool {
	for _, pattern := range patterns {
		if Matches(label, pattern) {
			return true
		}
	}
	return false
}

// Categorize returns the key of the first rule whose pattern list matches
// label, or fallback when no rule matches. Rule order is the priority order.
func Categorize(label string, rules []config.CategoryRule, fallback string) string {
	for _, rule := range rules {
		if MatchesAny(label, rule.Patterns) {
			return rule.Key
		}
	}
	return fallback
}
