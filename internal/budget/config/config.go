// Package config loads the per-entity pipeline configuration from YAML.
// Categorization rules are ordered lists, not maps: on an ambiguous label the
// first matching rule wins, and that priority is part of the contract.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Error reports a missing required configuration section or key. It is fatal
// for the affected entity; other entities keep processing.
type Error struct {
	Entity string
	Key    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("entity %q: missing required config key %q", e.Entity, e.Key)
}

// CategoryRule maps one category key to the patterns that select it. Patterns
// containing '*' are case-insensitive substring tests; anything else must
// match exactly.
type CategoryRule struct {
	Key      string   `yaml:"key"`
	Patterns []string `yaml:"patterns"`
}

// DisplayCategory carries the user-facing name and revenue type for a
// category key. A key absent from the display table is treated as unmatched
// by the revenue categorizer.
type DisplayCategory struct {
	Name        string `yaml:"name"`
	RevenueType string `yaml:"revenue_type"`
}

// RevenueCategorization configures the 4-stage revenue categorization chain.
type RevenueCategorization struct {
	SourceOverrides      []CategoryRule             `yaml:"source_overrides"`
	CategoryFieldMapping map[string]string          `yaml:"category_field_mapping"`
	FundBasedCategories  []CategoryRule             `yaml:"fund_based_categories"`
	DisplayCategories    map[string]DisplayCategory `yaml:"display_categories"`
}

// RevenueColumns names the relevant columns in the revenue dataset.
type RevenueColumns struct {
	SourceColumn   string `yaml:"source_column"`
	FundColumn     string `yaml:"fund_column"`
	CategoryColumn string `yaml:"category_column"`
}

// Transform is the entity's transformation section.
type Transform struct {
	DepartmentColumn                      string `yaml:"department_column"`
	DepartmentCodeColumn                  string `yaml:"department_code_column"`
	FundDescriptionColumn                 string `yaml:"fund_description_column"`
	AppropriationAccountDescriptionColumn string `yaml:"appropriation_account_description_column"`

	Acronyms                 map[string]string `yaml:"acronyms"`
	NonAdjustableDepartments []string          `yaml:"non_adjustable_departments"`
	GrantFundedThreshold     *float64          `yaml:"grant_funded_threshold"`

	FundCategories    []CategoryRule `yaml:"fund_categories"`
	NonOperatingFunds []string       `yaml:"non_operating_funds"`

	RevenueColumns        RevenueColumns        `yaml:"revenue_columns"`
	RevenueCategorization RevenueCategorization `yaml:"revenue_categorization"`
}

// DefaultGrantFundedThreshold applies when the entity does not set one.
const DefaultGrantFundedThreshold = 0.9

// Threshold returns the grant-funded fraction above which a department gets
// tightened simulation constraints.
func (t *Transform) Threshold() float64 {
	if t.GrantFundedThreshold == nil {
		return DefaultGrantFundedThreshold
	}
	return *t.GrantFundedThreshold
}

// Socrata identifies the source datasets per fiscal year and dataset type
// (e.g. "appropriations", "revenue").
type Socrata struct {
	Domain   string                       `yaml:"domain"`
	Datasets map[string]map[string]string `yaml:"datasets"`
}

// Entity is one configured government entity.
type Entity struct {
	ID                  string     `yaml:"-"`
	Name                string     `yaml:"name"`
	EntityType          string     `yaml:"entity_type"`
	Status              string     `yaml:"status"`
	DefaultYear         string     `yaml:"default_year"`
	PropertyTaxSharePct float64    `yaml:"property_tax_share_pct"`
	Color               string     `yaml:"color"`
	Socrata             Socrata    `yaml:"socrata"`
	Transform           *Transform `yaml:"transform"`
}

// File is the parsed entities configuration file.
type File struct {
	Entities map[string]Entity `yaml:"entities"`
}

// Load parses the entities YAML file at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

// EntityIDs returns the configured entity ids, sorted.
func (f *File) EntityIDs() []string {
	ids := make([]string, 0, len(f.Entities))
	for id := range f.Entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entity returns the configuration for one entity, validated for the keys the
// transformation engine cannot run without.
func (f *File) Entity(id string) (Entity, error) {
	e, ok := f.Entities[id]
	if !ok {
		return Entity{}, fmt.Errorf("entity %q not found in config, available: %v", id, f.EntityIDs())
	}
	e.ID = id

	if e.Transform == nil {
		return Entity{}, &Error{Entity: id, Key: "transform"}
	}
	required := map[string]string{
		"transform.department_column":                        e.Transform.DepartmentColumn,
		"transform.department_code_column":                   e.Transform.DepartmentCodeColumn,
		"transform.fund_description_column":                  e.Transform.FundDescriptionColumn,
		"transform.appropriation_account_description_column": e.Transform.AppropriationAccountDescriptionColumn,
	}
	for key, value := range required {
		if value == "" {
			return Entity{}, &Error{Entity: id, Key: key}
		}
	}

	return e, nil
}

// DatasetID resolves the source dataset for (fiscal year, dataset type).
// An unconfigured combination is reported with the available years so the gap
// is obvious from the log line alone.
func (e Entity) DatasetID(fiscalYear, datasetType string) (string, error) {
	year, ok := e.Socrata.Datasets[fiscalYear]
	if !ok {
		years := make([]string, 0, len(e.Socrata.Datasets))
		for y := range e.Socrata.Datasets {
			years = append(years, y)
		}
		sort.Strings(years)
		return "", fmt.Errorf("entity %q: fiscal year %q not configured, available: %v", e.ID, fiscalYear, years)
	}
	id, ok := year[datasetType]
	if !ok {
		return "", fmt.Errorf("entity %q: dataset type %q not configured for %s", e.ID, datasetType, fiscalYear)
	}
	return id, nil
}
