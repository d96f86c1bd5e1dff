package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
entities:
  chicago:
    name: City of Chicago
    entity_type: city
    status: active
    default_year: fy2025
    property_tax_share_pct: 22.9
    color: "#41B6E6"
    socrata:
      domain: data.cityofchicago.org
      datasets:
        fy2024:
          appropriations: sj4t-9cdx
        fy2025:
          appropriations: gzry-5xnw
          revenue: rx5x-wvpt
    transform:
      department_column: department_description
      department_code_column: department_number
      fund_description_column: fund_description
      appropriation_account_description_column: appropriation_account_description
      acronyms:
        oemc: OEMC
      non_adjustable_departments:
        - FINANCE GENERAL
      fund_categories:
        - key: grant
          patterns:
            - "*grant*"
        - key: operating
          patterns:
            - "*corporate*"
  springfield:
    name: City of Springfield
    transform:
      department_column: dept
`

func loadSample(t *testing.T) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadSample(t)

	assert.Equal(t, []string{"chicago", "springfield"}, cfg.EntityIDs())

	entity, err := cfg.Entity("chicago")
	require.NoError(t, err)
	assert.Equal(t, "chicago", entity.ID)
	assert.Equal(t, "City of Chicago", entity.Name)
	assert.Equal(t, "fy2025", entity.DefaultYear)
	assert.Equal(t, "OEMC", entity.Transform.Acronyms["oemc"])

	// Rule order in the file is the priority order.
	require.Len(t, entity.Transform.FundCategories, 2)
	assert.Equal(t, "grant", entity.Transform.FundCategories[0].Key)
	assert.Equal(t, "operating", entity.Transform.FundCategories[1].Key)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEntityNotFound(t *testing.T) {
	cfg := loadSample(t)

	_, err := cfg.Entity("gotham")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "chicago")
}

func TestEntityMissingRequiredKey(t *testing.T) {
	cfg := loadSample(t)

	_, err := cfg.Entity("springfield")
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "springfield", cfgErr.Entity)
}

func TestEntityMissingTransformSection(t *testing.T) {
	cfg := &File{Entities: map[string]Entity{"bare": {Name: "Bare"}}}

	_, err := cfg.Entity("bare")
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "transform", cfgErr.Key)
}

func TestDatasetID(t *testing.T) {
	cfg := loadSample(t)
	entity, err := cfg.Entity("chicago")
	require.NoError(t, err)

	id, err := entity.DatasetID("fy2025", "appropriations")
	require.NoError(t, err)
	assert.Equal(t, "gzry-5xnw", id)

	_, err = entity.DatasetID("fy2020", "appropriations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fy2024")
	assert.Contains(t, err.Error(), "fy2025")

	_, err = entity.DatasetID("fy2024", "revenue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revenue")
}

func TestShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "config", "entities.yaml"))
	require.NoError(t, err)

	entity, err := cfg.Entity("chicago")
	require.NoError(t, err)

	// Exclusion entries must be fund-name patterns; exact entries would never
	// match a real fund label.
	require.NotEmpty(t, entity.Transform.NonOperatingFunds)
	for _, pattern := range entity.Transform.NonOperatingFunds {
		assert.Contains(t, pattern, "*", "non_operating_funds entry %q is not a pattern", pattern)
	}

	// Stage-2 lookups are case-sensitive, so mapping keys carry the dataset's
	// literal values.
	mapping := entity.Transform.RevenueCategorization.CategoryFieldMapping
	assert.Contains(t, mapping, "Charges for Services")
	assert.Contains(t, mapping, "Utility Taxes and Fees")

	validTypes := map[string]bool{
		"tax": true, "fee": true, "enterprise": true,
		"internal_transfer": true, "debt_proceeds": true, "other": true,
	}
	for key, dc := range entity.Transform.RevenueCategorization.DisplayCategories {
		assert.True(t, validTypes[dc.RevenueType], "display category %q has revenue_type %q", key, dc.RevenueType)
	}
}

func TestGrantFundedThreshold(t *testing.T) {
	tr := &Transform{}
	assert.InDelta(t, 0.9, tr.Threshold(), 0.0001)

	custom := 0.75
	tr.GrantFundedThreshold = &custom
	assert.InDelta(t, 0.75, tr.Threshold(), 0.0001)
}
