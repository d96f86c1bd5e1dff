package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "police-department", Slugify("Police Department"))
	assert.Equal(t, "o-hare-airport-operations", Slugify("O'Hare Airport (Operations)"))
	assert.Equal(t, "dept-fire-department", Slugify("dept-FIRE DEPARTMENT"))
	assert.Equal(t, "salaries-wages", Slugify("  Salaries & Wages  "))
	assert.Equal(t, "", Slugify("***"))
}

func TestFiscalYearDigits(t *testing.T) {
	assert.Equal(t, "2025", FiscalYearDigits("fy2025"))
	assert.Equal(t, "2025", FiscalYearDigits("FY2025"))
}

func TestFiscalYearLabel(t *testing.T) {
	assert.Equal(t, "FY2025", FiscalYearLabel("fy2025"))
}

func TestFiscalYearBounds(t *testing.T) {
	start, end, err := FiscalYearBounds("fy2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", start)
	assert.Equal(t, "2025-12-31", end)

	_, _, err = FiscalYearBounds("fyabcd")
	assert.Error(t, err)
}
