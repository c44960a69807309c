package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsQueryFilters(t *testing.T) {
	query := AnalyticsQuery{
		TenantID:       "tenant-1",
		AcademicYearID: "ay-2026",
		StartDate:      "2026-03-01",
		EndDate:        "2026-03-31",
		ClassID:        "class-1",
	}

	filters, err := query.Filters()
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", filters.TenantID)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), filters.StartDate)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), filters.EndDate)
	assert.True(t, filters.ScopeReady())
}

func TestAnalyticsQueryFiltersMissingScopeIsNotAnError(t *testing.T) {
	filters, err := AnalyticsQuery{TenantID: "tenant-1"}.Filters()
	require.NoError(t, err)
	assert.False(t, filters.ScopeReady())
}

func TestAnalyticsQueryFiltersRejectsMalformedDate(t *testing.T) {
	_, err := AnalyticsQuery{StartDate: "March 1st"}.Filters()
	assert.Error(t, err)
}

func TestAnalyticsQueryFiltersRejectsInvertedRange(t *testing.T) {
	_, err := AnalyticsQuery{StartDate: "2026-03-31", EndDate: "2026-03-01"}.Filters()
	assert.Error(t, err)
}

func TestAnalyticsQueryFiltersRejectsNonPositiveLimit(t *testing.T) {
	_, err := AnalyticsQuery{Limit: -2}.Filters()
	assert.Error(t, err)
}

func TestExportQueryValidateFormat(t *testing.T) {
	assert.NoError(t, ExportQuery{Format: "csv"}.Validate())
	assert.NoError(t, ExportQuery{Format: ""}.Validate())
	assert.Error(t, ExportQuery{Format: "xlsx"}.Validate())
}
