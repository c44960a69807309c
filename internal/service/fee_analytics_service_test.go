package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-insights-api/internal/analytics"
	"github.com/noah-isme/school-insights-api/internal/models"
)

type mockFeeRepo struct {
	studentIDs   []string
	current      []models.FeeEntry
	previous     []models.FeeEntry
	entriesErr   error
	entriesCalls int
}

func (m *mockFeeRepo) EnrolledStudentIDs(_ context.Context, _ models.QueryFilters) ([]string, error) {
	return m.studentIDs, nil
}

func (m *mockFeeRepo) Entries(_ context.Context, filters models.QueryFilters, period analytics.Period, _ []string) ([]models.FeeEntry, error) {
	m.entriesCalls++
	if m.entriesErr != nil {
		return nil, m.entriesErr
	}
	if period.Start.Equal(filters.StartDate) {
		return m.current, nil
	}
	return m.previous, nil
}

func datePtr(t time.Time) *time.Time { return &t }

func TestFeeReportStatusAndAging(t *testing.T) {
	asOf := scopedFilters().EndDate
	repo := &mockFeeRepo{
		studentIDs: []string{"stu-paid", "stu-current", "stu-aged"},
		current: []models.FeeEntry{
			{StudentID: "stu-paid", Billed: 500, Paid: 500},
			{StudentID: "stu-current", Billed: 400, Paid: 100, DueDate: datePtr(asOf.AddDate(0, 0, 10))},
			{StudentID: "stu-aged", Billed: 1000, Paid: 200, DueDate: datePtr(asOf.AddDate(0, 0, -75))},
		},
	}
	names := &stubNameResolver{names: map[string]string{"stu-aged": "Asha Rao"}}
	svc := NewFeeAnalyticsService(repo, names, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 3)

	top := report.RankedRows[0]
	assert.Equal(t, "stu-aged", top.StudentID)
	assert.Equal(t, "Asha Rao", top.StudentName)
	assert.InDelta(t, 800, top.TotalDue, 0.001)
	assert.Equal(t, models.FeeStatusOverdue, top.Status)
	assert.Equal(t, models.FeeAging60to90, top.AgingBucket)

	assert.Equal(t, 1, report.Aggregation.StatusCounts[models.FeeStatusPaid])
	assert.Equal(t, 1, report.Aggregation.StatusCounts[models.FeeStatusCurrent])
	assert.Equal(t, 1, report.Aggregation.StatusCounts[models.FeeStatusOverdue])
	assert.Equal(t, 2, report.Aggregation.AgingBuckets[models.FeeAgingCurrent])
	assert.Equal(t, 1, report.Aggregation.AgingBuckets[models.FeeAging60to90])
	assert.InDelta(t, 1900, report.Aggregation.TotalBilled, 0.001)
	assert.InDelta(t, 800, report.Aggregation.TotalPaid, 0.001)
	assert.InDelta(t, 42.105, report.Aggregation.CollectionRate, 0.001)
}

func TestFeeReportDuesTrend(t *testing.T) {
	repo := &mockFeeRepo{
		studentIDs: []string{"stu-1"},
		current:    []models.FeeEntry{{StudentID: "stu-1", Billed: 300, Paid: 100}},
		previous:   []models.FeeEntry{{StudentID: "stu-1", Billed: 300, Paid: 0}},
	}
	svc := NewFeeAnalyticsService(repo, &stubNameResolver{}, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 1)
	trend := report.RankedRows[0].Trend
	assert.Equal(t, analytics.TrendDown, trend.Direction)
	assert.InDelta(t, -100, trend.Delta, 0.001)
}

func TestFeeReportNoEnrolledStudents(t *testing.T) {
	repo := &mockFeeRepo{current: []models.FeeEntry{{StudentID: "stu-1", Billed: 100}}}
	svc := NewFeeAnalyticsService(repo, &stubNameResolver{}, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	assert.Empty(t, report.RankedRows)
	assert.Equal(t, 0, report.Aggregation.StudentCount)
	assert.Equal(t, 0, repo.entriesCalls)
}

func TestFeeReportScopeNotReady(t *testing.T) {
	repo := &mockFeeRepo{studentIDs: []string{"stu-1"}}
	svc := NewFeeAnalyticsService(repo, &stubNameResolver{}, nil, nil, zap.NewNop())

	filters := scopedFilters()
	filters.TenantID = ""
	report, _, err := svc.Report(context.Background(), filters, 0)
	require.NoError(t, err)
	assert.Empty(t, report.RankedRows)
	assert.Equal(t, 0, repo.entriesCalls)
}

func TestFeeReportFetchErrorPassthrough(t *testing.T) {
	repo := &mockFeeRepo{studentIDs: []string{"stu-1"}, entriesErr: assert.AnError}
	svc := NewFeeAnalyticsService(repo, &stubNameResolver{}, nil, nil, zap.NewNop())

	_, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	assert.ErrorIs(t, err, assert.AnError)
}
