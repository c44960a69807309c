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

type mockAcademicsRepo struct {
	current   []models.TestScore
	previous  []models.TestScore
	maxMarks  map[string]float64
	scoresErr error
	maxErr    error
	maxCalls  int
}

func (m *mockAcademicsRepo) Scores(_ context.Context, filters models.QueryFilters, period analytics.Period) ([]models.TestScore, error) {
	if m.scoresErr != nil {
		return nil, m.scoresErr
	}
	if period.Start.Equal(filters.StartDate) {
		return m.current, nil
	}
	return m.previous, nil
}

func (m *mockAcademicsRepo) MaxMarksByTest(_ context.Context, _ string, _ []string) (map[string]float64, error) {
	m.maxCalls++
	if m.maxErr != nil {
		return nil, m.maxErr
	}
	return m.maxMarks, nil
}

func TestAcademicsReportNormalisedAverage(t *testing.T) {
	repo := &mockAcademicsRepo{
		current: []models.TestScore{
			{StudentID: "stu-1", SubjectID: "sub-1", TestID: "test-1", Marks: 18},
			{StudentID: "stu-1", SubjectID: "sub-1", TestID: "test-2", Marks: 7},
		},
		maxMarks: map[string]float64{"test-1": 20, "test-2": 10},
	}
	names := &stubNameResolver{names: map[string]string{"stu-1": "Ravi Kumar", "sub-1": "Mathematics"}}
	svc := NewAcademicsAnalyticsService(repo, names, names, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 1)

	row := report.RankedRows[0]
	assert.Equal(t, "Ravi Kumar", row.StudentName)
	assert.Equal(t, "Mathematics", row.SubjectName)
	assert.Equal(t, 2, row.TestCount)
	assert.InDelta(t, 80.0, row.AverageScore, 0.001)

	assert.Equal(t, 2, report.Aggregation.TotalScores)
	assert.Equal(t, 1, report.Aggregation.DimensionCount)
	assert.InDelta(t, 80.0, report.Aggregation.OverallAverage, 0.001)
}

func TestAcademicsReportMissingMaxMarksScoresZero(t *testing.T) {
	repo := &mockAcademicsRepo{
		current: []models.TestScore{
			{StudentID: "stu-1", SubjectID: "sub-1", TestID: "test-1", Marks: 18},
			{StudentID: "stu-1", SubjectID: "sub-1", TestID: "test-missing", Marks: 5},
		},
		maxMarks: map[string]float64{"test-1": 20},
	}
	svc := NewAcademicsAnalyticsService(repo, &stubNameResolver{}, &stubNameResolver{}, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 1)
	assert.InDelta(t, 45.0, report.RankedRows[0].AverageScore, 0.001)
}

func TestAcademicsReportTrendAgainstPreviousWindow(t *testing.T) {
	repo := &mockAcademicsRepo{
		current: []models.TestScore{
			{StudentID: "stu-1", SubjectID: "sub-1", TestID: "test-1", Marks: 9},
		},
		previous: []models.TestScore{
			{StudentID: "stu-1", SubjectID: "sub-1", TestID: "test-0", Marks: 6},
		},
		maxMarks: map[string]float64{"test-1": 10, "test-0": 10},
	}
	svc := NewAcademicsAnalyticsService(repo, &stubNameResolver{}, &stubNameResolver{}, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 1)
	trend := report.RankedRows[0].Trend
	assert.Equal(t, analytics.TrendUp, trend.Direction)
	assert.InDelta(t, 30.0, trend.Delta, 0.001)
	assert.Equal(t, 1, repo.maxCalls)
}

func TestAcademicsReportCompositeRanking(t *testing.T) {
	repo := &mockAcademicsRepo{
		current: []models.TestScore{
			{StudentID: "stu-1", SubjectID: "sub-math", TestID: "test-1", Marks: 9},
			{StudentID: "stu-1", SubjectID: "sub-sci", TestID: "test-2", Marks: 5},
			{StudentID: "stu-2", SubjectID: "sub-math", TestID: "test-1", Marks: 7},
		},
		maxMarks: map[string]float64{"test-1": 10, "test-2": 10},
	}
	svc := NewAcademicsAnalyticsService(repo, &stubNameResolver{}, &stubNameResolver{}, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 3)
	assert.Equal(t, "stu-1", report.RankedRows[0].StudentID)
	assert.Equal(t, "sub-math", report.RankedRows[0].SubjectID)
	assert.Equal(t, "stu-2", report.RankedRows[1].StudentID)
	assert.Equal(t, "sub-sci", report.RankedRows[2].SubjectID)
	assert.Equal(t, 3, report.Aggregation.DimensionCount)
}

func TestAcademicsReportScopeNotReady(t *testing.T) {
	repo := &mockAcademicsRepo{}
	svc := NewAcademicsAnalyticsService(repo, &stubNameResolver{}, &stubNameResolver{}, nil, nil, zap.NewNop())

	filters := scopedFilters()
	filters.StartDate = time.Time{}
	report, _, err := svc.Report(context.Background(), filters, 0)
	require.NoError(t, err)
	assert.Empty(t, report.RankedRows)
	assert.Equal(t, 0, repo.maxCalls)
}

func TestAcademicsReportFetchErrorPassthrough(t *testing.T) {
	repo := &mockAcademicsRepo{scoresErr: assert.AnError}
	svc := NewAcademicsAnalyticsService(repo, &stubNameResolver{}, &stubNameResolver{}, nil, nil, zap.NewNop())

	_, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	assert.ErrorIs(t, err, assert.AnError)
}
