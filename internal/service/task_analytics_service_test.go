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

type mockTaskRepo struct {
	current  []models.TaskSubmission
	previous []models.TaskSubmission
	infos    map[string]models.TaskInfo
	subErr   error
	infoErr  error
}

func (m *mockTaskRepo) Submissions(_ context.Context, filters models.QueryFilters, period analytics.Period) ([]models.TaskSubmission, error) {
	if m.subErr != nil {
		return nil, m.subErr
	}
	if period.Start.Equal(filters.StartDate) {
		return m.current, nil
	}
	return m.previous, nil
}

func (m *mockTaskRepo) TaskInfoByIDs(_ context.Context, _ string, _ []string) (map[string]models.TaskInfo, error) {
	if m.infoErr != nil {
		return nil, m.infoErr
	}
	return m.infos, nil
}

func taskSubmissions(taskID string, onTime, late int) []models.TaskSubmission {
	subs := make([]models.TaskSubmission, 0, onTime+late)
	for i := 0; i < onTime; i++ {
		subs = append(subs, models.TaskSubmission{TaskID: taskID, StudentID: "s", OnTime: true})
	}
	for i := 0; i < late; i++ {
		subs = append(subs, models.TaskSubmission{TaskID: taskID, StudentID: "s", OnTime: false})
	}
	return subs
}

func TestTaskReportStatusClassification(t *testing.T) {
	asOf := scopedFilters().EndDate
	pastDue := asOf.AddDate(0, 0, -5)
	futureDue := asOf.AddDate(0, 0, 5)

	subs := taskSubmissions("task-done", 10, 0)
	subs = append(subs, taskSubmissions("task-late", 2, 1)...)
	subs = append(subs, taskSubmissions("task-open", 3, 0)...)
	repo := &mockTaskRepo{
		current: subs,
		infos: map[string]models.TaskInfo{
			"task-done": {TaskID: "task-done", Title: "Essay", ClassID: "class-1", EnrolledCount: 10},
			"task-late": {TaskID: "task-late", Title: "Worksheet", ClassID: "class-1", DueDate: &pastDue, EnrolledCount: 10},
			"task-open": {TaskID: "task-open", Title: "Project", ClassID: "class-2", DueDate: &futureDue, EnrolledCount: 10},
		},
	}
	svc := NewTaskAnalyticsService(repo, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 3)

	byID := map[string]models.TaskRankedRow{}
	for _, row := range report.RankedRows {
		byID[row.TaskID] = row
	}
	assert.Equal(t, models.TaskStatusCompleted, byID["task-done"].Status)
	assert.Equal(t, models.TaskStatusOverdue, byID["task-late"].Status)
	assert.Equal(t, models.TaskStatusPending, byID["task-open"].Status)
	assert.InDelta(t, 66.666, byID["task-late"].OnTimeRate, 0.001)

	assert.Equal(t, 3, report.Aggregation.TaskCount)
	assert.Equal(t, 16, report.Aggregation.TotalSubmissions)
	assert.Equal(t, 1, report.Aggregation.StatusCounts[models.TaskStatusCompleted])
	assert.Equal(t, 1, report.Aggregation.StatusCounts[models.TaskStatusOverdue])
	assert.Equal(t, 1, report.Aggregation.StatusCounts[models.TaskStatusPending])
}

func TestTaskReportRankedByOnTimeRate(t *testing.T) {
	subs := taskSubmissions("task-a", 4, 1)
	subs = append(subs, taskSubmissions("task-b", 5, 0)...)
	repo := &mockTaskRepo{current: subs, infos: map[string]models.TaskInfo{}}
	svc := NewTaskAnalyticsService(repo, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 2)
	assert.Equal(t, "task-b", report.RankedRows[0].TaskID)
	assert.Equal(t, 1, report.RankedRows[0].Rank)
	assert.Equal(t, "Unknown Task", report.RankedRows[0].Title)
	assert.Equal(t, "task-a", report.RankedRows[1].TaskID)
}

func TestTaskReportTrendAgainstPreviousWindow(t *testing.T) {
	repo := &mockTaskRepo{
		current:  taskSubmissions("task-1", 3, 1),
		previous: taskSubmissions("task-1", 1, 1),
		infos:    map[string]models.TaskInfo{},
	}
	svc := NewTaskAnalyticsService(repo, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	require.Len(t, report.RankedRows, 1)
	trend := report.RankedRows[0].Trend
	assert.Equal(t, analytics.TrendUp, trend.Direction)
	assert.InDelta(t, 25.0, trend.Delta, 0.001)
}

func TestTaskReportEmptyWindow(t *testing.T) {
	repo := &mockTaskRepo{previous: taskSubmissions("task-1", 1, 0)}
	svc := NewTaskAnalyticsService(repo, nil, nil, zap.NewNop())

	report, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	require.NoError(t, err)
	assert.NotNil(t, report.RankedRows)
	assert.Empty(t, report.RankedRows)
	assert.NotNil(t, report.Aggregation.StatusCounts)
}

func TestTaskReportScopeNotReady(t *testing.T) {
	repo := &mockTaskRepo{current: taskSubmissions("task-1", 1, 0)}
	svc := NewTaskAnalyticsService(repo, nil, nil, zap.NewNop())

	filters := scopedFilters()
	filters.EndDate = time.Time{}
	report, _, err := svc.Report(context.Background(), filters, 0)
	require.NoError(t, err)
	assert.Empty(t, report.RankedRows)
}

func TestTaskReportFetchErrorPassthrough(t *testing.T) {
	repo := &mockTaskRepo{subErr: assert.AnError}
	svc := NewTaskAnalyticsService(repo, nil, nil, zap.NewNop())

	_, _, err := svc.Report(context.Background(), scopedFilters(), 0)
	assert.ErrorIs(t, err, assert.AnError)
}
