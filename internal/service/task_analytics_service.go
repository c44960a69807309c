package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-insights-api/internal/analytics"
	"github.com/noah-isme/school-insights-api/internal/models"
)

// TaskRepository describes the persistence layer required by TaskAnalyticsService.
type TaskRepository interface {
	Submissions(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.TaskSubmission, error)
	TaskInfoByIDs(ctx context.Context, tenantID string, taskIDs []string) (map[string]models.TaskInfo, error)
}

// TaskAnalyticsService rolls raw task submissions up into a ranked
// per-task completion report with on-time rates.
type TaskAnalyticsService struct {
	repo    TaskRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewTaskAnalyticsService constructs a task analytics service.
func NewTaskAnalyticsService(repo TaskRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *TaskAnalyticsService {
	return &TaskAnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

type taskState struct {
	total   int
	onTime  int
	updated time.Time
}

// Report computes the task report for the filter window. The boolean
// indicates whether the payload originated from cache.
func (s *TaskAnalyticsService) Report(ctx context.Context, filters models.QueryFilters, limit int) (*models.TaskReport, bool, error) {
	if !filters.ScopeReady() {
		return emptyTaskReport(), false, nil
	}

	cacheKey := reportCacheKey("tasks", filters, limit)
	var cached models.TaskReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get task cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	current := analytics.Period{Start: filters.StartDate, End: filters.EndDate}
	previous := analytics.PreviousPeriod(filters.StartDate, filters.EndDate)

	start := time.Now()
	submissions, prevSubmissions, err := analytics.FetchWindows(ctx,
		func(ctx context.Context) ([]models.TaskSubmission, error) {
			return s.repo.Submissions(ctx, filters, current)
		},
		func(ctx context.Context) ([]models.TaskSubmission, error) {
			return s.repo.Submissions(ctx, filters, previous)
		},
	)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_tasks", time.Since(start))
	}

	if len(submissions) == 0 {
		report := emptyTaskReport()
		s.cacheReport(ctx, cacheKey, report)
		return report, false, nil
	}

	states := aggregateTasks(submissions)
	prevRates := analytics.MetricsByKey(aggregateTasks(prevSubmissions), func(st taskState) float64 {
		return analytics.Percentage(st.onTime, st.total)
	})

	infos := s.resolveTaskInfo(ctx, filters.TenantID, analytics.Keys(states))

	rows := make([]models.TaskRow, 0, len(states))
	agg := models.TaskAggregation{TaskCount: len(states), StatusCounts: map[string]int{}}
	var rateSum float64
	for taskID, st := range states {
		info, ok := infos[taskID]
		if !ok {
			info = models.TaskInfo{TaskID: taskID, Title: "Unknown Task"}
		}
		rate := analytics.Percentage(st.onTime, st.total)
		status := taskStatus(st, info, filters.EndDate)
		rows = append(rows, models.TaskRow{
			TaskID:            taskID,
			Title:             info.Title,
			ClassID:           info.ClassID,
			TotalSubmissions:  st.total,
			OnTimeSubmissions: st.onTime,
			OnTimeRate:        rate,
			EnrolledCount:     info.EnrolledCount,
			Status:            status,
			UpdatedAt:         latestTime(nil, st.updated),
		})
		agg.TotalSubmissions += st.total
		agg.StatusCounts[status]++
		rateSum += rate
	}
	if agg.TaskCount > 0 {
		agg.AverageOnTimeRate = rateSum / float64(agg.TaskCount)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].TaskID < rows[j].TaskID })
	ranked := analytics.Rank(rows,
		func(r models.TaskRow) string { return r.TaskID },
		func(r models.TaskRow) float64 { return r.OnTimeRate },
		analytics.SortDesc, limit, prevRates)

	report := &models.TaskReport{Aggregation: agg, RankedRows: make([]models.TaskRankedRow, 0, len(ranked))}
	for _, entry := range ranked {
		report.RankedRows = append(report.RankedRows, models.TaskRankedRow{
			TaskRow: entry.Row,
			Rank:    entry.Rank,
			Trend:   entry.Trend,
		})
	}

	s.cacheReport(ctx, cacheKey, report)
	return report, false, nil
}

func aggregateTasks(submissions []models.TaskSubmission) map[string]taskState {
	return analytics.Aggregate(submissions,
		func(sub models.TaskSubmission) (string, bool) { return sub.TaskID, sub.TaskID != "" },
		func(sub models.TaskSubmission) taskState { return updateTask(taskState{}, sub) },
		updateTask,
	)
}

func updateTask(st taskState, sub models.TaskSubmission) taskState {
	st.total++
	if sub.OnTime {
		st.onTime++
	}
	if sub.UpdatedAt.After(st.updated) {
		st.updated = sub.UpdatedAt
	}
	return st
}

func taskStatus(st taskState, info models.TaskInfo, asOf time.Time) string {
	if info.EnrolledCount > 0 && st.total >= info.EnrolledCount {
		return models.TaskStatusCompleted
	}
	if info.DueDate != nil && info.DueDate.Before(asOf) {
		return models.TaskStatusOverdue
	}
	return models.TaskStatusPending
}

func (s *TaskAnalyticsService) resolveTaskInfo(ctx context.Context, tenantID string, taskIDs []string) map[string]models.TaskInfo {
	infos, err := s.repo.TaskInfoByIDs(ctx, tenantID, taskIDs)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve task info", zap.Error(err))
		}
		return map[string]models.TaskInfo{}
	}
	return infos
}

func (s *TaskAnalyticsService) cacheReport(ctx context.Context, key string, report *models.TaskReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report, 0); err != nil && s.logger != nil {
		s.logger.Warn("cache task report", zap.Error(err))
	}
}

func emptyTaskReport() *models.TaskReport {
	return &models.TaskReport{
		Aggregation: models.TaskAggregation{StatusCounts: map[string]int{}},
		RankedRows:  []models.TaskRankedRow{},
	}
}
