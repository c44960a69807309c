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

// OperationsRepository describes the persistence layer required by OperationsAnalyticsService.
type OperationsRepository interface {
	Slots(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.TimetableSlot, error)
}

// TeacherNameResolver resolves teacher display names for a batch of ids.
type TeacherNameResolver interface {
	TeacherNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error)
}

// OperationsAnalyticsService rolls timetable slots up into a ranked
// per-teacher load report with conducted rates.
type OperationsAnalyticsService struct {
	repo    OperationsRepository
	names   TeacherNameResolver
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewOperationsAnalyticsService constructs an operations analytics service.
func NewOperationsAnalyticsService(repo OperationsRepository, names TeacherNameResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *OperationsAnalyticsService {
	return &OperationsAnalyticsService{repo: repo, names: names, cache: cache, metrics: metrics, logger: logger}
}

type operationsState struct {
	scheduled int
	conducted int
	classes   map[string]struct{}
	subjects  map[string]struct{}
	updated   time.Time
}

// Report computes the teacher load report for the filter window. The
// boolean indicates whether the payload originated from cache.
func (s *OperationsAnalyticsService) Report(ctx context.Context, filters models.QueryFilters, limit int) (*models.OperationsReport, bool, error) {
	if !filters.ScopeReady() {
		return emptyOperationsReport(), false, nil
	}

	cacheKey := reportCacheKey("operations", filters, limit)
	var cached models.OperationsReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get operations cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	current := analytics.Period{Start: filters.StartDate, End: filters.EndDate}
	previous := analytics.PreviousPeriod(filters.StartDate, filters.EndDate)

	start := time.Now()
	slots, prevSlots, err := analytics.FetchWindows(ctx,
		func(ctx context.Context) ([]models.TimetableSlot, error) {
			return s.repo.Slots(ctx, filters, current)
		},
		func(ctx context.Context) ([]models.TimetableSlot, error) {
			return s.repo.Slots(ctx, filters, previous)
		},
	)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_operations", time.Since(start))
	}

	if len(slots) == 0 {
		report := emptyOperationsReport()
		s.cacheReport(ctx, cacheKey, report)
		return report, false, nil
	}

	states := aggregateOperations(slots)
	prevRates := analytics.MetricsByKey(aggregateOperations(prevSlots), func(st operationsState) float64 {
		return analytics.Percentage(st.conducted, st.scheduled)
	})

	names := s.resolveTeacherNames(ctx, filters.TenantID, analytics.Keys(states))

	rows := make([]models.TeacherLoadRow, 0, len(states))
	agg := models.OperationsAggregation{TeacherCount: len(states)}
	for teacherID, st := range states {
		name, ok := names[teacherID]
		if !ok {
			name = "Unknown Teacher"
		}
		rows = append(rows, models.TeacherLoadRow{
			TeacherID:        teacherID,
			TeacherName:      name,
			ScheduledPeriods: st.scheduled,
			ConductedPeriods: st.conducted,
			ConductedRate:    analytics.Percentage(st.conducted, st.scheduled),
			ClassCount:       len(st.classes),
			SubjectCount:     len(st.subjects),
			UpdatedAt:        latestTime(nil, st.updated),
		})
		agg.ScheduledPeriods += st.scheduled
		agg.ConductedPeriods += st.conducted
	}
	agg.OverallRate = analytics.Percentage(agg.ConductedPeriods, agg.ScheduledPeriods)

	sort.Slice(rows, func(i, j int) bool { return rows[i].TeacherID < rows[j].TeacherID })
	ranked := analytics.Rank(rows,
		func(r models.TeacherLoadRow) string { return r.TeacherID },
		func(r models.TeacherLoadRow) float64 { return r.ConductedRate },
		analytics.SortDesc, limit, prevRates)

	report := &models.OperationsReport{Aggregation: agg, RankedRows: make([]models.TeacherLoadRankedRow, 0, len(ranked))}
	for _, entry := range ranked {
		report.RankedRows = append(report.RankedRows, models.TeacherLoadRankedRow{
			TeacherLoadRow: entry.Row,
			Rank:           entry.Rank,
			Trend:          entry.Trend,
		})
	}

	s.cacheReport(ctx, cacheKey, report)
	return report, false, nil
}

func aggregateOperations(slots []models.TimetableSlot) map[string]operationsState {
	return analytics.Aggregate(slots,
		func(slot models.TimetableSlot) (string, bool) { return slot.TeacherID, slot.TeacherID != "" },
		func(slot models.TimetableSlot) operationsState {
			return updateOperations(operationsState{classes: map[string]struct{}{}, subjects: map[string]struct{}{}}, slot)
		},
		updateOperations,
	)
}

func updateOperations(st operationsState, slot models.TimetableSlot) operationsState {
	st.scheduled++
	if slot.Conducted {
		st.conducted++
	}
	if slot.ClassID != "" {
		st.classes[slot.ClassID] = struct{}{}
	}
	if slot.SubjectID != "" {
		st.subjects[slot.SubjectID] = struct{}{}
	}
	if slot.UpdatedAt.After(st.updated) {
		st.updated = slot.UpdatedAt
	}
	return st
}

func (s *OperationsAnalyticsService) resolveTeacherNames(ctx context.Context, tenantID string, ids []string) map[string]string {
	if s.names == nil {
		return map[string]string{}
	}
	names, err := s.names.TeacherNames(ctx, tenantID, ids)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve teacher names", zap.Error(err))
		}
		return map[string]string{}
	}
	return names
}

func (s *OperationsAnalyticsService) cacheReport(ctx context.Context, key string, report *models.OperationsReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report, 0); err != nil && s.logger != nil {
		s.logger.Warn("cache operations report", zap.Error(err))
	}
}

func emptyOperationsReport() *models.OperationsReport {
	return &models.OperationsReport{RankedRows: []models.TeacherLoadRankedRow{}}
}
