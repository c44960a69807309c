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

// AttendanceRepository describes the persistence layer required by AttendanceAnalyticsService.
type AttendanceRepository interface {
	Marks(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.AttendanceMark, error)
}

// ClassNameResolver resolves class display names for a batch of ids.
type ClassNameResolver interface {
	ClassNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error)
}

// AttendanceAnalyticsService rolls raw attendance marks up into a ranked
// per-class report with trends against the previous period.
type AttendanceAnalyticsService struct {
	repo    AttendanceRepository
	names   ClassNameResolver
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAttendanceAnalyticsService constructs an attendance analytics service.
func NewAttendanceAnalyticsService(repo AttendanceRepository, names ClassNameResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AttendanceAnalyticsService {
	return &AttendanceAnalyticsService{repo: repo, names: names, cache: cache, metrics: metrics, logger: logger}
}

type attendanceState struct {
	present int
	absent  int
	total   int
	updated time.Time
}

// Report computes the attendance report for the filter window. The boolean
// indicates whether the payload originated from cache.
func (s *AttendanceAnalyticsService) Report(ctx context.Context, filters models.QueryFilters, limit int) (*models.AttendanceReport, bool, error) {
	if !filters.ScopeReady() {
		return emptyAttendanceReport(), false, nil
	}

	cacheKey := reportCacheKey("attendance", filters, limit)
	var cached models.AttendanceReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get attendance cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	current := analytics.Period{Start: filters.StartDate, End: filters.EndDate}
	previous := analytics.PreviousPeriod(filters.StartDate, filters.EndDate)

	start := time.Now()
	marks, prevMarks, err := analytics.FetchWindows(ctx,
		func(ctx context.Context) ([]models.AttendanceMark, error) {
			return s.repo.Marks(ctx, filters, current)
		},
		func(ctx context.Context) ([]models.AttendanceMark, error) {
			return s.repo.Marks(ctx, filters, previous)
		},
	)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_attendance", time.Since(start))
	}

	if len(marks) == 0 {
		report := emptyAttendanceReport()
		s.cacheReport(ctx, cacheKey, report)
		return report, false, nil
	}

	states := aggregateAttendance(marks)
	prevRates := analytics.MetricsByKey(aggregateAttendance(prevMarks), func(st attendanceState) float64 {
		return analytics.Percentage(st.present, st.total)
	})

	names := s.resolveClassNames(ctx, filters.TenantID, analytics.Keys(states))

	rows := make([]models.AttendanceClassRow, 0, len(states))
	agg := models.AttendanceAggregation{ClassCount: len(states)}
	for classID, st := range states {
		name, ok := names[classID]
		if !ok {
			name = "Unknown Class"
		}
		rows = append(rows, models.AttendanceClassRow{
			ClassID:      classID,
			ClassName:    name,
			PresentCount: st.present,
			AbsentCount:  st.absent,
			TotalMarks:   st.total,
			Rate:         analytics.Percentage(st.present, st.total),
			UpdatedAt:    latestTime(nil, st.updated),
		})
		agg.TotalMarks += st.total
		agg.PresentCount += st.present
		agg.AbsentCount += st.absent
	}
	agg.OverallRate = analytics.Percentage(agg.PresentCount, agg.TotalMarks)

	sort.Slice(rows, func(i, j int) bool { return rows[i].ClassID < rows[j].ClassID })
	ranked := analytics.Rank(rows,
		func(r models.AttendanceClassRow) string { return r.ClassID },
		func(r models.AttendanceClassRow) float64 { return r.Rate },
		analytics.SortDesc, limit, prevRates)

	report := &models.AttendanceReport{Aggregation: agg, RankedRows: make([]models.AttendanceRankedRow, 0, len(ranked))}
	for _, entry := range ranked {
		report.RankedRows = append(report.RankedRows, models.AttendanceRankedRow{
			AttendanceClassRow: entry.Row,
			Rank:               entry.Rank,
			Trend:              entry.Trend,
		})
	}

	s.cacheReport(ctx, cacheKey, report)
	return report, false, nil
}

func aggregateAttendance(marks []models.AttendanceMark) map[string]attendanceState {
	return analytics.Aggregate(marks,
		func(m models.AttendanceMark) (string, bool) { return m.ClassID, m.ClassID != "" },
		func(m models.AttendanceMark) attendanceState {
			return updateAttendance(attendanceState{}, m)
		},
		updateAttendance,
	)
}

func updateAttendance(st attendanceState, m models.AttendanceMark) attendanceState {
	st.total++
	switch m.Status {
	case models.AttendanceStatusPresent, models.AttendanceStatusLate:
		st.present++
	case models.AttendanceStatusAbsent:
		st.absent++
	}
	if m.UpdatedAt.After(st.updated) {
		st.updated = m.UpdatedAt
	}
	return st
}

func (s *AttendanceAnalyticsService) resolveClassNames(ctx context.Context, tenantID string, ids []string) map[string]string {
	if s.names == nil {
		return map[string]string{}
	}
	names, err := s.names.ClassNames(ctx, tenantID, ids)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve class names", zap.Error(err))
		}
		return map[string]string{}
	}
	return names
}

func (s *AttendanceAnalyticsService) cacheReport(ctx context.Context, key string, report *models.AttendanceReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report, 0); err != nil && s.logger != nil {
		s.logger.Warn("cache attendance report", zap.Error(err))
	}
}

func emptyAttendanceReport() *models.AttendanceReport {
	return &models.AttendanceReport{RankedRows: []models.AttendanceRankedRow{}}
}
