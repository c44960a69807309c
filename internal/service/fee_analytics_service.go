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

// FeeRepository describes the persistence layer required by FeeAnalyticsService.
type FeeRepository interface {
	EnrolledStudentIDs(ctx context.Context, filters models.QueryFilters) ([]string, error)
	Entries(ctx context.Context, filters models.QueryFilters, period analytics.Period, studentIDs []string) ([]models.FeeEntry, error)
}

// StudentNameResolver resolves student display names for a batch of ids.
type StudentNameResolver interface {
	StudentNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error)
}

// FeeAnalyticsService rolls invoice and payment facts up into a ranked
// per-student dues report with status and aging breakdowns.
type FeeAnalyticsService struct {
	repo    FeeRepository
	names   StudentNameResolver
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewFeeAnalyticsService constructs a fee analytics service.
func NewFeeAnalyticsService(repo FeeRepository, names StudentNameResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *FeeAnalyticsService {
	return &FeeAnalyticsService{repo: repo, names: names, cache: cache, metrics: metrics, logger: logger}
}

type feeState struct {
	billed    float64
	paid      float64
	oldestDue *time.Time
	updated   time.Time
}

// Report computes the fee report for the filter window. The boolean
// indicates whether the payload originated from cache.
func (s *FeeAnalyticsService) Report(ctx context.Context, filters models.QueryFilters, limit int) (*models.FeeReport, bool, error) {
	if !filters.ScopeReady() {
		return emptyFeeReport(), false, nil
	}

	cacheKey := reportCacheKey("fees", filters, limit)
	var cached models.FeeReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get fee cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	studentIDs, err := s.repo.EnrolledStudentIDs(ctx, filters)
	if err != nil {
		return nil, false, err
	}
	if len(studentIDs) == 0 {
		report := emptyFeeReport()
		s.cacheReport(ctx, cacheKey, report)
		return report, false, nil
	}

	current := analytics.Period{Start: filters.StartDate, End: filters.EndDate}
	previous := analytics.PreviousPeriod(filters.StartDate, filters.EndDate)

	start := time.Now()
	entries, prevEntries, err := analytics.FetchWindows(ctx,
		func(ctx context.Context) ([]models.FeeEntry, error) {
			return s.repo.Entries(ctx, filters, current, studentIDs)
		},
		func(ctx context.Context) ([]models.FeeEntry, error) {
			return s.repo.Entries(ctx, filters, previous, studentIDs)
		},
	)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_fees", time.Since(start))
	}

	if len(entries) == 0 {
		report := emptyFeeReport()
		s.cacheReport(ctx, cacheKey, report)
		return report, false, nil
	}

	states := aggregateFees(entries)
	prevDues := analytics.MetricsByKey(aggregateFees(prevEntries), func(st feeState) float64 {
		return st.billed - st.paid
	})

	names := s.resolveStudentNames(ctx, filters.TenantID, analytics.Keys(states))

	rows := make([]models.FeeStudentRow, 0, len(states))
	agg := models.FeeAggregation{
		StudentCount: len(states),
		StatusCounts: map[string]int{},
		AgingBuckets: map[string]int{},
	}
	for studentID, st := range states {
		name, ok := names[studentID]
		if !ok {
			name = "Unknown Student"
		}
		due := st.billed - st.paid
		status := feeStatus(st, filters.EndDate)
		bucket := feeAgingBucket(st, filters.EndDate)
		rows = append(rows, models.FeeStudentRow{
			StudentID:   studentID,
			StudentName: name,
			TotalBilled: st.billed,
			TotalPaid:   st.paid,
			TotalDue:    due,
			Status:      status,
			AgingBucket: bucket,
			UpdatedAt:   latestTime(nil, st.updated),
		})
		agg.TotalBilled += st.billed
		agg.TotalPaid += st.paid
		agg.TotalDue += due
		agg.StatusCounts[status]++
		agg.AgingBuckets[bucket]++
	}
	agg.CollectionRate = analytics.Percentage(agg.TotalPaid, agg.TotalBilled)

	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentID < rows[j].StudentID })
	ranked := analytics.Rank(rows,
		func(r models.FeeStudentRow) string { return r.StudentID },
		func(r models.FeeStudentRow) float64 { return r.TotalDue },
		analytics.SortDesc, limit, prevDues)

	report := &models.FeeReport{Aggregation: agg, RankedRows: make([]models.FeeRankedRow, 0, len(ranked))}
	for _, entry := range ranked {
		report.RankedRows = append(report.RankedRows, models.FeeRankedRow{
			FeeStudentRow: entry.Row,
			Rank:          entry.Rank,
			Trend:         entry.Trend,
		})
	}

	s.cacheReport(ctx, cacheKey, report)
	return report, false, nil
}

func aggregateFees(entries []models.FeeEntry) map[string]feeState {
	return analytics.Aggregate(entries,
		func(e models.FeeEntry) (string, bool) { return e.StudentID, e.StudentID != "" },
		func(e models.FeeEntry) feeState { return updateFee(feeState{}, e) },
		updateFee,
	)
}

func updateFee(st feeState, e models.FeeEntry) feeState {
	st.billed += e.Billed
	st.paid += e.Paid
	if e.DueDate != nil && e.Billed > e.Paid {
		if st.oldestDue == nil || e.DueDate.Before(*st.oldestDue) {
			due := *e.DueDate
			st.oldestDue = &due
		}
	}
	if e.UpdatedAt.After(st.updated) {
		st.updated = e.UpdatedAt
	}
	return st
}

func feeStatus(st feeState, asOf time.Time) string {
	if st.billed-st.paid <= 0 {
		return models.FeeStatusPaid
	}
	if st.oldestDue != nil && st.oldestDue.Before(asOf) {
		return models.FeeStatusOverdue
	}
	return models.FeeStatusCurrent
}

func feeAgingBucket(st feeState, asOf time.Time) string {
	if st.billed-st.paid <= 0 || st.oldestDue == nil || !st.oldestDue.Before(asOf) {
		return models.FeeAgingCurrent
	}
	days := int(asOf.Sub(*st.oldestDue).Hours() / 24)
	switch {
	case days > 90:
		return models.FeeAging90Plus
	case days > 60:
		return models.FeeAging60to90
	case days > 30:
		return models.FeeAging30to60
	default:
		return models.FeeAgingCurrent
	}
}

func (s *FeeAnalyticsService) resolveStudentNames(ctx context.Context, tenantID string, ids []string) map[string]string {
	if s.names == nil {
		return map[string]string{}
	}
	names, err := s.names.StudentNames(ctx, tenantID, ids)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve student names", zap.Error(err))
		}
		return map[string]string{}
	}
	return names
}

func (s *FeeAnalyticsService) cacheReport(ctx context.Context, key string, report *models.FeeReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report, 0); err != nil && s.logger != nil {
		s.logger.Warn("cache fee report", zap.Error(err))
	}
}

func emptyFeeReport() *models.FeeReport {
	return &models.FeeReport{
		Aggregation: models.FeeAggregation{StatusCounts: map[string]int{}, AgingBuckets: map[string]int{}},
		RankedRows:  []models.FeeRankedRow{},
	}
}
