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

// AcademicsRepository describes the persistence layer required by AcademicsAnalyticsService.
type AcademicsRepository interface {
	Scores(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.TestScore, error)
	MaxMarksByTest(ctx context.Context, tenantID string, testIDs []string) (map[string]float64, error)
}

// SubjectNameResolver resolves subject display names for a batch of ids.
type SubjectNameResolver interface {
	SubjectNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error)
}

// AcademicsAnalyticsService rolls raw test scores up into a ranked
// student+subject performance report. Marks are normalised against each
// test's maximum before averaging, so tests of different sizes weigh
// equally.
type AcademicsAnalyticsService struct {
	repo     AcademicsRepository
	students StudentNameResolver
	subjects SubjectNameResolver
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAcademicsAnalyticsService constructs an academics analytics service.
func NewAcademicsAnalyticsService(repo AcademicsRepository, students StudentNameResolver, subjects SubjectNameResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AcademicsAnalyticsService {
	return &AcademicsAnalyticsService{repo: repo, students: students, subjects: subjects, cache: cache, metrics: metrics, logger: logger}
}

type academicsState struct {
	sum     float64
	count   int
	updated time.Time
}

// Report computes the academics report for the filter window. The boolean
// indicates whether the payload originated from cache.
func (s *AcademicsAnalyticsService) Report(ctx context.Context, filters models.QueryFilters, limit int) (*models.AcademicsReport, bool, error) {
	if !filters.ScopeReady() {
		return emptyAcademicsReport(), false, nil
	}

	cacheKey := reportCacheKey("academics", filters, limit)
	var cached models.AcademicsReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get academics cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	current := analytics.Period{Start: filters.StartDate, End: filters.EndDate}
	previous := analytics.PreviousPeriod(filters.StartDate, filters.EndDate)

	start := time.Now()
	scores, prevScores, err := analytics.FetchWindows(ctx,
		func(ctx context.Context) ([]models.TestScore, error) {
			return s.repo.Scores(ctx, filters, current)
		},
		func(ctx context.Context) ([]models.TestScore, error) {
			return s.repo.Scores(ctx, filters, previous)
		},
	)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_academics", time.Since(start))
	}

	if len(scores) == 0 {
		report := emptyAcademicsReport()
		s.cacheReport(ctx, cacheKey, report)
		return report, false, nil
	}

	maxMarks := s.resolveMaxMarks(ctx, filters.TenantID, scores, prevScores)

	states := aggregateAcademics(scores, maxMarks)
	prevAverages := analytics.MetricsByKey(aggregateAcademics(prevScores, maxMarks), academicsAverage)

	names := s.resolveAcademicsNames(ctx, filters.TenantID, analytics.Keys(states))

	rows := make([]models.AcademicsRow, 0, len(states))
	agg := models.AcademicsAggregation{DimensionCount: len(states)}
	var totalSum float64
	for key, st := range states {
		rows = append(rows, models.AcademicsRow{
			StudentID:    key.StudentID,
			StudentName:  names.student(key.StudentID),
			SubjectID:    key.SubjectID,
			SubjectName:  names.subject(key.SubjectID),
			AverageScore: academicsAverage(st),
			TestCount:    st.count,
			UpdatedAt:    latestTime(nil, st.updated),
		})
		agg.TotalScores += st.count
		totalSum += st.sum
	}
	if agg.TotalScores > 0 {
		agg.OverallAverage = totalSum / float64(agg.TotalScores)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StudentID != rows[j].StudentID {
			return rows[i].StudentID < rows[j].StudentID
		}
		return rows[i].SubjectID < rows[j].SubjectID
	})
	ranked := analytics.Rank(rows,
		func(r models.AcademicsRow) models.StudentSubjectKey {
			return models.StudentSubjectKey{StudentID: r.StudentID, SubjectID: r.SubjectID}
		},
		func(r models.AcademicsRow) float64 { return r.AverageScore },
		analytics.SortDesc, limit, prevAverages)

	report := &models.AcademicsReport{Aggregation: agg, RankedRows: make([]models.AcademicsRankedRow, 0, len(ranked))}
	for _, entry := range ranked {
		report.RankedRows = append(report.RankedRows, models.AcademicsRankedRow{
			AcademicsRow: entry.Row,
			Rank:         entry.Rank,
			Trend:        entry.Trend,
		})
	}

	s.cacheReport(ctx, cacheKey, report)
	return report, false, nil
}

func aggregateAcademics(scores []models.TestScore, maxMarks map[string]float64) map[models.StudentSubjectKey]academicsState {
	return analytics.Aggregate(scores,
		func(sc models.TestScore) (models.StudentSubjectKey, bool) {
			key := models.StudentSubjectKey{StudentID: sc.StudentID, SubjectID: sc.SubjectID}
			return key, sc.StudentID != "" && sc.SubjectID != ""
		},
		func(sc models.TestScore) academicsState {
			return updateAcademics(academicsState{}, sc, maxMarks)
		},
		func(st academicsState, sc models.TestScore) academicsState {
			return updateAcademics(st, sc, maxMarks)
		},
	)
}

func updateAcademics(st academicsState, sc models.TestScore, maxMarks map[string]float64) academicsState {
	st.sum += analytics.Percentage(sc.Marks, maxMarks[sc.TestID])
	st.count++
	if sc.UpdatedAt.After(st.updated) {
		st.updated = sc.UpdatedAt
	}
	return st
}

func academicsAverage(st academicsState) float64 {
	if st.count == 0 {
		return 0
	}
	return st.sum / float64(st.count)
}

// resolveMaxMarks batches the maximum-marks lookup across both windows.
// Tests missing from the result score zero; the gap is logged, not fatal.
func (s *AcademicsAnalyticsService) resolveMaxMarks(ctx context.Context, tenantID string, scores, prevScores []models.TestScore) map[string]float64 {
	seen := make(map[string]struct{}, len(scores)+len(prevScores))
	ids := make([]string, 0, len(seen))
	for _, batch := range [][]models.TestScore{scores, prevScores} {
		for _, sc := range batch {
			if _, ok := seen[sc.TestID]; ok || sc.TestID == "" {
				continue
			}
			seen[sc.TestID] = struct{}{}
			ids = append(ids, sc.TestID)
		}
	}
	maxMarks, err := s.repo.MaxMarksByTest(ctx, tenantID, ids)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve max marks", zap.Error(err))
		}
		return map[string]float64{}
	}
	if s.logger != nil && len(maxMarks) < len(ids) {
		s.logger.Warn("tests missing max marks", zap.Int("requested", len(ids)), zap.Int("resolved", len(maxMarks)))
	}
	return maxMarks
}

type academicsNames struct {
	students map[string]string
	subjects map[string]string
}

func (n academicsNames) student(id string) string {
	if name, ok := n.students[id]; ok {
		return name
	}
	return "Unknown Student"
}

func (n academicsNames) subject(id string) string {
	if name, ok := n.subjects[id]; ok {
		return name
	}
	return "Unknown Subject"
}

func (s *AcademicsAnalyticsService) resolveAcademicsNames(ctx context.Context, tenantID string, keys []models.StudentSubjectKey) academicsNames {
	studentSet := make(map[string]struct{}, len(keys))
	subjectSet := make(map[string]struct{}, len(keys))
	studentIDs := make([]string, 0, len(keys))
	subjectIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := studentSet[key.StudentID]; !ok {
			studentSet[key.StudentID] = struct{}{}
			studentIDs = append(studentIDs, key.StudentID)
		}
		if _, ok := subjectSet[key.SubjectID]; !ok {
			subjectSet[key.SubjectID] = struct{}{}
			subjectIDs = append(subjectIDs, key.SubjectID)
		}
	}

	names := academicsNames{students: map[string]string{}, subjects: map[string]string{}}
	if s.students != nil {
		if resolved, err := s.students.StudentNames(ctx, tenantID, studentIDs); err != nil {
			if s.logger != nil {
				s.logger.Warn("resolve student names", zap.Error(err))
			}
		} else {
			names.students = resolved
		}
	}
	if s.subjects != nil {
		if resolved, err := s.subjects.SubjectNames(ctx, tenantID, subjectIDs); err != nil {
			if s.logger != nil {
				s.logger.Warn("resolve subject names", zap.Error(err))
			}
		} else {
			names.subjects = resolved
		}
	}
	return names
}

func (s *AcademicsAnalyticsService) cacheReport(ctx context.Context, key string, report *models.AcademicsReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report, 0); err != nil && s.logger != nil {
		s.logger.Warn("cache academics report", zap.Error(err))
	}
}

func emptyAcademicsReport() *models.AcademicsReport {
	return &models.AcademicsReport{RankedRows: []models.AcademicsRankedRow{}}
}
