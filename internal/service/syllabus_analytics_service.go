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

// SyllabusRepository describes the persistence layer required by SyllabusAnalyticsService.
type SyllabusRepository interface {
	Entries(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.SyllabusEntry, error)
	TotalsBySubject(ctx context.Context, tenantID string, subjectIDs []string) (map[string]models.SyllabusTotals, error)
}

// SyllabusAnalyticsService rolls syllabus-progress entries up into a
// ranked class+subject coverage report. Coverage is chapter based and
// falls back to topic counts when a pair has no chapter-level progress in
// the window.
type SyllabusAnalyticsService struct {
	repo     SyllabusRepository
	subjects SubjectNameResolver
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSyllabusAnalyticsService constructs a syllabus analytics service.
func NewSyllabusAnalyticsService(repo SyllabusRepository, subjects SubjectNameResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *SyllabusAnalyticsService {
	return &SyllabusAnalyticsService{repo: repo, subjects: subjects, cache: cache, metrics: metrics, logger: logger}
}

type syllabusState struct {
	chapters map[string]struct{}
	topics   map[string]struct{}
	updated  time.Time
}

// Report computes the syllabus coverage report for the filter window. The
// boolean indicates whether the payload originated from cache.
func (s *SyllabusAnalyticsService) Report(ctx context.Context, filters models.QueryFilters, limit int) (*models.SyllabusReport, bool, error) {
	if !filters.ScopeReady() {
		return emptySyllabusReport(), false, nil
	}

	cacheKey := reportCacheKey("syllabus", filters, limit)
	var cached models.SyllabusReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get syllabus cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	current := analytics.Period{Start: filters.StartDate, End: filters.EndDate}
	previous := analytics.PreviousPeriod(filters.StartDate, filters.EndDate)

	start := time.Now()
	entries, prevEntries, err := analytics.FetchWindows(ctx,
		func(ctx context.Context) ([]models.SyllabusEntry, error) {
			return s.repo.Entries(ctx, filters, current)
		},
		func(ctx context.Context) ([]models.SyllabusEntry, error) {
			return s.repo.Entries(ctx, filters, previous)
		},
	)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_syllabus", time.Since(start))
	}

	if len(entries) == 0 {
		report := emptySyllabusReport()
		s.cacheReport(ctx, cacheKey, report)
		return report, false, nil
	}

	states := aggregateSyllabus(entries)
	prevStates := aggregateSyllabus(prevEntries)

	totals := s.resolveTotals(ctx, filters.TenantID, states, prevStates)
	prevCoverage := make(map[models.ClassSubjectKey]float64, len(prevStates))
	for key, st := range prevStates {
		prevCoverage[key] = syllabusCoverage(st, totals[key.SubjectID])
	}

	names := s.resolveSubjectNames(ctx, filters.TenantID, states)

	rows := make([]models.SyllabusRow, 0, len(states))
	agg := models.SyllabusAggregation{TrackedPairs: len(states)}
	var coverageSum float64
	for key, st := range states {
		name, ok := names[key.SubjectID]
		if !ok {
			name = "Unknown Subject"
		}
		coverage := syllabusCoverage(st, totals[key.SubjectID])
		rows = append(rows, models.SyllabusRow{
			ClassID:         key.ClassID,
			SubjectID:       key.SubjectID,
			SubjectName:     name,
			ChaptersCovered: len(st.chapters),
			TopicsCovered:   len(st.topics),
			Coverage:        coverage,
			UpdatedAt:       latestTime(nil, st.updated),
		})
		coverageSum += coverage
		if coverage >= 100 {
			agg.FullyCovered++
		}
	}
	if agg.TrackedPairs > 0 {
		agg.AverageCoverage = coverageSum / float64(agg.TrackedPairs)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ClassID != rows[j].ClassID {
			return rows[i].ClassID < rows[j].ClassID
		}
		return rows[i].SubjectID < rows[j].SubjectID
	})
	ranked := analytics.Rank(rows,
		func(r models.SyllabusRow) models.ClassSubjectKey {
			return models.ClassSubjectKey{ClassID: r.ClassID, SubjectID: r.SubjectID}
		},
		func(r models.SyllabusRow) float64 { return r.Coverage },
		analytics.SortDesc, limit, prevCoverage)

	report := &models.SyllabusReport{Aggregation: agg, RankedRows: make([]models.SyllabusRankedRow, 0, len(ranked))}
	for _, entry := range ranked {
		report.RankedRows = append(report.RankedRows, models.SyllabusRankedRow{
			SyllabusRow: entry.Row,
			Rank:        entry.Rank,
			Trend:       entry.Trend,
		})
	}

	s.cacheReport(ctx, cacheKey, report)
	return report, false, nil
}

func aggregateSyllabus(entries []models.SyllabusEntry) map[models.ClassSubjectKey]syllabusState {
	return analytics.Aggregate(entries,
		func(e models.SyllabusEntry) (models.ClassSubjectKey, bool) {
			key := models.ClassSubjectKey{ClassID: e.ClassID, SubjectID: e.SubjectID}
			return key, e.ClassID != "" && e.SubjectID != ""
		},
		func(e models.SyllabusEntry) syllabusState {
			return updateSyllabus(syllabusState{chapters: map[string]struct{}{}, topics: map[string]struct{}{}}, e)
		},
		updateSyllabus,
	)
}

func updateSyllabus(st syllabusState, e models.SyllabusEntry) syllabusState {
	if e.ChapterID != "" {
		st.chapters[e.ChapterID] = struct{}{}
	}
	if e.TopicID != "" {
		st.topics[e.TopicID] = struct{}{}
	}
	if e.UpdatedAt.After(st.updated) {
		st.updated = e.UpdatedAt
	}
	return st
}

func syllabusCoverage(st syllabusState, totals models.SyllabusTotals) float64 {
	if len(st.chapters) > 0 {
		return analytics.Percentage(len(st.chapters), totals.TotalChapters)
	}
	return analytics.Percentage(len(st.topics), totals.TotalTopics)
}

func (s *SyllabusAnalyticsService) resolveTotals(ctx context.Context, tenantID string, states, prevStates map[models.ClassSubjectKey]syllabusState) map[string]models.SyllabusTotals {
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(states))
	for _, batch := range []map[models.ClassSubjectKey]syllabusState{states, prevStates} {
		for key := range batch {
			if _, ok := seen[key.SubjectID]; ok {
				continue
			}
			seen[key.SubjectID] = struct{}{}
			ids = append(ids, key.SubjectID)
		}
	}
	totals, err := s.repo.TotalsBySubject(ctx, tenantID, ids)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve syllabus totals", zap.Error(err))
		}
		return map[string]models.SyllabusTotals{}
	}
	return totals
}

func (s *SyllabusAnalyticsService) resolveSubjectNames(ctx context.Context, tenantID string, states map[models.ClassSubjectKey]syllabusState) map[string]string {
	if s.subjects == nil {
		return map[string]string{}
	}
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(states))
	for key := range states {
		if _, ok := seen[key.SubjectID]; ok {
			continue
		}
		seen[key.SubjectID] = struct{}{}
		ids = append(ids, key.SubjectID)
	}
	names, err := s.subjects.SubjectNames(ctx, tenantID, ids)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve subject names", zap.Error(err))
		}
		return map[string]string{}
	}
	return names
}

func (s *SyllabusAnalyticsService) cacheReport(ctx context.Context, key string, report *models.SyllabusReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report, 0); err != nil && s.logger != nil {
		s.logger.Warn("cache syllabus report", zap.Error(err))
	}
}

func emptySyllabusReport() *models.SyllabusReport {
	return &models.SyllabusReport{RankedRows: []models.SyllabusRankedRow{}}
}
