package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-insights-api/internal/analytics"
	"github.com/noah-isme/school-insights-api/internal/models"
	"github.com/noah-isme/school-insights-api/internal/service"
	"github.com/noah-isme/school-insights-api/pkg/config"
	appErrors "github.com/noah-isme/school-insights-api/pkg/errors"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeAttendanceRepo struct {
	marks []models.AttendanceMark
	calls int
}

func (f *fakeAttendanceRepo) Marks(_ context.Context, filters models.QueryFilters, period analytics.Period) ([]models.AttendanceMark, error) {
	f.calls++
	if period.Start.Equal(filters.StartDate) {
		return f.marks, nil
	}
	return nil, nil
}

type fakeNames struct{}

func (fakeNames) ClassNames(_ context.Context, _ string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		names[id] = "Class " + id
	}
	return names, nil
}

type fakeCacheRepo struct {
	patterns []string
	err      error
}

func (f *fakeCacheRepo) Get(_ context.Context, _ string, _ interface{}) error {
	return appErrors.ErrCacheMiss
}

func (f *fakeCacheRepo) Set(_ context.Context, _ string, _ interface{}, _ time.Duration) error {
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	if f.err != nil {
		return f.err
	}
	f.patterns = append(f.patterns, pattern)
	return nil
}

func newAttendanceHandler(repo *fakeAttendanceRepo, cfg config.AnalyticsConfig) *AnalyticsHandler {
	svc := service.NewAttendanceAnalyticsService(repo, fakeNames{}, nil, nil, zap.NewNop())
	return NewAnalyticsHandler(svc, nil, nil, nil, nil, nil, service.NewMetricsService(), nil, cfg)
}

func newCacheHandler(repo *fakeCacheRepo) *AnalyticsHandler {
	cacheSvc := service.NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	return NewAnalyticsHandler(nil, nil, nil, nil, nil, nil, service.NewMetricsService(), cacheSvc, config.AnalyticsConfig{})
}

func performRequest(h gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	return performMethodRequest(h, http.MethodGet, target)
}

func performMethodRequest(h gin.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	h(c)
	c.Writer.WriteHeaderNow()
	return rec
}

func TestAnalyticsHandlerAttendanceSuccess(t *testing.T) {
	repo := &fakeAttendanceRepo{marks: []models.AttendanceMark{
		{ClassID: "c1", StudentID: "s1", Status: models.AttendanceStatusPresent},
		{ClassID: "c1", StudentID: "s2", Status: models.AttendanceStatusAbsent},
	}}
	handler := newAttendanceHandler(repo, config.AnalyticsConfig{DefaultLimit: 10, MaxLimit: 50})

	rec := performRequest(handler.Attendance, "/analytics/attendance?tenant_id=t1&academic_year_id=y1&start_date=2026-03-01&end_date=2026-03-31")
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
	rows, ok := envelope.Data["ranked_rows"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)
}

func TestAnalyticsHandlerAttendanceIncompleteScope(t *testing.T) {
	repo := &fakeAttendanceRepo{marks: []models.AttendanceMark{{ClassID: "c1", Status: models.AttendanceStatusPresent}}}
	handler := newAttendanceHandler(repo, config.AnalyticsConfig{DefaultLimit: 10})

	rec := performRequest(handler.Attendance, "/analytics/attendance?tenant_id=t1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	rows, ok := envelope.Data["ranked_rows"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, rows)
	assert.Equal(t, 0, repo.calls)
}

func TestAnalyticsHandlerAttendanceInvalidDate(t *testing.T) {
	handler := newAttendanceHandler(&fakeAttendanceRepo{}, config.AnalyticsConfig{})

	rec := performRequest(handler.Attendance, "/analytics/attendance?tenant_id=t1&start_date=March-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsHandlerAttendanceInvalidLimit(t *testing.T) {
	handler := newAttendanceHandler(&fakeAttendanceRepo{}, config.AnalyticsConfig{})

	rec := performRequest(handler.Attendance, "/analytics/attendance?limit=-2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsHandlerSystemSnapshot(t *testing.T) {
	handler := newAttendanceHandler(&fakeAttendanceRepo{}, config.AnalyticsConfig{})

	rec := performRequest(handler.System, "/analytics/system")
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data, "goroutines")
}

func TestAnalyticsHandlerRefreshCacheAll(t *testing.T) {
	repo := &fakeCacheRepo{}
	handler := newCacheHandler(repo)

	rec := performMethodRequest(handler.RefreshCache, http.MethodDelete, "/analytics/cache")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"analytics:*"}, repo.patterns)
}

func TestAnalyticsHandlerRefreshCacheSingleDomain(t *testing.T) {
	repo := &fakeCacheRepo{}
	handler := newCacheHandler(repo)

	rec := performMethodRequest(handler.RefreshCache, http.MethodDelete, "/analytics/cache?domain=fees")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"analytics:fees:*"}, repo.patterns)
}

func TestAnalyticsHandlerRefreshCacheUnknownDomain(t *testing.T) {
	repo := &fakeCacheRepo{}
	handler := newCacheHandler(repo)

	rec := performMethodRequest(handler.RefreshCache, http.MethodDelete, "/analytics/cache?domain=behavior")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, repo.patterns)
}

func TestAnalyticsHandlerRefreshCacheFailure(t *testing.T) {
	handler := newCacheHandler(&fakeCacheRepo{err: assert.AnError})

	rec := performMethodRequest(handler.RefreshCache, http.MethodDelete, "/analytics/cache")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClampLimit(t *testing.T) {
	cfg := config.AnalyticsConfig{DefaultLimit: 20, MaxLimit: 100}
	assert.Equal(t, 20, clampLimit(0, cfg))
	assert.Equal(t, 42, clampLimit(42, cfg))
	assert.Equal(t, 100, clampLimit(500, cfg))
}
