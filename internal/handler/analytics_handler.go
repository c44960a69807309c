package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-insights-api/internal/dto"
	"github.com/noah-isme/school-insights-api/internal/middleware"
	"github.com/noah-isme/school-insights-api/internal/models"
	"github.com/noah-isme/school-insights-api/internal/service"
	"github.com/noah-isme/school-insights-api/pkg/config"
	appErrors "github.com/noah-isme/school-insights-api/pkg/errors"
	"github.com/noah-isme/school-insights-api/pkg/response"
)

// AnalyticsHandler exposes the ranked analytics report endpoints.
type AnalyticsHandler struct {
	attendance *service.AttendanceAnalyticsService
	fees       *service.FeeAnalyticsService
	academics  *service.AcademicsAnalyticsService
	tasks      *service.TaskAnalyticsService
	syllabus   *service.SyllabusAnalyticsService
	operations *service.OperationsAnalyticsService
	metrics    *service.MetricsService
	cache      *service.CacheService
	cfg        config.AnalyticsConfig
}

// reportDomains names the pipelines addressable by domain.
var reportDomains = map[string]struct{}{
	"attendance": {},
	"fees":       {},
	"academics":  {},
	"tasks":      {},
	"syllabus":   {},
	"operations": {},
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(
	attendance *service.AttendanceAnalyticsService,
	fees *service.FeeAnalyticsService,
	academics *service.AcademicsAnalyticsService,
	tasks *service.TaskAnalyticsService,
	syllabus *service.SyllabusAnalyticsService,
	operations *service.OperationsAnalyticsService,
	metrics *service.MetricsService,
	cache *service.CacheService,
	cfg config.AnalyticsConfig,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		attendance: attendance,
		fees:       fees,
		academics:  academics,
		tasks:      tasks,
		syllabus:   syllabus,
		operations: operations,
		metrics:    metrics,
		cache:      cache,
		cfg:        cfg,
	}
}

// Attendance returns the ranked per-class attendance report.
func (h *AnalyticsHandler) Attendance(c *gin.Context) {
	if h.attendance == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filters, limit, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, func() (*models.AttendanceReport, bool, error) {
		return h.attendance.Report(c.Request.Context(), filters, limit)
	})
}

// Fees returns the ranked per-student dues report.
func (h *AnalyticsHandler) Fees(c *gin.Context) {
	if h.fees == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filters, limit, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, func() (*models.FeeReport, bool, error) {
		return h.fees.Report(c.Request.Context(), filters, limit)
	})
}

// Academics returns the ranked student+subject performance report.
func (h *AnalyticsHandler) Academics(c *gin.Context) {
	if h.academics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filters, limit, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, func() (*models.AcademicsReport, bool, error) {
		return h.academics.Report(c.Request.Context(), filters, limit)
	})
}

// Tasks returns the ranked per-task completion report.
func (h *AnalyticsHandler) Tasks(c *gin.Context) {
	if h.tasks == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filters, limit, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, func() (*models.TaskReport, bool, error) {
		return h.tasks.Report(c.Request.Context(), filters, limit)
	})
}

// Syllabus returns the ranked class+subject coverage report.
func (h *AnalyticsHandler) Syllabus(c *gin.Context) {
	if h.syllabus == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filters, limit, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, func() (*models.SyllabusReport, bool, error) {
		return h.syllabus.Report(c.Request.Context(), filters, limit)
	})
}

// Operations returns the ranked teacher load report.
func (h *AnalyticsHandler) Operations(c *gin.Context) {
	if h.operations == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filters, limit, err := h.parseQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, func() (*models.OperationsReport, bool, error) {
		return h.operations.Report(c.Request.Context(), filters, limit)
	})
}

// System returns the instrumentation snapshot.
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.metrics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), middleware.ExtractMeta(c))
}

// RefreshCache drops cached reports so the next request recomputes them
// from facts. An optional domain query narrows the flush to one pipeline.
func (h *AnalyticsHandler) RefreshCache(c *gin.Context) {
	domain := c.Query("domain")
	if domain != "" {
		if _, ok := reportDomains[domain]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown report domain"))
			return
		}
	}

	pattern := "analytics:*"
	if domain != "" {
		pattern = "analytics:" + domain + ":*"
	}
	if err := h.cache.Invalidate(c.Request.Context(), pattern); err != nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.NoContent(c)
}

func (h *AnalyticsHandler) parseQuery(c *gin.Context) (models.QueryFilters, int, error) {
	var query dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return models.QueryFilters{}, 0, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters")
	}
	filters, err := query.Filters()
	if err != nil {
		return models.QueryFilters{}, 0, err
	}
	return filters, clampLimit(query.Limit, h.cfg), nil
}

func clampLimit(limit int, cfg config.AnalyticsConfig) int {
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	return limit
}

func serveReport[T any](c *gin.Context, fetch func() (*T, bool, error)) {
	start := time.Now()
	report, cacheHit, err := fetch()
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, report, meta)
}
