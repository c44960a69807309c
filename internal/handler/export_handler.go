package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-insights-api/internal/dto"
	"github.com/noah-isme/school-insights-api/internal/models"
	"github.com/noah-isme/school-insights-api/internal/service"
	"github.com/noah-isme/school-insights-api/pkg/config"
	appErrors "github.com/noah-isme/school-insights-api/pkg/errors"
	"github.com/noah-isme/school-insights-api/pkg/export"
	"github.com/noah-isme/school-insights-api/pkg/response"
)

// ExportHandler streams ranked reports as CSV or PDF downloads.
type ExportHandler struct {
	analytics *AnalyticsHandler
	exports   *service.ExportService
	cfg       config.ExportConfig
}

// NewExportHandler constructs the export handler.
func NewExportHandler(analytics *AnalyticsHandler, exports *service.ExportService, cfg config.ExportConfig) *ExportHandler {
	return &ExportHandler{analytics: analytics, exports: exports, cfg: cfg}
}

// Download renders the requested domain report into a file and streams it.
func (h *ExportHandler) Download(c *gin.Context) {
	if !h.cfg.Enabled || h.exports == nil || h.analytics == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	if err := query.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	format := query.Format
	if format == "" {
		format = service.ExportFormatCSV
	}
	filters, err := query.Filters()
	if err != nil {
		response.Error(c, err)
		return
	}
	limit := clampLimit(query.Limit, h.analytics.cfg)

	domain := c.Param("domain")
	dataset, title, err := h.buildDataset(c, domain, filters, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.exports.Render(domain, format, title, dataset)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}

func (h *ExportHandler) buildDataset(c *gin.Context, domain string, filters models.QueryFilters, limit int) (export.Dataset, string, error) {
	ctx := c.Request.Context()
	switch domain {
	case "attendance":
		report, _, err := h.analytics.attendance.Report(ctx, filters, limit)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return service.AttendanceDataset(report), "Attendance by Class", nil
	case "fees":
		report, _, err := h.analytics.fees.Report(ctx, filters, limit)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return service.FeeDataset(report), "Fee Dues by Student", nil
	case "academics":
		report, _, err := h.analytics.academics.Report(ctx, filters, limit)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return service.AcademicsDataset(report), "Academic Performance", nil
	case "tasks":
		report, _, err := h.analytics.tasks.Report(ctx, filters, limit)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return service.TaskDataset(report), "Task Completion", nil
	case "syllabus":
		report, _, err := h.analytics.syllabus.Report(ctx, filters, limit)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return service.SyllabusDataset(report), "Syllabus Coverage", nil
	case "operations":
		report, _, err := h.analytics.operations.Report(ctx, filters, limit)
		if err != nil {
			return export.Dataset{}, "", err
		}
		return service.OperationsDataset(report), "Teacher Load", nil
	default:
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown analytics domain %q", domain))
	}
}
