package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-insights-api/internal/models"
	"github.com/noah-isme/school-insights-api/pkg/export"
)

// Export formats accepted by the export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered ranked-report download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders ranked analytics reports into downloadable CSV or
// PDF files.
type ExportService struct {
	csv     csvRenderer
	pdf     pdfRenderer
	maxRows int
	logger  *zap.Logger
}

// NewExportService constructs an export service.
func NewExportService(csv csvRenderer, pdf pdfRenderer, maxRows int, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, maxRows: maxRows, logger: logger}
}

// Render produces the export file for a dataset. The dataset is truncated
// to the configured row cap before rendering.
func (s *ExportService) Render(domain, format, title string, dataset export.Dataset) (*ExportFile, error) {
	if s.maxRows > 0 && len(dataset.Rows) > s.maxRows {
		s.logger.Warn("export truncated",
			zap.String("domain", domain),
			zap.Int("rows", len(dataset.Rows)),
			zap.Int("max_rows", s.maxRows))
		dataset.Rows = dataset.Rows[:s.maxRows]
	}

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}

	filename := fmt.Sprintf("%s-%s-%s.%s", domain, time.Now().UTC().Format("20060102"), uuid.NewString()[:8], format)
	return &ExportFile{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

// AttendanceDataset flattens an attendance report for export.
func AttendanceDataset(report *models.AttendanceReport) export.Dataset {
	columns := []export.Column{
		{Key: "rank", Label: "Rank", Numeric: true},
		{Key: "class_id", Label: "Class ID"},
		{Key: "class_name", Label: "Class"},
		{Key: "present", Label: "Present", Numeric: true},
		{Key: "absent", Label: "Absent", Numeric: true},
		{Key: "total", Label: "Total", Numeric: true},
		{Key: "rate", Label: "Rate %", Numeric: true},
		{Key: "trend", Label: "Trend"},
		{Key: "delta", Label: "Delta", Numeric: true},
	}
	rows := make([]map[string]string, 0, len(report.RankedRows))
	for _, row := range report.RankedRows {
		rows = append(rows, map[string]string{
			"rank":       strconv.Itoa(row.Rank),
			"class_id":   row.ClassID,
			"class_name": row.ClassName,
			"present":    strconv.Itoa(row.PresentCount),
			"absent":     strconv.Itoa(row.AbsentCount),
			"total":      strconv.Itoa(row.TotalMarks),
			"rate":       formatMetric(row.Rate),
			"trend":      string(row.Trend.Direction),
			"delta":      formatMetric(row.Trend.Delta),
		})
	}
	return export.Dataset{Columns: columns, Rows: rows}
}

// FeeDataset flattens a fee report for export.
func FeeDataset(report *models.FeeReport) export.Dataset {
	columns := []export.Column{
		{Key: "rank", Label: "Rank", Numeric: true},
		{Key: "student_id", Label: "Student ID"},
		{Key: "student_name", Label: "Student"},
		{Key: "billed", Label: "Billed", Numeric: true},
		{Key: "paid", Label: "Paid", Numeric: true},
		{Key: "due", Label: "Due", Numeric: true},
		{Key: "status", Label: "Status"},
		{Key: "aging", Label: "Aging"},
		{Key: "trend", Label: "Trend"},
		{Key: "delta", Label: "Delta", Numeric: true},
	}
	rows := make([]map[string]string, 0, len(report.RankedRows))
	for _, row := range report.RankedRows {
		rows = append(rows, map[string]string{
			"rank":         strconv.Itoa(row.Rank),
			"student_id":   row.StudentID,
			"student_name": row.StudentName,
			"billed":       formatMetric(row.TotalBilled),
			"paid":         formatMetric(row.TotalPaid),
			"due":          formatMetric(row.TotalDue),
			"status":       row.Status,
			"aging":        row.AgingBucket,
			"trend":        string(row.Trend.Direction),
			"delta":        formatMetric(row.Trend.Delta),
		})
	}
	return export.Dataset{Columns: columns, Rows: rows}
}

// AcademicsDataset flattens an academics report for export.
func AcademicsDataset(report *models.AcademicsReport) export.Dataset {
	columns := []export.Column{
		{Key: "rank", Label: "Rank", Numeric: true},
		{Key: "student_id", Label: "Student ID"},
		{Key: "student_name", Label: "Student"},
		{Key: "subject_id", Label: "Subject ID"},
		{Key: "subject_name", Label: "Subject"},
		{Key: "average", Label: "Average %", Numeric: true},
		{Key: "tests", Label: "Tests", Numeric: true},
		{Key: "trend", Label: "Trend"},
		{Key: "delta", Label: "Delta", Numeric: true},
	}
	rows := make([]map[string]string, 0, len(report.RankedRows))
	for _, row := range report.RankedRows {
		rows = append(rows, map[string]string{
			"rank":         strconv.Itoa(row.Rank),
			"student_id":   row.StudentID,
			"student_name": row.StudentName,
			"subject_id":   row.SubjectID,
			"subject_name": row.SubjectName,
			"average":      formatMetric(row.AverageScore),
			"tests":        strconv.Itoa(row.TestCount),
			"trend":        string(row.Trend.Direction),
			"delta":        formatMetric(row.Trend.Delta),
		})
	}
	return export.Dataset{Columns: columns, Rows: rows}
}

// TaskDataset flattens a task report for export.
func TaskDataset(report *models.TaskReport) export.Dataset {
	columns := []export.Column{
		{Key: "rank", Label: "Rank", Numeric: true},
		{Key: "task_id", Label: "Task ID"},
		{Key: "title", Label: "Title"},
		{Key: "class_id", Label: "Class ID"},
		{Key: "submissions", Label: "Submissions", Numeric: true},
		{Key: "on_time", Label: "On Time", Numeric: true},
		{Key: "on_time_rate", Label: "On-Time %", Numeric: true},
		{Key: "enrolled", Label: "Enrolled", Numeric: true},
		{Key: "status", Label: "Status"},
		{Key: "trend", Label: "Trend"},
		{Key: "delta", Label: "Delta", Numeric: true},
	}
	rows := make([]map[string]string, 0, len(report.RankedRows))
	for _, row := range report.RankedRows {
		rows = append(rows, map[string]string{
			"rank":         strconv.Itoa(row.Rank),
			"task_id":      row.TaskID,
			"title":        row.Title,
			"class_id":     row.ClassID,
			"submissions":  strconv.Itoa(row.TotalSubmissions),
			"on_time":      strconv.Itoa(row.OnTimeSubmissions),
			"on_time_rate": formatMetric(row.OnTimeRate),
			"enrolled":     strconv.Itoa(row.EnrolledCount),
			"status":       row.Status,
			"trend":        string(row.Trend.Direction),
			"delta":        formatMetric(row.Trend.Delta),
		})
	}
	return export.Dataset{Columns: columns, Rows: rows}
}

// SyllabusDataset flattens a syllabus report for export.
func SyllabusDataset(report *models.SyllabusReport) export.Dataset {
	columns := []export.Column{
		{Key: "rank", Label: "Rank", Numeric: true},
		{Key: "class_id", Label: "Class ID"},
		{Key: "subject_id", Label: "Subject ID"},
		{Key: "subject_name", Label: "Subject"},
		{Key: "chapters", Label: "Chapters", Numeric: true},
		{Key: "topics", Label: "Topics", Numeric: true},
		{Key: "coverage", Label: "Coverage %", Numeric: true},
		{Key: "trend", Label: "Trend"},
		{Key: "delta", Label: "Delta", Numeric: true},
	}
	rows := make([]map[string]string, 0, len(report.RankedRows))
	for _, row := range report.RankedRows {
		rows = append(rows, map[string]string{
			"rank":         strconv.Itoa(row.Rank),
			"class_id":     row.ClassID,
			"subject_id":   row.SubjectID,
			"subject_name": row.SubjectName,
			"chapters":     strconv.Itoa(row.ChaptersCovered),
			"topics":       strconv.Itoa(row.TopicsCovered),
			"coverage":     formatMetric(row.Coverage),
			"trend":        string(row.Trend.Direction),
			"delta":        formatMetric(row.Trend.Delta),
		})
	}
	return export.Dataset{Columns: columns, Rows: rows}
}

// OperationsDataset flattens an operations report for export.
func OperationsDataset(report *models.OperationsReport) export.Dataset {
	columns := []export.Column{
		{Key: "rank", Label: "Rank", Numeric: true},
		{Key: "teacher_id", Label: "Teacher ID"},
		{Key: "teacher_name", Label: "Teacher"},
		{Key: "scheduled", Label: "Scheduled", Numeric: true},
		{Key: "conducted", Label: "Conducted", Numeric: true},
		{Key: "rate", Label: "Rate %", Numeric: true},
		{Key: "classes", Label: "Classes", Numeric: true},
		{Key: "subjects", Label: "Subjects", Numeric: true},
		{Key: "trend", Label: "Trend"},
		{Key: "delta", Label: "Delta", Numeric: true},
	}
	rows := make([]map[string]string, 0, len(report.RankedRows))
	for _, row := range report.RankedRows {
		rows = append(rows, map[string]string{
			"rank":         strconv.Itoa(row.Rank),
			"teacher_id":   row.TeacherID,
			"teacher_name": row.TeacherName,
			"scheduled":    strconv.Itoa(row.ScheduledPeriods),
			"conducted":    strconv.Itoa(row.ConductedPeriods),
			"rate":         formatMetric(row.ConductedRate),
			"classes":      strconv.Itoa(row.ClassCount),
			"subjects":     strconv.Itoa(row.SubjectCount),
			"trend":        string(row.Trend.Direction),
			"delta":        formatMetric(row.Trend.Delta),
		})
	}
	return export.Dataset{Columns: columns, Rows: rows}
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
