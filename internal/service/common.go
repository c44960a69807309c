package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/school-insights-api/internal/models"
)

// reportCacheKey derives the cache key for a pipeline response from the
// full filter value plus the optional limit. The scope fields are always
// present once the scope guard passes; the optional ids carry a field tag
// so that the same value in different fields never yields the same key.
func reportCacheKey(domain string, f models.QueryFilters, limit int) string {
	parts := []string{
		f.TenantID,
		f.AcademicYearID,
		formatDate(f.StartDate),
		formatDate(f.EndDate),
	}
	tagged := []struct {
		tag   string
		value string
	}{
		{"c", f.ClassID},
		{"s", f.SubjectID},
		{"t", f.TeacherID},
		{"st", f.StudentID},
	}

	var builder strings.Builder
	builder.Grow(len(domain) + len(parts)*16)
	builder.WriteString("analytics:")
	builder.WriteString(domain)
	for _, part := range parts {
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	for _, field := range tagged {
		if field.value == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(field.tag)
		builder.WriteByte('=')
		builder.WriteString(strings.ReplaceAll(field.value, ":", "|"))
	}
	if limit > 0 {
		builder.WriteString(":l=")
		builder.WriteString(strconv.Itoa(limit))
	}
	return builder.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func latestTime(current *time.Time, candidate time.Time) *time.Time {
	if candidate.IsZero() {
		return current
	}
	if current == nil || candidate.After(*current) {
		t := candidate
		return &t
	}
	return current
}
