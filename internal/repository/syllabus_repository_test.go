package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestSyllabusRepositoryEntries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSyllabusRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"class_id", "subject_id", "chapter_id", "topic_id", "covered_at", "updated_at"}).
		AddRow("class-a", "sub-math", "ch-1", "", now, now).
		AddRow("class-a", "sub-math", "", "tp-4", now, now)
	mock.ExpectQuery("FROM syllabus_progress").
		WithArgs("tenant-1", "ay-2025", testPeriod().Start, testPeriod().End).
		WillReturnRows(rows)

	entries, err := repo.Entries(context.Background(), testFilters(), testPeriod())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "ch-1", entries[0].ChapterID)
	require.Empty(t, entries[1].ChapterID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyllabusRepositoryTotalsBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSyllabusRepository(db)

	rows := sqlmock.NewRows([]string{"subject_id", "total_chapters", "total_topics"}).
		AddRow("sub-math", 8, 40)
	mock.ExpectQuery("FROM subjects").
		WithArgs("tenant-1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	totals, err := repo.TotalsBySubject(context.Background(), "tenant-1", []string{"sub-math"})
	require.NoError(t, err)
	require.Equal(t, 8, totals["sub-math"].TotalChapters)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyllabusRepositoryTotalsEmptySet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSyllabusRepository(db)

	totals, err := repo.TotalsBySubject(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.Empty(t, totals)
	require.NoError(t, mock.ExpectationsWereMet())
}
