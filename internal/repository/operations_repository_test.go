package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestOperationsRepositorySlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOperationsRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"teacher_id", "class_id", "subject_id", "date", "conducted", "updated_at"}).
		AddRow("t-1", "class-a", "sub-math", now, true, now).
		AddRow("t-1", "class-b", "sub-math", now, false, now)
	mock.ExpectQuery("FROM timetable_slots").
		WithArgs("tenant-1", "ay-2025", testPeriod().Start, testPeriod().End).
		WillReturnRows(rows)

	slots, err := repo.Slots(context.Background(), testFilters(), testPeriod())
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.True(t, slots[0].Conducted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOperationsRepositorySlotsTeacherFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOperationsRepository(db)

	filters := testFilters()
	filters.TeacherID = "t-9"

	mock.ExpectQuery(regexp.QuoteMeta("AND teacher_id = $5")).
		WithArgs("tenant-1", "ay-2025", testPeriod().Start, testPeriod().End, "t-9").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "class_id", "subject_id", "date", "conducted", "updated_at"}))

	slots, err := repo.Slots(context.Background(), filters, testPeriod())
	require.NoError(t, err)
	require.Empty(t, slots)
	require.NoError(t, mock.ExpectationsWereMet())
}
