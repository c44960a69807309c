package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestTaskRepositorySubmissions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"task_id", "student_id", "submitted_at", "on_time", "updated_at"}).
		AddRow("task-1", "stu-1", now, true, now).
		AddRow("task-1", "stu-2", now, false, now)
	mock.ExpectQuery("FROM task_submissions ts").
		WithArgs("tenant-1", "ay-2025", testPeriod().Start, testPeriod().End).
		WillReturnRows(rows)

	subs, err := repo.Submissions(context.Background(), testFilters(), testPeriod())
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.True(t, subs[0].OnTime)
	require.False(t, subs[1].OnTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositorySubmissionsOptionalFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	filters := testFilters()
	filters.ClassID = "class-a"
	filters.StudentID = "stu-1"

	mock.ExpectQuery(regexp.QuoteMeta("AND t.class_id = $5 AND ts.student_id = $6")).
		WithArgs("tenant-1", "ay-2025", testPeriod().Start, testPeriod().End, "class-a", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"task_id", "student_id", "submitted_at", "on_time", "updated_at"}))

	subs, err := repo.Submissions(context.Background(), filters, testPeriod())
	require.NoError(t, err)
	require.Empty(t, subs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryTaskInfoByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	due := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"task_id", "title", "class_id", "due_date", "enrolled_count"}).
		AddRow("task-1", "Essay", "class-a", due, 25)
	mock.ExpectQuery("FROM tasks t").
		WithArgs("tenant-1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	infos, err := repo.TaskInfoByIDs(context.Background(), "tenant-1", []string{"task-1"})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, 25, infos["task-1"].EnrolledCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryTaskInfoByIDsEmptySet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	infos, err := repo.TaskInfoByIDs(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.Empty(t, infos)
	require.NoError(t, mock.ExpectationsWereMet())
}
