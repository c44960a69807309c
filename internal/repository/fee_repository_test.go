package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestFeeRepositoryEnrolledStudentIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	rows := sqlmock.NewRows([]string{"student_id"}).AddRow("stu-1").AddRow("stu-2")
	mock.ExpectQuery("SELECT student_id FROM enrollments").
		WithArgs("tenant-1", "ay-2025").
		WillReturnRows(rows)

	ids, err := repo.EnrolledStudentIDs(context.Background(), testFilters())
	require.NoError(t, err)
	require.Equal(t, []string{"stu-1", "stu-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryEnrolledStudentIDsClassFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	filters := testFilters()
	filters.ClassID = "class-a"

	mock.ExpectQuery(regexp.QuoteMeta("AND class_id = $3")).
		WithArgs("tenant-1", "ay-2025", "class-a").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}))

	_, err := repo.EnrolledStudentIDs(context.Background(), filters)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryEntries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	due := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"student_id", "billed", "paid", "due_date", "updated_at"}).
		AddRow("stu-1", 500.0, 200.0, due, now).
		AddRow("stu-1", 300.0, 0.0, nil, now)
	mock.ExpectQuery("FROM fee_invoices i").
		WithArgs("tenant-1", "ay-2025", testPeriod().Start, testPeriod().End, sqlmock.AnyArg()).
		WillReturnRows(rows)

	entries, err := repo.Entries(context.Background(), testFilters(), testPeriod(), []string{"stu-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 500.0, entries[0].Billed)
	require.NotNil(t, entries[0].DueDate)
	require.Nil(t, entries[1].DueDate)
	require.NoError(t, mock.ExpectationsWereMet())
}
