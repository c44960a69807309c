package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestReferenceRepositoryClassNames(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow("class-a", "X IPA 1").
		AddRow("class-b", "X IPA 2")
	mock.ExpectQuery("SELECT id, name AS name FROM classes").
		WithArgs("tenant-1", pq.Array([]string{"class-a", "class-b"})).
		WillReturnRows(rows)

	names, err := repo.ClassNames(context.Background(), "tenant-1", []string{"class-a", "class-b"})
	require.NoError(t, err)
	require.Equal(t, "X IPA 1", names["class-a"])
	require.Equal(t, "X IPA 2", names["class-b"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryEmptyIDSetSkipsQuery(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	// No expectation registered: an issued query would fail the test.
	names, err := repo.StudentNames(context.Background(), "tenant-1", nil)
	require.NoError(t, err)
	require.Empty(t, names)
	require.NoError(t, mock.ExpectationsWereMet())
}
