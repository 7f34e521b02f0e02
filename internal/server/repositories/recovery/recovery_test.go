package recovery

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgres_ListUnused(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := regexp.QuoteMeta("SELECT id, code_hash FROM recovery_codes WHERE user_id = $1 AND NOT used")

	mock.ExpectQuery(q).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code_hash"}).
			AddRow("c1", []byte("h1")).
			AddRow("c2", []byte("h2")))
	got, err := repo.ListUnused(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.RecoveryCode{
		{ID: "c1", UserID: "u1", CodeHash: []byte("h1")},
		{ID: "c2", UserID: "u1", CodeHash: []byte("h2")},
	}, got)

	mock.ExpectQuery(q).WithArgs("u2").WillReturnError(errors.New("boom"))
	_, err = repo.ListUnused(context.Background(), "u2")
	require.ErrorContains(t, err, "boom")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Replace(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	del := regexp.QuoteMeta("DELETE FROM recovery_codes WHERE user_id = $1 AND NOT used")
	ins := regexp.QuoteMeta("INSERT INTO recovery_codes (id, user_id, code_hash)")

	mock.ExpectExec(del).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(ins).WithArgs(sqlmock.AnyArg(), "u1", []byte("h1")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(ins).WithArgs(sqlmock.AnyArg(), "u1", []byte("h2")).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Replace(context.Background(), "u1", [][]byte{[]byte("h1"), []byte("h2")}))

	mock.ExpectExec(del).WithArgs("u1").WillReturnError(errors.New("boom"))
	require.ErrorContains(t, repo.Replace(context.Background(), "u1", [][]byte{[]byte("h1")}), "boom")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MarkUsed(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := regexp.QuoteMeta("UPDATE recovery_codes SET used = TRUE")

	mock.ExpectExec(q).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkUsed(context.Background(), "c1"))

	mock.ExpectExec(q).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.MarkUsed(context.Background(), "c1"), common.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemory(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	got, err := r.ListUnused(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, r.Replace(ctx, "u1", [][]byte{[]byte("a"), []byte("b")}))
	require.NoError(t, r.Replace(ctx, "u2", [][]byte{[]byte("z")}))
	got, err = r.ListUnused(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NoError(t, r.MarkUsed(ctx, got[0].ID))
	require.ErrorIs(t, r.MarkUsed(ctx, got[0].ID), common.ErrNotFound)
	require.ErrorIs(t, r.MarkUsed(ctx, "unknown"), common.ErrNotFound)

	left, err := r.ListUnused(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, []byte("b"), left[0].CodeHash)

	require.NoError(t, r.Replace(ctx, "u1", [][]byte{[]byte("c")}))
	left, err = r.ListUnused(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, []byte("c"), left[0].CodeHash)

	other, err := r.ListUnused(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)
