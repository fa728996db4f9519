package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/result/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*ResultRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewResultRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestList_JoinsOwner(t *testing.T) {
	r, mock := newMockRepo(t)
	at := time.Date(2021, 1, 7, 18, 17, 23, 0, time.UTC)
	cols := []string{"id", "result", "user_id", "recorded_at", "user_email", "user_roles", "user_created_at", "user_updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta(selectResults + " ORDER BY r.recorded_at, r.id")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), int64(50), int64(7), at, "o@x.com", []byte(`["ROLE_ADMIN"]`), at, at))

	results, err := r.List(context.Background(), "time")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(50), results[0].Value)
	assert.Equal(t, at, results[0].Time)
	require.NotNil(t, results[0].Owner)
	assert.Equal(t, "o@x.com", results[0].Owner.Email)
	assert.True(t, results[0].Owner.IsAdmin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_InvalidSortKey(t *testing.T) {
	r, _ := newMockRepo(t)
	_, err := r.List(context.Background(), "user_id")
	assert.ErrorIs(t, err, apperr.ErrInvalidSortKey)
}

func TestValueOwner(t *testing.T) {
	r, mock := newMockRepo(t)
	q := regexp.QuoteMeta(`SELECT id FROM results WHERE result = ?`)
	mock.ExpectQuery(q).WithArgs(int64(50)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery(q).WithArgs(int64(51)).WillReturnError(sql.ErrNoRows)

	id, err := r.ValueOwner(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	id, err = r.ValueOwner(context.Background(), 51)
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestCreateUpdateDelete(t *testing.T) {
	r, mock := newMockRepo(t)
	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO results (id, result, user_id, recorded_at) VALUES (?, ?, ?, ?)`)).
		WithArgs(int64(1), int64(50), int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE results SET result = ?`)).
		WithArgs(int64(60), int64(7), sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM results WHERE id = ?`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res := entity.Result{ID: 1, Value: 50, UserID: 7, Time: at}
	require.NoError(t, r.Create(context.Background(), res))
	assert.ErrorIs(t, r.Update(context.Background(), res.WithValue(60)), sql.ErrNoRows)
	require.NoError(t, r.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
