package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubOpen(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "pgx", driver)
		return db, nil
	}
	t.Cleanup(func() { sqlOpen = orig })
	return mock
}

func stubGoose(t *testing.T, err error) *bool {
	t.Helper()
	called := false
	orig := gooseUp
	gooseUp = func(ctx context.Context, db *sql.DB) error {
		called = true
		return err
	}
	t.Cleanup(func() { gooseUp = orig })
	return &called
}

func TestOpen_Success(t *testing.T) {
	mock := stubOpen(t)
	mock.ExpectPing()
	called := stubGoose(t, nil)

	db, err := Open(context.Background(), "postgres://forum")
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.True(t, *called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PingError(t *testing.T) {
	mock := stubOpen(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()
	called := stubGoose(t, nil)

	_, err := Open(context.Background(), "postgres://forum")
	require.ErrorContains(t, err, "connection refused")
	assert.False(t, *called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_MigrationError(t *testing.T) {
	mock := stubOpen(t)
	mock.ExpectPing()
	mock.ExpectClose()
	stubGoose(t, errors.New("boom"))

	_, err := Open(context.Background(), "postgres://forum")
	require.ErrorContains(t, err, "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}
