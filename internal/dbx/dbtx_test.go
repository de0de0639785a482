package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openProfile returns an in-memory profile database with the metadata table
// layout the client uses.
func openProfile(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL)`)
	require.NoError(t, err)
	return db
}

func keys(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT key FROM metadata ORDER BY key`)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		out = append(out, k)
	}
	require.NoError(t, rows.Err())
	return out
}

// putAccount writes the two rows an account consists of.
func putAccount(ctx context.Context, tx DBTX, id, email string) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES (?, ?)`, "user:"+id, `{"id":"`+id+`"}`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES (?, ?)`, "email:"+email, id)
	return err
}

func TestWithTx_CommitsBothRows(t *testing.T) {
	db := openProfile(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return putAccount(ctx, tx, "u1", "alice@example.com")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"email:alice@example.com", "user:u1"}, keys(t, db))
}

func TestWithTx_DuplicateEmailRollsBackUserRow(t *testing.T) {
	db := openProfile(t)
	ctx := context.Background()
	require.NoError(t, WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		return putAccount(ctx, tx, "u1", "alice@example.com")
	}))

	err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		return putAccount(ctx, tx, "u2", "alice@example.com")
	})
	require.Error(t, err)
	assert.Equal(t, []string{"email:alice@example.com", "user:u1"}, keys(t, db))
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := openProfile(t)
	errSuperseded := errors.New("superseded")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('session', 'u1')`)
		require.NoError(t, e)
		return errSuperseded
	})
	assert.ErrorIs(t, err, errSuperseded)
	assert.Empty(t, keys(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openProfile(t)

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, e := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('session', 'u1')`)
			require.NoError(t, e)
			panic("store crashed")
		})
	})
	assert.Empty(t, keys(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openProfile(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"users email index", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_idx"}, true},
		{"wrapped", fmt.Errorf("insert waitlist: %w", &pgconn.PgError{Code: "23505"}), true},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "sessions_user_id_fkey"}, false},
		{"plain", errors.New("connection reset"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
