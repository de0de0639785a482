package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_CreateEveryCollection(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	var all strings.Builder
	for _, n := range names {
		b, err := fs.ReadFile(Migrations, n)
		require.NoError(t, err)
		assert.Contains(t, string(b), "-- +goose Up", n)
		assert.Contains(t, string(b), "-- +goose Down", n)
		all.Write(b)
	}

	for _, table := range []string{"users", "sessions", "posts", "ads", "waitlist"} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, all.String(), "ON users (lower(email))")
}
