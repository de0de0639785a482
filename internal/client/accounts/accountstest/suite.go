// Package accountstest is a behavioural suite every accounts.Store variant
// must pass. Both the local and the remote store run it.
package accountstest

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/prestigeforum/internal/client/accounts"
	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) accounts.Store

var alice = models.NewIdentity{Email: "Alice@Example.com ", Username: "alice", Password: "correct horse"}

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s accounts.Store)
	}{
		{"CreateAndFind", testCreateAndFind},
		{"DuplicateEmail", testDuplicateEmail},
		{"VerifyCredentials", testVerifyCredentials},
		{"UpdatePrestige", testUpdatePrestige},
		{"UpdateAvatar", testUpdateAvatar},
		{"UpdateUnknownID", testUpdateUnknownID},
		{"SessionLifecycle", testSessionLifecycle},
		{"SessionSeesUpdates", testSessionSeesUpdates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func create(t *testing.T, s accounts.Store, fields models.NewIdentity) *models.Identity {
	t.Helper()
	id, err := s.Create(context.Background(), fields)
	require.NoError(t, err)
	return id
}

func testCreateAndFind(t *testing.T, s accounts.Store) {
	ctx := context.Background()

	_, err := s.FindByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	created := create(t, s, alice)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "alice", created.Username)
	assert.Zero(t, created.PrestigeScore)
	assert.False(t, created.IsAdmin)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := s.FindByEmail(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func testDuplicateEmail(t *testing.T, s accounts.Store) {
	create(t, s, alice)

	_, err := s.Create(context.Background(), models.NewIdentity{Email: "alice@EXAMPLE.com", Username: "other", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func testVerifyCredentials(t *testing.T, s accounts.Store) {
	ctx := context.Background()
	created := create(t, s, alice)

	got, err := s.VerifyCredentials(ctx, "alice@example.com", alice.Password)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = s.VerifyCredentials(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.VerifyCredentials(ctx, "nobody@example.com", alice.Password)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

// Scores move by catalogued action steps (+5, then -10) so the suite also
// passes against a data service that enforces them.
func testUpdatePrestige(t *testing.T, s accounts.Store) {
	ctx := context.Background()
	created := create(t, s, alice)

	require.NoError(t, s.UpdatePrestige(ctx, created.ID, 5))
	found, err := s.FindByEmail(ctx, alice.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(5), found.PrestigeScore)

	require.NoError(t, s.UpdatePrestige(ctx, created.ID, -5))
	found, err = s.FindByEmail(ctx, alice.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), found.PrestigeScore)
}

func testUpdateAvatar(t *testing.T, s accounts.Store) {
	ctx := context.Background()
	created := create(t, s, alice)

	require.NoError(t, s.UpdateAvatar(ctx, created.ID, "https://cdn.example.com/avatars/a.png"))
	found, err := s.FindByEmail(ctx, alice.Email)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/a.png", found.AvatarURL)
}

func testUpdateUnknownID(t *testing.T, s accounts.Store) {
	err := s.UpdatePrestige(context.Background(), "00000000-0000-0000-0000-000000000000", 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func testSessionLifecycle(t *testing.T, s accounts.Store) {
	ctx := context.Background()

	_, err := s.CurrentSession(ctx)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, s.EndSession(ctx))

	created := create(t, s, alice)
	require.NoError(t, s.StartSession(ctx, created))

	cur, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, cur.ID)
	assert.Equal(t, created.Email, cur.Email)

	require.NoError(t, s.EndSession(ctx))
	_, err = s.CurrentSession(ctx)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.EndSession(ctx))
}

func testSessionSeesUpdates(t *testing.T, s accounts.Store) {
	ctx := context.Background()
	created := create(t, s, alice)
	require.NoError(t, s.StartSession(ctx, created))

	require.NoError(t, s.UpdatePrestige(ctx, created.ID, 15))

	cur, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15), cur.PrestigeScore)
}
