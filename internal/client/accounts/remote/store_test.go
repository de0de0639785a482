package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/client/accounts"
	"github.com/dmitrijs2005/prestigeforum/internal/client/accounts/accountstest"
	"github.com/dmitrijs2005/prestigeforum/internal/client/localdb"
	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice/datatest"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *datatest.Memory) {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	mem := datatest.NewMemory()
	return New(mem, db, time.Hour), mem
}

func TestStore_Conformance(t *testing.T) {
	accountstest.Run(t, func(t *testing.T) accounts.Store {
		s, _ := newStore(t)
		return s
	})
}

func signUp(t *testing.T, s *Store) *models.Identity {
	t.Helper()
	id, err := s.Create(context.Background(), models.NewIdentity{Email: "a@b.c", Username: "a", Password: "pw"})
	require.NoError(t, err)
	return id
}

func TestAdminNormalization(t *testing.T) {
	tests := []struct {
		name  string
		role  string
		flag  bool
		admin bool
	}{
		{"member", "member", false, false},
		{"role admin", "admin", false, true},
		{"flag admin", "member", true, true},
		{"both", "admin", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mem := newStore(t)
			defer s.Close()
			ctx := context.Background()
			created := signUp(t, s)

			_, err := mem.Update(ctx, dataservice.CollectionUsers,
				[]dataservice.Filter{dataservice.Eq("id", created.ID)},
				dataservice.Row{"role": tt.role, "is_admin": tt.flag})
			require.NoError(t, err)

			got, err := s.FindByEmail(ctx, "a@b.c")
			require.NoError(t, err)
			assert.Equal(t, tt.admin, got.IsAdmin)
		})
	}
}

func TestStartSession_StoresOnlyTokenHash(t *testing.T) {
	s, mem := newStore(t)
	defer s.Close()
	ctx := context.Background()
	created := signUp(t, s)

	require.NoError(t, s.StartSession(ctx, created))

	token, err := s.cache.Get(ctx, TokenKey)
	require.NoError(t, err)
	require.Len(t, token, 2*tokenBytes)

	rows := mem.Rows(dataservice.CollectionSessions)
	require.Len(t, rows, 1)
	assert.Equal(t, hashToken(string(token)), rows[0]["token_hash"])
	assert.Equal(t, created.ID, rows[0]["user_id"])
	assert.NotContains(t, rows[0], "token")
}

func TestCurrentSession_Expired(t *testing.T) {
	s, mem := newStore(t)
	defer s.Close()
	ctx := context.Background()
	created := signUp(t, s)

	require.NoError(t, s.StartSession(ctx, created))
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := s.CurrentSession(ctx)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	token, err := s.cache.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Nil(t, token)
	assert.Len(t, mem.Rows(dataservice.CollectionSessions), 1)
}

func TestCurrentSession_RevokedServerSide(t *testing.T) {
	s, mem := newStore(t)
	defer s.Close()
	ctx := context.Background()
	created := signUp(t, s)
	require.NoError(t, s.StartSession(ctx, created))

	_, err := mem.Delete(ctx, dataservice.CollectionSessions, nil)
	require.NoError(t, err)

	_, err = s.CurrentSession(ctx)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStoreUnavailable(t *testing.T) {
	s, mem := newStore(t)
	defer s.Close()
	ctx := context.Background()
	created := signUp(t, s)
	require.NoError(t, s.StartSession(ctx, created))

	mem.SetErr(common.ErrStoreUnavailable)

	_, err := s.FindByEmail(ctx, "a@b.c")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	_, err = s.VerifyCredentials(ctx, "a@b.c", "pw")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	_, err = s.Create(ctx, models.NewIdentity{Email: "x@b.c", Username: "x", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	_, err = s.CurrentSession(ctx)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	err = s.EndSession(ctx)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	token, err := s.cache.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Nil(t, token, "sign-out clears the cached token even when the service is down")
}

func TestTransport_FoldsUnknownErrors(t *testing.T) {
	err := transport("op", common.ErrInvalidToken)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	err = transport("op", errors.New("rpc error: boom"))
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	err = transport("op", common.ErrorNotFound)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestToInt64(t *testing.T) {
	assert.Equal(t, int64(5), toInt64(float64(5)))
	assert.Equal(t, int64(-3), toInt64(int64(-3)))
	assert.Equal(t, int64(7), toInt64(7))
	assert.Equal(t, int64(0), toInt64("x"))
	assert.Equal(t, int64(9223372036854775807), toInt64(1e19))
	assert.Equal(t, int64(-9223372036854775808), toInt64(-1e19))
}

func TestIdentityFromRow_MissingID(t *testing.T) {
	_, err := identityFromRow(dataservice.Row{"email": "a@b.c"})
	assert.Error(t, err)
}
