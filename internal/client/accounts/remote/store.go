// Package remote is the production account store. Identities and sessions
// live in the remote data service; only the raw session token is kept in
// the profile's local metadata table so the session survives restarts.
package remote

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/cryptox"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
)

// TokenKey is the metadata key holding the raw session token.
const TokenKey = "remote_session_token"

const DefaultSessionTTL = 30 * 24 * time.Hour

const tokenBytes = 32

type Store struct {
	data  dataservice.Client
	db    *sql.DB
	cache metadata.Repository
	ttl   time.Duration
	now   func() time.Time
}

// New builds the store. db is the profile database that caches the session
// token; the store owns both db and data and closes them in Close.
func New(data dataservice.Client, db *sql.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		data:  data,
		db:    db,
		cache: metadata.NewSQLiteRepository(db),
		ttl:   ttl,
		now:   time.Now,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// transport keeps store sentinels and folds every other data service
// failure into ErrStoreUnavailable.
func transport(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrStoreUnavailable),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrorUnauthorized):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, common.ErrStoreUnavailable, err)
	}
}

func (s *Store) findUser(ctx context.Context, filter dataservice.Filter) (dataservice.Row, error) {
	rows, err := s.data.Select(ctx, dataservice.Query{
		Collection: dataservice.CollectionUsers,
		Filters:    []dataservice.Filter{filter},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrorNotFound
	}
	return rows[0], nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	row, err := s.findUser(ctx, dataservice.Eq("email", common.NormalizeEmail(email)))
	if err != nil {
		return nil, transport("find user", err)
	}
	return identityFromRow(row)
}

func (s *Store) Create(ctx context.Context, fields models.NewIdentity) (*models.Identity, error) {
	email := common.NormalizeEmail(fields.Email)

	_, err := s.findUser(ctx, dataservice.Eq("email", email))
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, transport("create user", err)
	}

	row, err := s.data.Insert(ctx, dataservice.CollectionUsers, dataservice.Row{
		"email":          email,
		"username":       fields.Username,
		"password_hash":  cryptox.HashPassword([]byte(fields.Password)),
		"prestige_score": int64(0),
	})
	if errors.Is(err, common.ErrAlreadyExists) {
		return nil, common.ErrDuplicateEmail
	}
	if err != nil {
		return nil, transport("create user", err)
	}
	return identityFromRow(row)
}

func (s *Store) VerifyCredentials(ctx context.Context, email, password string) (*models.Identity, error) {
	row, err := s.data.Authenticate(ctx, common.NormalizeEmail(email), password)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, transport("verify credentials", err)
	}
	return identityFromRow(row)
}

func (s *Store) update(ctx context.Context, id string, values dataservice.Row) error {
	n, err := s.data.Update(ctx, dataservice.CollectionUsers, []dataservice.Filter{dataservice.Eq("id", id)}, values)
	if err != nil {
		return transport("update user", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *Store) UpdatePrestige(ctx context.Context, id string, score int64) error {
	return s.update(ctx, id, dataservice.Row{"prestige_score": score})
}

func (s *Store) UpdateAvatar(ctx context.Context, id string, url string) error {
	return s.update(ctx, id, dataservice.Row{"avatar_url": url})
}

func (s *Store) CurrentSession(ctx context.Context) (*models.Identity, error) {
	raw, err := s.cache.Get(ctx, TokenKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, common.ErrorNotFound
	}

	rows, err := s.data.Select(ctx, dataservice.Query{
		Collection: dataservice.CollectionSessions,
		Filters:    []dataservice.Filter{dataservice.Eq("token_hash", hashToken(string(raw)))},
		Limit:      1,
	})
	if err != nil {
		return nil, transport("load session", err)
	}
	if len(rows) == 0 || sessionExpired(rows[0], s.now()) {
		return nil, s.dropToken(ctx)
	}

	userID, _ := rows[0]["user_id"].(string)
	row, err := s.findUser(ctx, dataservice.Eq("id", userID))
	if errors.Is(err, common.ErrorNotFound) {
		return nil, s.dropToken(ctx)
	}
	if err != nil {
		return nil, transport("load session user", err)
	}
	return identityFromRow(row)
}

// dropToken forgets a token the service no longer honours and reports the
// session as absent.
func (s *Store) dropToken(ctx context.Context) error {
	if err := s.cache.Delete(ctx, TokenKey); err != nil {
		return err
	}
	return common.ErrorNotFound
}

func sessionExpired(row dataservice.Row, now time.Time) bool {
	raw, ok := row["expires_at"].(string)
	if !ok {
		return false
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return true
	}
	return !now.Before(at)
}

func (s *Store) StartSession(ctx context.Context, identity *models.Identity) error {
	token, err := common.MakeRandHexString(tokenBytes)
	if err != nil {
		return fmt.Errorf("session token: %w", err)
	}

	_, err = s.data.Insert(ctx, dataservice.CollectionSessions, dataservice.Row{
		"token_hash": hashToken(token),
		"user_id":    identity.ID,
		"expires_at": s.now().Add(s.ttl).UTC(),
	})
	if err != nil {
		return transport("start session", err)
	}
	return s.cache.Set(ctx, TokenKey, []byte(token))
}

// EndSession removes the session row when the service is reachable. The
// cached token is always cleared, so the client is signed out either way.
func (s *Store) EndSession(ctx context.Context) error {
	raw, err := s.cache.Get(ctx, TokenKey)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	_, delErr := s.data.Delete(ctx, dataservice.CollectionSessions,
		[]dataservice.Filter{dataservice.Eq("token_hash", hashToken(string(raw)))})

	if err := s.cache.Delete(ctx, TokenKey); err != nil {
		return err
	}
	if delErr != nil {
		return transport("end session", delErr)
	}
	return nil
}

func (s *Store) Close() error {
	return errors.Join(s.data.Close(), s.db.Close())
}
