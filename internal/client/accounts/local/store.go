// Package local is the offline/debug account store. Identities and the
// current session live in the profile's SQLite metadata table, so they do
// not follow the user to another profile or device.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/cryptox"
	"github.com/dmitrijs2005/prestigeforum/internal/dbx"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
	"github.com/google/uuid"
)

// SessionKey is the metadata key holding the serialized identity of the
// signed-in user.
const SessionKey = "session"

func userKey(id string) string     { return "user:" + id }
func emailKey(email string) string { return "email:" + common.NormalizeEmail(email) }

// userRecord is what is stored under user:<id>.
type userRecord struct {
	models.Identity
	PasswordHash string `json:"password_hash"`
}

type Store struct {
	db     *sql.DB
	admins map[string]bool
	now    func() time.Time
}

// New builds a store on an already migrated database (see localdb.Open).
// Accounts created with one of adminEmails get IsAdmin set.
func New(db *sql.DB, adminEmails []string) *Store {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[common.NormalizeEmail(e)] = true
	}
	return &Store{db: db, admins: admins, now: time.Now}
}

func (s *Store) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func loadJSON[T any](ctx context.Context, repo metadata.Repository, key string) (*T, error) {
	raw, err := repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, common.ErrorNotFound
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

func saveJSON(ctx context.Context, repo metadata.Repository, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return repo.Set(ctx, key, raw)
}

func (s *Store) findRecordByEmail(ctx context.Context, repo metadata.Repository, email string) (*userRecord, error) {
	id, err := repo.Get(ctx, emailKey(email))
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, common.ErrorNotFound
	}
	return loadJSON[userRecord](ctx, repo, userKey(string(id)))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	rec, err := s.findRecordByEmail(ctx, s.repo(s.db), email)
	if err != nil {
		return nil, err
	}
	return &rec.Identity, nil
}

func (s *Store) Create(ctx context.Context, fields models.NewIdentity) (*models.Identity, error) {
	email := common.NormalizeEmail(fields.Email)
	rec := &userRecord{
		Identity: models.Identity{
			ID:        uuid.NewString(),
			Email:     email,
			Username:  fields.Username,
			IsAdmin:   s.admins[email],
			CreatedAt: s.now().UTC(),
		},
		PasswordHash: cryptox.HashPassword([]byte(fields.Password)),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)

		taken, err := repo.Get(ctx, emailKey(email))
		if err != nil {
			return err
		}
		if taken != nil {
			return common.ErrDuplicateEmail
		}

		if err := saveJSON(ctx, repo, userKey(rec.ID), rec); err != nil {
			return err
		}
		return repo.Set(ctx, emailKey(email), []byte(rec.ID))
	})
	if err != nil {
		return nil, err
	}

	return &rec.Identity, nil
}

func (s *Store) VerifyCredentials(ctx context.Context, email, password string) (*models.Identity, error) {
	rec, err := s.findRecordByEmail(ctx, s.repo(s.db), email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	ok, err := cryptox.VerifyPassword(rec.PasswordHash, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("verify password for %s: %w", rec.ID, err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return &rec.Identity, nil
}

// update applies fn to the user record and, when that user holds the local
// session, to the session record as well.
func (s *Store) update(ctx context.Context, id string, fn func(*models.Identity)) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)

		rec, err := loadJSON[userRecord](ctx, repo, userKey(id))
		if err != nil {
			return err
		}
		fn(&rec.Identity)
		if err := saveJSON(ctx, repo, userKey(id), rec); err != nil {
			return err
		}

		sess, err := loadJSON[models.Identity](ctx, repo, SessionKey)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if sess.ID != id {
			return nil
		}
		return saveJSON(ctx, repo, SessionKey, rec.Identity)
	})
}

func (s *Store) UpdatePrestige(ctx context.Context, id string, score int64) error {
	return s.update(ctx, id, func(i *models.Identity) { i.PrestigeScore = score })
}

func (s *Store) UpdateAvatar(ctx context.Context, id string, url string) error {
	return s.update(ctx, id, func(i *models.Identity) { i.AvatarURL = url })
}

// CurrentSession returns the serialized session identity, refreshed from
// its user record. A session whose user record is gone is dropped.
func (s *Store) CurrentSession(ctx context.Context) (*models.Identity, error) {
	repo := s.repo(s.db)

	sess, err := loadJSON[models.Identity](ctx, repo, SessionKey)
	if err != nil {
		return nil, err
	}

	rec, err := loadJSON[userRecord](ctx, repo, userKey(sess.ID))
	if errors.Is(err, common.ErrorNotFound) {
		if err := repo.Delete(ctx, SessionKey); err != nil {
			return nil, err
		}
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec.Identity, nil
}

func (s *Store) StartSession(ctx context.Context, identity *models.Identity) error {
	return saveJSON(ctx, s.repo(s.db), SessionKey, identity)
}

func (s *Store) EndSession(ctx context.Context) error {
	return s.repo(s.db).Delete(ctx, SessionKey)
}

func (s *Store) Close() error {
	return s.db.Close()
}
