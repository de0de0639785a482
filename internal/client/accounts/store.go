// Package accounts defines the account store contract shared by the local
// (SQLite, offline/debug) and remote (data service) variants. The session
// controller talks only to Store and never branches on the variant.
//
// Absent identities and sessions are reported as common.ErrorNotFound.
// Create fails with common.ErrDuplicateEmail when the normalized email is
// taken. VerifyCredentials fails with common.ErrorUnauthorized whether the
// email is unknown or the password is wrong. The remote variant reports
// transport failures as common.ErrStoreUnavailable.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/prestigeforum/internal/models"
)

type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	Create(ctx context.Context, fields models.NewIdentity) (*models.Identity, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.Identity, error)
	UpdatePrestige(ctx context.Context, id string, score int64) error
	UpdateAvatar(ctx context.Context, id string, url string) error

	// CurrentSession restores the identity of a previously started session
	// without asking for credentials.
	CurrentSession(ctx context.Context) (*models.Identity, error)
	StartSession(ctx context.Context, identity *models.Identity) error
	EndSession(ctx context.Context) error

	Close() error
}

// Mode selects the Store variant. It is fixed when the store is built.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// ParseMode accepts "local"/"debug"/"offline" and "remote"/"production".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "local", "debug", "offline":
		return ModeLocal, true
	case "remote", "production", "prod":
		return ModeRemote, true
	default:
		return "", false
	}
}
