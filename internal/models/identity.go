// Package models holds the identity records shared by the account stores,
// the session controller and the reputation engine.
package models

import "time"

// Identity is a forum account as seen by the client. PrestigeScore only
// changes through reputation.ApplyAction; IsAdmin is independent of it.
type Identity struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	PrestigeScore int64     `json:"prestige_score"`
	IsAdmin       bool      `json:"is_admin"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewIdentity carries the sign-up fields.
type NewIdentity struct {
	Email    string
	Username string
	Password string
}
