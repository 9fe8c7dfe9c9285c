package models

import (
	"time"
)

// Identity is an account known to the identity provider.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`

	// Internal only - never returned in JSON
	PasswordHash string `json:"-"`
}

// AuthState is one event on a session's auth-state stream. An empty UserID
// means the session is anonymous (signed out, expired or never signed in).
type AuthState struct {
	UserID string    `json:"user_id,omitempty"`
	At     time.Time `json:"at"`
}

// Authenticated reports whether the event carries an identity.
func (s AuthState) Authenticated() bool {
	return s.UserID != ""
}
