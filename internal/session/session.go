// Package session implements server-side sessions keyed by an opaque
// identifier carried in an HttpOnly cookie.  A Store persists session
// data; a Manager creates, refreshes and destroys sessions and enforces
// the inactivity timeout.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no session exists for an id.
var ErrNotFound = errors.New("session not found")

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"` // alert kind: success or error
	Message string `json:"message"`
}

// Data is the state kept for one logged-in browser.
type Data struct {
	ID           string    `json:"-"`
	UserID       uint64    `json:"user_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Flash        *Flash    `json:"flash,omitempty"`
}

// Identity is the per-request view of an authenticated session that the
// Auth Gate hands to handlers.
type Identity struct {
	UserID    uint64
	Username  string
	Role      string
	ExpiresAt time.Time
}

// Store persists session data.  Implementations must return ErrNotFound
// for unknown ids and must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, d *Data) error
	Delete(ctx context.Context, id string) error
}
