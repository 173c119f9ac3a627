package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/iliyamo/kasirku/internal/model"
	"github.com/iliyamo/kasirku/internal/utils"
)

// returnToCookie remembers the page an anonymous visitor asked for so the
// login handler can send them back after authenticating.
const returnToCookie = "redirect_after_login"

// Options configures cookie attributes and the inactivity timeout.
type Options struct {
	CookieName string
	Secure     bool
	Timeout    time.Duration
	Warning    time.Duration
}

// Manager owns the session lifecycle: creation at login (with a fresh id),
// loading from the cookie, refreshing last activity, and destruction.
// The id only ever travels in the cookie, never in URLs.
type Manager struct {
	store Store
	opts  Options

	// Now is the clock used for every timestamp and expiry decision.
	Now func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "KASIRKU_SESSID"
	}
	return &Manager{store: store, opts: opts, Now: time.Now}
}

func (m *Manager) Timeout() time.Duration { return m.opts.Timeout }
func (m *Manager) Warning() time.Duration { return m.opts.Warning }
func (m *Manager) CookieName() string     { return m.opts.CookieName }

// Load returns the session referenced by the request cookie.  ErrNotFound
// is returned when the cookie is absent or the store has no such id.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Data, error) {
	c, err := r.Cookie(m.opts.CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNotFound
	}
	return m.store.Get(ctx, c.Value)
}

// Start creates a session for u under a newly generated id and sets the
// cookie.  Any session id the browser presented is discarded first so an
// attacker-planted id can never become authenticated.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, u model.User) (*Data, error) {
	if old, err := r.Cookie(m.opts.CookieName); err == nil && old.Value != "" {
		if err := m.store.Delete(ctx, old.Value); err != nil {
			return nil, fmt.Errorf("discard previous session: %w", err)
		}
	}
	id, err := utils.RandomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := m.Now()
	d := &Data{
		ID:           id,
		UserID:       u.ID,
		Username:     u.Username,
		Role:         u.Role,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.store.Save(ctx, d); err != nil {
		return nil, err
	}
	m.setCookie(w, id, 0)
	return d, nil
}

// Expired reports whether the session has been idle longer than the timeout.
// A session idle for exactly the timeout is still valid.
func (m *Manager) Expired(d *Data) bool {
	return m.Now().Sub(d.LastActivity) > m.opts.Timeout
}

// Touch sets last activity to now and persists the session.
func (m *Manager) Touch(ctx context.Context, d *Data) error {
	d.LastActivity = m.Now()
	return m.store.Save(ctx, d)
}

// Save persists d without changing its activity timestamp.
func (m *Manager) Save(ctx context.Context, d *Data) error {
	return m.store.Save(ctx, d)
}

// Destroy deletes the session (when id is non-empty) and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, id string) error {
	m.setCookie(w, "", -1)
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// Identity derives the request identity handed to handlers.
func (m *Manager) Identity(d *Data) Identity {
	return Identity{
		UserID:    d.UserID,
		Username:  d.Username,
		Role:      d.Role,
		ExpiresAt: d.LastActivity.Add(m.opts.Timeout),
	}
}

// SetFlash stores a notice for the next page render.
func (m *Manager) SetFlash(ctx context.Context, d *Data, kind, message string) error {
	d.Flash = &Flash{Kind: kind, Message: message}
	return m.store.Save(ctx, d)
}

// PopFlash returns and clears the pending notice, if any.
func (m *Manager) PopFlash(ctx context.Context, d *Data) (*Flash, error) {
	if d == nil || d.Flash == nil {
		return nil, nil
	}
	f := d.Flash
	d.Flash = nil
	return f, m.store.Save(ctx, d)
}

// RememberPath records where an unauthenticated visitor was heading.
func (m *Manager) RememberPath(w http.ResponseWriter, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     returnToCookie,
		Value:    path,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TakeRememberedPath returns the remembered path and clears it.
func (m *Manager) TakeRememberedPath(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(returnToCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     returnToCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return c.Value
}

// setCookie writes the session cookie.  maxAge 0 makes it a browser-session
// cookie; negative deletes it.
func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
