// Package session keeps the signed-in owner in a database-backed cookie session.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/BuzzLyutic/things/internal/model"
	"github.com/BuzzLyutic/things/internal/repo"
)

const CookieName = "__session"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNoSecret        = errors.New("session: at least one secret is required")
)

type Options struct {
	// Secrets verify cookies in order; only the first one signs new cookies.
	Secrets []string
	TTL     time.Duration
	Secure  bool
}

type Manager struct {
	store   repo.SessionRepository
	secrets [][]byte
	ttl     time.Duration
	secure  bool
	now     func() time.Time
}

func NewManager(store repo.SessionRepository, opts Options) (*Manager, error) {
	m := &Manager{
		store:  store,
		ttl:    opts.TTL,
		secure: opts.Secure,
		now:    time.Now,
	}
	for _, s := range opts.Secrets {
		if s != "" {
			m.secrets = append(m.secrets, []byte(s))
		}
	}
	if len(m.secrets) == 0 {
		return nil, ErrNoSecret
	}
	if m.ttl <= 0 {
		m.ttl = 7 * 24 * time.Hour
	}
	return m, nil
}

// CurrentOwnerID resolves the request's session cookie to an owner id.
func (m *Manager) CurrentOwnerID(r *http.Request) (string, error) {
	id, ok := m.requestSessionID(r)
	if !ok {
		return "", ErrUnauthenticated
	}

	data, err := m.store.Get(r.Context(), id, m.now())
	if errors.Is(err, repo.ErrorNotFound) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}
	if data.OwnerID == "" {
		return "", ErrUnauthenticated
	}
	return data.OwnerID, nil
}

// Commit starts a fresh session for ownerID and sets the cookie. A session the request already
// carries is deleted first, so a sign-in never keeps an id that existed before it.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, ownerID string) error {
	if old, ok := m.requestSessionID(r); ok {
		if err := m.store.Delete(ctx, old); err != nil && !errors.Is(err, repo.ErrorNotFound) {
			return err
		}
	}

	expires := m.now().Add(m.ttl)
	id, err := m.store.Create(ctx, model.SessionData{OwnerID: ownerID}, expires)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.sign(id),
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy removes the request's session, if any, and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer m.Clear(w)
	id, ok := m.requestSessionID(r)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, repo.ErrorNotFound) {
		return err
	}
	return nil
}

func (m *Manager) requestSessionID(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return m.verify(c.Value)
}

func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sign(id string) string {
	return id + "." + mac(m.secrets[0], id)
}

func (m *Manager) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	id, sig := value[:i], value[i+1:]
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	for _, secret := range m.secrets {
		want, _ := base64.RawURLEncoding.DecodeString(mac(secret, id))
		if hmac.Equal(want, got) {
			return id, true
		}
	}
	return "", false
}

func mac(secret []byte, id string) string {
	h := hmac.New(sha256.New, secret)
	_, _ = h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
