package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/servicedesk/servicedesk/internal/repository"
)

const SessionCookieName = "session_id"

var ErrSessionInvalid = errors.New("invalid or expired session")

// SessionService bridges HTTP requests to authenticated identity. It
// mints opaque session ids, persists them in the shared store, and
// resolves cookie ids back to sessions on each request.
type SessionService struct {
	sessions      repository.SessionRepository
	ttl           time.Duration
	secureCookies bool
}

func NewSessionService(sessions repository.SessionRepository, ttl time.Duration, secureCookies bool) *SessionService {
	return &SessionService{
		sessions:      sessions,
		ttl:           ttl,
		secureCookies: secureCookies,
	}
}

// generateID returns a 256-bit random session id.
func generateID() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Mint creates and persists a fresh session for the account. A new id
// is generated on every successful authentication, never reused.
func (s *SessionService) Mint(ctx context.Context, userID int64) (*model.Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	err = s.sessions.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Resolve looks up a cookie id. Expired sessions are deleted on sight
// and reported as invalid, same as unknown ids.
func (s *SessionService) Resolve(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.sessions.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, id)
		return nil, ErrSessionInvalid
	}

	return session, nil
}

// Destroy removes the session server-side. A leaked cookie for a
// destroyed session fails resolution afterwards.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.sessions.Delete(ctx, id)
}

// PurgeExpired removes expired rows from the store.
func (s *SessionService) PurgeExpired(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx, time.Now())
}

func (s *SessionService) SetCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
