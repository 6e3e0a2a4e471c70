package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/servicedesk/servicedesk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	sessions map[string]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *model.Session) error {
	stored := *session
	f.sessions[session.ID] = &stored
	return nil
}

func (f *fakeSessionRepo) ByID(_ context.Context, id string) (*model.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	clone := *session
	return &clone, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) error {
	for id, session := range f.sessions {
		if session.Expired(now) {
			delete(f.sessions, id)
		}
	}
	return nil
}

func TestMintAndResolve(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, 7*24*time.Hour, false)
	ctx := context.Background()

	session, err := svc.Mint(ctx, 42)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, int64(42), session.UserID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), session.ExpiresAt, time.Minute)

	resolved, err := svc.Resolve(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, resolved.UserID)
}

func TestMintUniqueIDs(t *testing.T) {
	svc := NewSessionService(newFakeSessionRepo(), time.Hour, false)
	ctx := context.Background()

	first, err := svc.Mint(ctx, 1)
	require.NoError(t, err)
	second, err := svc.Mint(ctx, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "every login mints a fresh session id")
}

func TestResolveRejections(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, time.Hour, false)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = svc.Resolve(ctx, "unknown-id")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// expired session is deleted on resolution
	repo.sessions["stale"] = &model.Session{
		ID:        "stale",
		UserID:    1,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	_, err = svc.Resolve(ctx, "stale")
	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.NotContains(t, repo.sessions, "stale")
}

func TestDestroy(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, time.Hour, false)
	ctx := context.Background()

	session, err := svc.Mint(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, session.ID))

	// the old id must fail resolution server-side afterwards
	_, err = svc.Resolve(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionCookie(t *testing.T) {
	svc := NewSessionService(newFakeSessionRepo(), time.Hour, true)

	session := &model.Session{ID: "abc", ExpiresAt: time.Now().Add(time.Hour)}

	rec := httptest.NewRecorder()
	svc.SetCookie(rec, session)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.Equal(t, "abc", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Positive(t, cookie.MaxAge)

	rec = httptest.NewRecorder()
	svc.ClearCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
}
