package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/servicedesk/servicedesk/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository is the shared session store. All server instances
// observe the same session state, so a logout on one invalidates the
// cookie everywhere.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	ByID(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	return err
}

func (r *sessionRepository) ByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	query := `SELECT * FROM sessions WHERE id = $1`

	err := r.db.GetContext(ctx, session, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}

	return session, err
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	_, err := r.db.ExecContext(ctx, query, now)
	return err
}
