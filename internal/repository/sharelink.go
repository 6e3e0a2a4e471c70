package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/servicedesk/servicedesk/internal/model"
)

var (
	ErrShareLinkNotFound   = errors.New("share link not found")
	ErrDuplicateSecretCode = errors.New("secret code already exists")
)

type ShareLinkRepository interface {
	// Create inserts the link. Secret code uniqueness is a hard DB
	// constraint; a collision surfaces as ErrDuplicateSecretCode so
	// the issuer can regenerate and retry.
	Create(link *model.ShareLink) error
	BySecretCode(code string) (*model.ShareLink, error)
	BySoftwareID(softwareID int64) ([]*model.ShareLink, error)
}

type shareLinkRepository struct {
	db *sqlx.DB
}

func NewShareLinkRepository(db *sqlx.DB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

func (r *shareLinkRepository) Create(link *model.ShareLink) error {
	query := `INSERT INTO share_links (software_id, secret_code, password_hash, note, expires_at, permissions, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	err := r.db.Get(&link.ID, query,
		link.SoftwareID, link.SecretCode, link.PasswordHash, link.Note,
		link.ExpiresAt, link.Permissions, link.CreatedBy, link.CreatedAt)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrDuplicateSecretCode
		}
		return err
	}

	return nil
}

func (r *shareLinkRepository) BySecretCode(code string) (*model.ShareLink, error) {
	link := &model.ShareLink{}
	query := `SELECT * FROM share_links WHERE secret_code = $1`

	err := r.db.Get(link, query, code)
	if err == sql.ErrNoRows {
		return nil, ErrShareLinkNotFound
	}

	return link, err
}

func (r *shareLinkRepository) BySoftwareID(softwareID int64) ([]*model.ShareLink, error) {
	var links []*model.ShareLink
	query := `SELECT * FROM share_links WHERE software_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&links, query, softwareID)
	if err != nil {
		return nil, err
	}

	return links, nil
}
