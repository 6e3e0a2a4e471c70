package model

import (
	"time"
)

const PermissionDownload = "download"

// ShareLink grants anonymous access to one software artifact, addressed
// by an unguessable secret code. The code is a bearer credential; an
// optional password hash and an optional expiry further gate access.
type ShareLink struct {
	ID           int64      `db:"id" json:"id"`
	SoftwareID   int64      `db:"software_id" json:"softwareId"`
	SecretCode   string     `db:"secret_code" json:"secretCode"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	Note         *string    `db:"note" json:"note,omitempty"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	Permissions  string     `db:"permissions" json:"permissions"`
	CreatedBy    int64      `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

func (l *ShareLink) HasPassword() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

func (l *ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
