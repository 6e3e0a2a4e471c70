package model

import (
	"time"
)

// Session maps an opaque cookie id to an account. Only the account id is
// stored; the full account is re-fetched on every request so role changes
// take effect immediately.
type Session struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
