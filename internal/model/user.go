package model

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Username  *string   `db:"username" json:"username,omitempty"`
	Password  string    `db:"password" json:"-"` // always an encoded hash, never plaintext
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
