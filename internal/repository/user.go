package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/servicedesk/servicedesk/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id int64) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	ByEmailOrUsername(identifier string) (*model.User, error)
	Update(user *model.User) error
	Delete(id int64) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (name, email, username, password, role, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := r.db.Get(&user.ID, query,
		user.Name, user.Email, user.Username, user.Password, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translateUniqueViolation(err)
	}

	return nil
}

// translateUniqueViolation maps driver-level unique constraint errors to
// domain errors. Works for both SQLite and PostgreSQL message formats.
func translateUniqueViolation(err error) error {
	errStr := err.Error()
	if !strings.Contains(errStr, "UNIQUE constraint failed") && !strings.Contains(errStr, "duplicate key value") {
		return err
	}
	if strings.Contains(errStr, "username") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

func (r *userRepository) ByID(id int64) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.Get(user, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

// ByEmailOrUsername matches either field with a single lookup, so one
// login input box accepts both.
func (r *userRepository) ByEmailOrUsername(identifier string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1 OR username = $1`

	err := r.db.Get(user, query, identifier)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) Update(user *model.User) error {
	user.UpdatedAt = time.Now()
	query := `UPDATE users SET name = $1, email = $2, username = $3, password = $4, role = $5, updated_at = $6 WHERE id = $7`

	_, err := r.db.Exec(query,
		user.Name, user.Email, user.Username, user.Password, user.Role, user.UpdatedAt, user.ID)
	if err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (r *userRepository) Delete(id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
