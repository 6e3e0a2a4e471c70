package repository

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/servicedesk/servicedesk/internal/db"
	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/stretchr/testify/require"
)

// newTestDB opens an in-memory SQLite database with migrations applied.
// The pool is capped at one connection; each connection to ":memory:"
// would otherwise get its own empty database.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

func strPtr(s string) *string {
	return &s
}

func seedUser(t *testing.T, repo UserRepository, email string, username *string) *model.User {
	t.Helper()

	now := time.Now()
	user := &model.User{
		Name:      "Test User",
		Email:     email,
		Username:  username,
		Password:  "not-a-real-hash",
		Role:      model.RoleClient,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(user))
	return user
}

func seedSoftware(t *testing.T, repo SoftwareRepository, createdBy int64) *model.Software {
	t.Helper()

	software := &model.Software{
		Name:      "Acme Agent",
		Version:   strPtr("2.1.0"),
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(software))
	return software
}
