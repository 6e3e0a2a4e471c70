package repository

import (
	"testing"
	"time"

	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLinkCreateAndLookup(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	software := NewSoftwareRepository(database)
	repo := NewShareLinkRepository(database)

	user := seedUser(t, users, "admin@example.com", nil)
	target := seedSoftware(t, software, user.ID)

	expiry := time.Now().Add(24 * time.Hour)
	link := &model.ShareLink{
		SoftwareID:   target.ID,
		SecretCode:   "Ab3dEf7h",
		PasswordHash: strPtr("encoded-hash"),
		Note:         strPtr("for the contractor"),
		ExpiresAt:    &expiry,
		Permissions:  model.PermissionDownload,
		CreatedBy:    user.ID,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(link))
	assert.Positive(t, link.ID)

	got, err := repo.BySecretCode("Ab3dEf7h")
	require.NoError(t, err)
	assert.Equal(t, target.ID, got.SoftwareID)
	require.NotNil(t, got.Note)
	assert.Equal(t, "for the contractor", *got.Note)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, expiry, *got.ExpiresAt, time.Second)
}

func TestShareLinkSecretCodeCaseSensitive(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	software := NewSoftwareRepository(database)
	repo := NewShareLinkRepository(database)

	user := seedUser(t, users, "admin@example.com", nil)
	target := seedSoftware(t, software, user.ID)

	link := &model.ShareLink{
		SoftwareID:  target.ID,
		SecretCode:  "AbCdEfGh",
		Permissions: model.PermissionDownload,
		CreatedBy:   user.ID,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(link))

	_, err := repo.BySecretCode("abcdefgh")
	assert.ErrorIs(t, err, ErrShareLinkNotFound)
}

func TestShareLinkDuplicateSecretCode(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	software := NewSoftwareRepository(database)
	repo := NewShareLinkRepository(database)

	user := seedUser(t, users, "admin@example.com", nil)
	target := seedSoftware(t, software, user.ID)

	first := &model.ShareLink{
		SoftwareID:  target.ID,
		SecretCode:  "SameCode",
		Permissions: model.PermissionDownload,
		CreatedBy:   user.ID,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(first))

	dup := &model.ShareLink{
		SoftwareID:  target.ID,
		SecretCode:  "SameCode",
		Permissions: model.PermissionDownload,
		CreatedBy:   user.ID,
		CreatedAt:   time.Now(),
	}
	assert.ErrorIs(t, repo.Create(dup), ErrDuplicateSecretCode)
}

func TestShareLinkBySoftwareID(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	software := NewSoftwareRepository(database)
	repo := NewShareLinkRepository(database)

	user := seedUser(t, users, "admin@example.com", nil)
	target := seedSoftware(t, software, user.ID)
	other := seedSoftware(t, software, user.ID)

	for _, code := range []string{"CodeOne1", "CodeTwo2"} {
		link := &model.ShareLink{
			SoftwareID:  target.ID,
			SecretCode:  code,
			Permissions: model.PermissionDownload,
			CreatedBy:   user.ID,
			CreatedAt:   time.Now(),
		}
		require.NoError(t, repo.Create(link))
	}

	links, err := repo.BySoftwareID(target.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	links, err = repo.BySoftwareID(other.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}
