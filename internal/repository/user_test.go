package repository

import (
	"context"
	"testing"
	"time"

	"sewconnect-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAndGet(t *testing.T) {
	truncateAll(t)
	repo := NewUserRepository(testPool)

	user, err := repo.Create(context.Background(), "ada", "ada@example.com", "hash", model.RoleCustomer, "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, model.RoleCustomer, user.Role)

	byID, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", byID.Username)

	byName, err := repo.GetByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	truncateAll(t)
	repo := NewUserRepository(testPool)

	_, err := repo.Create(context.Background(), "ada", "ada@example.com", "hash", model.RoleCustomer, "Ada")
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), "ada", "other@example.com", "hash", model.RoleCustomer, "Ada")
	assert.Error(t, err)
}

func TestUserListSeamstresses(t *testing.T) {
	truncateAll(t)
	repo := NewUserRepository(testPool)

	createTestUser(t, model.RoleCustomer)
	seamstressID := createTestUser(t, model.RoleSeamstress)

	profiles, err := repo.ListSeamstresses(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, seamstressID, profiles[0].ID)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	truncateAll(t)
	repo := NewSessionRepository(testPool)
	userID := createTestUser(t, model.RoleCustomer)

	hash := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	require.NoError(t, repo.StoreRefreshToken(context.Background(), userID, hash, time.Now().Add(time.Hour)))

	gotID, err := repo.ValidateRefreshToken(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)

	require.NoError(t, repo.RevokeRefreshToken(context.Background(), hash))

	_, err = repo.ValidateRefreshToken(context.Background(), hash)
	assert.Error(t, err, "revoked token must not validate")
}

func TestRefreshToken_Expired(t *testing.T) {
	truncateAll(t)
	repo := NewSessionRepository(testPool)
	userID := createTestUser(t, model.RoleCustomer)

	hash := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	require.NoError(t, repo.StoreRefreshToken(context.Background(), userID, hash, time.Now().Add(-time.Minute)))

	_, err := repo.ValidateRefreshToken(context.Background(), hash)
	assert.Error(t, err)
}
