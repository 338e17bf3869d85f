package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.User{Username: "kofi", APIKey: "key-1", Phone: "+233241234567", SenderID: "KOFI"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.RoleUser, created.Role)

	byKey, err := repo.GetByAPIKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byKey.ID)
	assert.Equal(t, "KOFI", byKey.SenderID)
	assert.False(t, byKey.SenderApproved)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "kofi", byID.Username)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t).DB)
	ctx := context.Background()

	_, err := repo.GetByAPIKey(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByAPIKey(ctx, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.ApproveSenderID(ctx, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_DuplicateAPIKey(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t).DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.User{Username: "a", APIKey: "same"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.User{Username: "b", APIKey: "same"})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestUserRepository_ApproveSenderID(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t).DB)
	ctx := context.Background()

	u, err := repo.Create(ctx, &model.User{Username: "ama", APIKey: "k", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	approved, err := repo.ApproveSenderID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, approved.SenderApproved)
}
