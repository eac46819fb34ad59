package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophchat/internal/models"
	"github.com/iudanet/gophchat/internal/server/storage"
)

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		user *models.User
		name string
	}{
		{
			name: "create new user successfully",
			user: &models.User{
				ID:           uuid.New().String(),
				FullName:     "Alice Liddell",
				Email:        "alice@example.com",
				PasswordHash: "hash123",
				CreatedAt:    time.Now(),
			},
		},
		{
			name: "create user with profile picture",
			user: &models.User{
				ID:           uuid.New().String(),
				FullName:     "Bob",
				Email:        "bob@example.com",
				PasswordHash: "hash456",
				ProfilePic:   "http://localhost:8080/media/bob.png",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			require.NoError(t, err)

			// Verify user was created
			retrieved, err := s.GetUserByID(ctx, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, retrieved.ID)
			assert.Equal(t, tt.user.FullName, retrieved.FullName)
			assert.Equal(t, tt.user.Email, retrieved.Email)
			assert.Equal(t, tt.user.PasswordHash, retrieved.PasswordHash)
			assert.Equal(t, tt.user.ProfilePic, retrieved.ProfilePic)
			assert.False(t, retrieved.CreatedAt.IsZero())
		})
	}
}

func TestUserStorage_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user1 := &models.User{
		ID:           uuid.New().String(),
		FullName:     "First",
		Email:        "duplicate@example.com",
		PasswordHash: "hash1",
	}
	require.NoError(t, s.CreateUser(ctx, user1))

	user2 := &models.User{
		ID:           uuid.New().String(),
		FullName:     "Second",
		Email:        "duplicate@example.com", // Same email
		PasswordHash: "hash2",
	}
	err := s.CreateUser(ctx, user2)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := &models.User{
		ID:           uuid.New().String(),
		FullName:     "Find Me",
		Email:        "findme@example.com",
		PasswordHash: "hash123",
	}
	require.NoError(t, s.CreateUser(ctx, user))

	tests := []struct {
		wantError error
		name      string
		email     string
	}{
		{name: "existing user", email: "findme@example.com"},
		{name: "unknown email", email: "nobody@example.com", wantError: storage.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetUserByEmail(ctx, tt.email)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})
	}
}

func TestUserStorage_GetUserByID_NotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_UpdateProfilePic(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "pic")

	updated, err := s.UpdateProfilePic(ctx, userID, "http://cdn/pic.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/pic.png", updated.ProfilePic)

	_, err = s.UpdateProfilePic(ctx, "missing", "http://cdn/pic.png")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_ListUsersExcluding(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	me := createTestUser(t, ctx, s, "me")
	alice := createTestUser(t, ctx, s, "alice")
	bob := createTestUser(t, ctx, s, "bob")

	users, err := s.ListUsersExcluding(ctx, me)
	require.NoError(t, err)
	require.Len(t, users, 2)

	// Отсортированы по имени, текущий пользователь исключен
	assert.Equal(t, alice, users[0].ID)
	assert.Equal(t, bob, users[1].ID)
	for _, u := range users {
		assert.NotEqual(t, me, u.ID)
	}

	// Единственный пользователь видит пустой список, а не nil
	s2, cleanup2 := setupTestStorage(t)
	defer cleanup2()
	lonely := createTestUser(t, ctx, s2, "lonely")
	users, err = s2.ListUsersExcluding(ctx, lonely)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}
