package storage

import (
	"context"

	"github.com/iudanet/gophchat/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if email is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves user by email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateProfilePic sets the profile picture URL and returns the updated user
	// Returns ErrUserNotFound if user doesn't exist
	UpdateProfilePic(ctx context.Context, userID, url string) (*models.User, error)

	// ListUsersExcluding returns every user except userID, without credentials
	// Returns empty slice if no other users exist
	ListUsersExcluding(ctx context.Context, userID string) ([]models.UserSummary, error)
}
