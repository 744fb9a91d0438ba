package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for user data access
type Repository interface {
	// Create inserts a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists changes to a user
	Update(ctx context.Context, user *User) error

	// UpdateLastLogin refreshes the last-login timestamp
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error

	// SetActive toggles the active flag (soft deactivation, never a delete)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// List returns a page of users ordered newest-first
	List(ctx context.Context, page, pageSize int) ([]*User, int, error)

	// CountByRole counts users holding a role
	CountByRole(ctx context.Context, role Role) (int, error)
}
