package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create saves a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// Delete soft-deletes a user by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a user by ID within the tenant in context
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email within a tenant
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)

	// FindByEmailGlobal finds a user by email across all tenants. Login
	// resolves the tenant from the user record, so this is the one lookup
	// that runs unscoped. An email registered in more than one tenant is
	// ambiguous and reported as not found.
	FindByEmailGlobal(ctx context.Context, email string) (*User, error)

	// FindByIDs resolves multiple user IDs in a single query
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)

	// FindAll lists users for the tenant in context
	FindAll(ctx context.Context, filter shared.Filter) ([]*User, int64, error)

	// FindActiveByRole finds active users holding the given role within a tenant
	FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role Role) ([]*User, error)

	// ExistsByEmail checks if an email is already registered within a tenant
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}
