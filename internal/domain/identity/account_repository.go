package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/shared"
)

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	// Create creates a new account
	Create(ctx context.Context, account *Account) error

	// Update saves an existing account, checking the version
	Update(ctx context.Context, account *Account) error

	// Delete hard-deletes an account
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// FindByID finds an account by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)

	// FindByEmail finds an account by its normalized email within the tenant
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Account, error)

	// ExistsByEmail checks if an email is already registered
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)

	// FindAll lists accounts with paging
	FindAll(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]*Account, int64, error)
}

// AccountFilter contains filter options for listing accounts
type AccountFilter struct {
	shared.Filter
	Status *AccountStatus
	Role   *Role
}

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Update(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	// RevokeAllForAccount revokes every live session of an account
	RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) error
	// DeleteExpired removes sessions that expired or were revoked before the cutoff
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
