package identity

import (
	"github.com/zeniva/backend/internal/domain/shared"
)

// AggregateTypeAccount is the aggregate type for accounts
const AggregateTypeAccount = "Account"

// Account domain event types
const (
	EventTypeAccountCreated       = "AccountCreated"
	EventTypeAccountRolesChanged  = "AccountRolesChanged"
	EventTypeAccountStatusChanged = "AccountStatusChanged"
)

// AccountCreatedEvent is published when an account is created
type AccountCreatedEvent struct {
	shared.BaseDomainEvent
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// NewAccountCreatedEvent creates a new AccountCreatedEvent
func NewAccountCreatedEvent(a *Account) *AccountCreatedEvent {
	return &AccountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountCreated, AggregateTypeAccount, a.ID, a.TenantID),
		Email:           a.Email,
		Roles:           RoleStrings(a.Roles),
	}
}

// AccountRolesChangedEvent is published when roles are replaced
type AccountRolesChangedEvent struct {
	shared.BaseDomainEvent
	OldRoles []string `json:"old_roles"`
	NewRoles []string `json:"new_roles"`
}

// NewAccountRolesChangedEvent creates a new AccountRolesChangedEvent
func NewAccountRolesChangedEvent(a *Account, old []Role) *AccountRolesChangedEvent {
	return &AccountRolesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountRolesChanged, AggregateTypeAccount, a.ID, a.TenantID),
		OldRoles:        RoleStrings(old),
		NewRoles:        RoleStrings(a.Roles),
	}
}

// AccountStatusChangedEvent is published on approval or suspension
type AccountStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus AccountStatus `json:"old_status"`
	NewStatus AccountStatus `json:"new_status"`
}

// NewAccountStatusChangedEvent creates a new AccountStatusChangedEvent
func NewAccountStatusChangedEvent(a *Account, old AccountStatus) *AccountStatusChangedEvent {
	return &AccountStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusChanged, AggregateTypeAccount, a.ID, a.TenantID),
		OldStatus:       old,
		NewStatus:       a.Status,
	}
}
