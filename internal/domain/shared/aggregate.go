package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot carries the optimistic-locking version and pending domain events
type BaseAggregateRoot struct {
	BaseEntity
	Version       int
	versionBumped bool
	domainEvents  []DomainEvent
}

// NewBaseAggregateRoot creates a new base aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version once per unit of work. Later changes
// before the aggregate is saved keep the same pending version.
func (a *BaseAggregateRoot) IncrementVersion() {
	if a.versionBumped {
		return
	}
	a.Version++
	a.versionBumped = true
}

// ExpectedVersion is the version the stored row must carry for an update
// of this aggregate to succeed.
func (a *BaseAggregateRoot) ExpectedVersion() int {
	if a.versionBumped {
		return a.Version - 1
	}
	return a.Version
}

// MarkSaved starts a new unit of work after a successful save.
func (a *BaseAggregateRoot) MarkSaved() {
	a.versionBumped = false
}

// AddDomainEvent queues a domain event to be published after the aggregate is saved
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// TenantAggregateRoot scopes an aggregate to a tenant (agency)
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}

// SetCreatedBy records the account that created the aggregate
func (t *TenantAggregateRoot) SetCreatedBy(accountID uuid.UUID) {
	t.CreatedBy = &accountID
}
