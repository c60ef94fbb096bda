package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/shared"
)

// Outcome distinguishes applied mutations from ignored or refused ones
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailed  Outcome = "failed"
)

// Actions recorded in the audit log
const (
	ActionSignup             = "account.signup"
	ActionAccountApproved    = "account.approved"
	ActionAccountSuspended   = "account.suspended"
	ActionAccountDeleted     = "account.deleted"
	ActionAccountRoles       = "account.roles_updated"
	ActionLogin              = "auth.login"
	ActionLoginFailed        = "auth.login_failed"
	ActionLogout             = "auth.logout"
	ActionEffectiveRoleSet   = "auth.effective_role_set"
	ActionEffectiveRoleClear = "auth.effective_role_cleared"
	ActionSpaceSwitched      = "auth.space_switched"
	ActionClientCreated      = "client.created"
	ActionClientUpdated      = "client.updated"
	ActionClientAgent        = "client.agent_assigned"
	ActionTripCreated        = "trip.created"
	ActionTripUpdated        = "trip.updated"
	ActionTripStatus         = "trip.status_changed"
	ActionComponentAdded     = "trip.component_added"
	ActionComponentUpdated   = "trip.component_updated"
	ActionComponentRemoved   = "trip.component_removed"
	ActionPaymentAdded       = "payment.added"
	ActionPaymentStatus      = "payment.status_changed"
	ActionLedgerPosted       = "ledger.posted"
	ActionDocumentAttached   = "trip.document_attached"
)

// Entry is an append-only audit record
type Entry struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id,omitempty"`
	Outcome    Outcome        `json:"outcome"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Actor identifies who performed an action
type Actor struct {
	TenantID uuid.UUID
	ID       uuid.UUID
	Email    string
}

// NewEntry creates an entry for the actor. A nil actor ID is recorded for
// anonymous calls such as failed logins.
func NewEntry(actor Actor, action, targetType, targetID string, outcome Outcome, details map[string]any) Entry {
	e := Entry{
		ID:         uuid.New(),
		TenantID:   actor.TenantID,
		ActorEmail: actor.Email,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Outcome:    outcome,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		e.ActorID = &id
	}
	return e
}

// Repository is append-only
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Entry, int64, error)
}

// Filter contains filter options for listing audit entries
type Filter struct {
	shared.Filter
	ActorID    *uuid.UUID
	Action     string
	TargetType string
	TargetID   string
	From       *time.Time
	To         *time.Time
}

// OutcomeFor maps a mutation error to an outcome: nil is applied,
// not-found is ignored, forbidden is denied, anything else failed.
func OutcomeFor(err error) Outcome {
	if err == nil {
		return OutcomeApplied
	}
	de, ok := shared.AsDomainError(err)
	if !ok {
		return OutcomeFailed
	}
	switch de.Code {
	case shared.ErrNotFound.Code:
		return OutcomeIgnored
	case shared.ErrForbidden.Code, shared.ErrUnauthorized.Code:
		return OutcomeDenied
	}
	return OutcomeFailed
}
