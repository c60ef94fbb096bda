package trip

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// AggregateTypeTrip is the aggregate type for trip files
const AggregateTypeTrip = "TripFile"

// Trip domain event types
const (
	EventTypeTripCreated       = "TripCreated"
	EventTypeTripStatusChanged = "TripStatusChanged"
	EventTypePaymentSettled    = "PaymentSettled"
)

// TripCreatedEvent is published when a trip file is opened
type TripCreatedEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID `json:"client_id"`
	Title    string    `json:"title"`
}

// NewTripCreatedEvent creates a new TripCreatedEvent
func NewTripCreatedEvent(f *File) *TripCreatedEvent {
	return &TripCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTripCreated, AggregateTypeTrip, f.ID, f.TenantID),
		ClientID:        f.ClientID,
		Title:           f.Title,
	}
}

// TripStatusChangedEvent is published when the trip moves forward
type TripStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

// NewTripStatusChangedEvent creates a new TripStatusChangedEvent
func NewTripStatusChangedEvent(f *File, old Status) *TripStatusChangedEvent {
	return &TripStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTripStatusChanged, AggregateTypeTrip, f.ID, f.TenantID),
		OldStatus:       old,
		NewStatus:       f.Status,
	}
}

// PaymentSettledEvent is published when a payment reaches Paid. Ledger
// postings are driven by it.
type PaymentSettledEvent struct {
	shared.BaseDomainEvent
	TripID         uuid.UUID            `json:"trip_id"`
	ClientID       uuid.UUID            `json:"client_id"`
	PaymentID      uuid.UUID            `json:"payment_id"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       valueobject.Currency `json:"currency"`
	PreviousStatus PaymentStatus        `json:"previous_status"`
}

// NewPaymentSettledEvent creates a new PaymentSettledEvent
func NewPaymentSettledEvent(f *File, p *Payment, previous PaymentStatus) *PaymentSettledEvent {
	return &PaymentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentSettled, AggregateTypeTrip, f.ID, f.TenantID),
		TripID:          f.ID,
		ClientID:        f.ClientID,
		PaymentID:       p.ID,
		Amount:          p.Amount.Amount(),
		Currency:        p.Amount.Currency(),
		PreviousStatus:  previous,
	}
}
