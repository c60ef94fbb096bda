package trip

import (
	"time"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

// IsValid checks if the status is a known value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether s may move to next. Pending swaps freely
// with Failed and Refunded, any status may settle to Paid, and a paid
// payment may only be refunded.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if !next.IsValid() || s == next {
		return false
	}
	switch {
	case next == PaymentPaid:
		return true
	case s == PaymentPaid:
		return next == PaymentRefunded
	case s == PaymentPending:
		return next == PaymentFailed || next == PaymentRefunded
	default:
		return next == PaymentPending
	}
}

// PaymentMethod is how the client paid
type PaymentMethod string

const (
	MethodCard  PaymentMethod = "card"
	MethodWire  PaymentMethod = "wire"
	MethodCash  PaymentMethod = "cash"
	MethodOther PaymentMethod = "other"
)

// ParsePaymentMethod maps free text to a method, defaulting to other
func ParsePaymentMethod(s string) PaymentMethod {
	switch m := PaymentMethod(s); m {
	case MethodCard, MethodWire, MethodCash:
		return m
	}
	return MethodOther
}

// Payment belongs to a trip file
type Payment struct {
	shared.BaseEntity
	TripID    uuid.UUID
	Amount    valueobject.Money
	Method    PaymentMethod
	Status    PaymentStatus
	Reference string
	PaidAt    *time.Time
}

// NewPayment creates a pending payment
func NewPayment(tripID uuid.UUID, amount valueobject.Money, method PaymentMethod, reference string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	return &Payment{
		BaseEntity: shared.NewBaseEntity(),
		TripID:     tripID,
		Amount:     amount,
		Method:     method,
		Status:     PaymentPending,
		Reference:  reference,
	}, nil
}
