package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// Repository is append-only: there is no update or delete
type Repository interface {
	// Append writes entries atomically. A duplicate (payment, account, type)
	// returns shared.ErrAlreadyExists and writes nothing.
	Append(ctx context.Context, entries []Entry) error
	// ExistsForPayment reports whether any entry was posted for the payment
	ExistsForPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (bool, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Entry, int64, error)
	Totals(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Total, error)
}

// Filter contains filter options for listing ledger entries
type Filter struct {
	shared.Filter
	TripID    *uuid.UUID
	PaymentID *uuid.UUID
	Account   *Account
	Type      *EntryType
	From      *time.Time
	To        *time.Time
}

// Total is the sum of entries for one account, type and currency
type Total struct {
	Account  Account              `json:"account"`
	Type     EntryType            `json:"type"`
	Currency valueobject.Currency `json:"currency"`
	Amount   decimal.Decimal      `json:"amount"`
	Count    int64                `json:"count"`
}
