package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// Account is the business unit a ledger entry is booked to
type Account string

const (
	AccountTravel Account = "TRAVEL"
	AccountYacht  Account = "YACHT"
)

// EntryType classifies the monetary split
type EntryType string

const (
	TypeSplit      EntryType = "split"
	TypeCommission EntryType = "commission"
	TypeFee        EntryType = "fee"
)

// Entry is an immutable, append-only record of a monetary split tied to a
// trip and payment. Entries are only created when a payment settles.
type Entry struct {
	ID        uuid.UUID            `json:"id"`
	TenantID  uuid.UUID            `json:"tenant_id"`
	TripID    uuid.UUID            `json:"trip_id"`
	PaymentID uuid.UUID            `json:"payment_id"`
	Account   Account              `json:"account"`
	Type      EntryType            `json:"type"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
	Memo      string               `json:"memo"`
	CreatedAt time.Time            `json:"created_at"`
}

// IdempotencyKey is the key guarding postings of a payment
func IdempotencyKey(paymentID uuid.UUID) string {
	return "ledger:payment:" + paymentID.String()
}
