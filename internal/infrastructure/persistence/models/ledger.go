package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zeniva/backend/internal/domain/ledger"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// LedgerEntryModel is the persistence model for ledger.Entry. The unique
// index makes a second posting of the same payment fail.
type LedgerEntryModel struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	TripID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	PaymentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_payment_account_type"`
	Account   ledger.Account   `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_payment_account_type"`
	EntryType ledger.EntryType `gorm:"column:entry_type;type:varchar(20);not null;uniqueIndex:idx_ledger_payment_account_type"`
	Amount    decimal.Decimal  `gorm:"type:numeric(18,4);not null"`
	Currency  string           `gorm:"type:varchar(3);not null"`
	Memo      string           `gorm:"type:varchar(300)"`
	CreatedAt time.Time        `gorm:"not null;index"`
}

func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

func (m *LedgerEntryModel) ToDomain() ledger.Entry {
	return ledger.Entry{
		ID:        m.ID,
		TenantID:  m.TenantID,
		TripID:    m.TripID,
		PaymentID: m.PaymentID,
		Account:   m.Account,
		Type:      m.EntryType,
		Amount:    m.Amount,
		Currency:  valueobject.Currency(m.Currency),
		Memo:      m.Memo,
		CreatedAt: m.CreatedAt,
	}
}

func LedgerEntryModelFromDomain(e ledger.Entry) LedgerEntryModel {
	return LedgerEntryModel{
		ID:        e.ID,
		TenantID:  e.TenantID,
		TripID:    e.TripID,
		PaymentID: e.PaymentID,
		Account:   e.Account,
		EntryType: e.Type,
		Amount:    e.Amount,
		Currency:  string(e.Currency),
		Memo:      e.Memo,
		CreatedAt: e.CreatedAt,
	}
}
