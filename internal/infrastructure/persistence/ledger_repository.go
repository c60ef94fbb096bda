package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zeniva/backend/internal/domain/ledger"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"github.com/zeniva/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements ledger.Repository. Rows are only ever inserted.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append writes all entries or none
func (r *GormLedgerRepository) Append(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.LedgerEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.LedgerEntryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return translateError(tx.Create(&rows).Error)
	})
}

func (r *GormLedgerRepository) ExistsForPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND payment_id = ?", tenantID, paymentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormLedgerRepository) scoped(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).Where("tenant_id = ?", tenantID)
	if filter.TripID != nil {
		query = query.Where("trip_id = ?", *filter.TripID)
	}
	if filter.PaymentID != nil {
		query = query.Where("payment_id = ?", *filter.PaymentID)
	}
	if filter.Account != nil {
		query = query.Where("account = ?", *filter.Account)
	}
	if filter.Type != nil {
		query = query.Where("entry_type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	return query
}

func (r *GormLedgerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) ([]ledger.Entry, int64, error) {
	f := filter.Filter.Normalize()
	query := r.scoped(ctx, tenantID, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.LedgerEntryModel
	if err := query.
		Order(orderClause(f.OrderBy, f.OrderDir, LedgerSortFields, "created_at")).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]ledger.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, total, nil
}

type totalRow struct {
	Account   ledger.Account
	EntryType ledger.EntryType
	Currency  string
	Amount    decimal.Decimal
	Count     int64
}

// Totals sums entries per account, type and currency
func (r *GormLedgerRepository) Totals(ctx context.Context, tenantID uuid.UUID, filter ledger.Filter) ([]ledger.Total, error) {
	var rows []totalRow
	if err := r.scoped(ctx, tenantID, filter).
		Select("account, entry_type, currency, SUM(amount) AS amount, COUNT(*) AS count").
		Group("account, entry_type, currency").
		Order("account, entry_type, currency").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make([]ledger.Total, len(rows))
	for i, row := range rows {
		totals[i] = ledger.Total{
			Account:  row.Account,
			Type:     row.EntryType,
			Currency: valueobject.Currency(row.Currency),
			Amount:   row.Amount,
			Count:    row.Count,
		}
	}
	return totals, nil
}
