package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/infrastructure/persistence/models"
)

// GormAccountRepository implements identity.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Create inserts a new account. A taken email is ErrAlreadyExists.
func (r *GormAccountRepository) Create(ctx context.Context, account *identity.Account) error {
	model := models.AccountModelFromDomain(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	account.MarkSaved()
	return nil
}

// Update saves the account if nobody changed it since it was loaded
func (r *GormAccountRepository) Update(ctx context.Context, account *identity.Account) error {
	model := models.AccountModelFromDomain(account)
	if err := updateVersioned(r.db.WithContext(ctx), model, account.ID, account.ExpectedVersion()); err != nil {
		return err
	}
	account.MarkSaved()
	return nil
}

// Delete hard-deletes an account and its sessions
func (r *GormAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.AccountModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("account_id = ?", id).Delete(&models.SessionModel{}).Error
	})
}

// FindByID finds an account by ID within the tenant
func (r *GormAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds an account by normalized email within the tenant
func (r *GormAccountRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, identity.NormalizeEmail(email)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsByEmail checks if an email is already registered in the tenant
func (r *GormAccountRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AccountModel{}).
		Where("tenant_id = ? AND email = ?", tenantID, identity.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists accounts with filtering and paging
func (r *GormAccountRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.AccountFilter) ([]*identity.Account, int64, error) {
	f := filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.AccountModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Role != nil {
		query = query.Where("CAST(roles AS TEXT) LIKE ?", `%"`+string(*filter.Role)+`"%`)
	}
	if f.Search != "" {
		like := "%" + escapeLike(toLower(f.Search)) + "%"
		query = query.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AccountModel
	if err := query.
		Order(orderClause(f.OrderBy, f.OrderDir, AccountSortFields, "created_at")).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]*identity.Account, len(rows))
	for i := range rows {
		accounts[i] = rows[i].ToDomain()
	}
	return accounts, total, nil
}

// GormSessionRepository implements identity.SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(ctx context.Context, session *identity.Session) error {
	return translateError(r.db.WithContext(ctx).Create(models.SessionModelFromDomain(session)).Error)
}

func (r *GormSessionRepository) Update(ctx context.Context, session *identity.Session) error {
	model := models.SessionModelFromDomain(session)
	result := r.db.WithContext(ctx).Model(model).
		Select("active_space", "effective_role", "expires_at", "revoked_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	var model models.SessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// RevokeAllForAccount revokes every live session of an account
func (r *GormSessionRepository) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.SessionModel{}).
		Where("account_id = ? AND revoked_at IS NULL", accountID).
		Update("revoked_at", time.Now()).Error
}

// DeleteExpired removes sessions that expired or were revoked before the cutoff
func (r *GormSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", before, before).
		Delete(&models.SessionModel{})
	return result.RowsAffected, result.Error
}
