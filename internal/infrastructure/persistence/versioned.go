package persistence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zeniva/backend/internal/domain/shared"
)

// immutableColumns are never rewritten by a versioned update
var immutableColumns = []string{"id", "tenant_id", "created_by", "created_at"}

// updateVersioned writes every column of model when the stored row still
// carries the expected version. A missing row is ErrNotFound; a row at
// another version is ErrConcurrencyConflict.
func updateVersioned(tx *gorm.DB, model any, id uuid.UUID, expected int) error {
	omit := append(append([]string{}, immutableColumns...), clause.Associations)
	result := tx.Model(model).
		Select("*").
		Omit(omit...).
		Where("id = ? AND version = ?", id, expected).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}
