package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zeniva/backend/internal/domain/audit"
)

// AuditEntryModel is the persistence model for audit.Entry
type AuditEntryModel struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID     `gorm:"type:uuid;not null;index"`
	ActorID    *uuid.UUID    `gorm:"type:uuid;index"`
	ActorEmail string        `gorm:"type:varchar(200)"`
	Action     string        `gorm:"type:varchar(60);not null;index"`
	TargetType string        `gorm:"type:varchar(40);not null"`
	TargetID   string        `gorm:"type:varchar(64);index"`
	Outcome    audit.Outcome `gorm:"type:varchar(20);not null"`
	Details    string        `gorm:"type:jsonb"`
	CreatedAt  time.Time     `gorm:"not null;index"`
}

func (AuditEntryModel) TableName() string {
	return "audit_entries"
}

func (m *AuditEntryModel) ToDomain() audit.Entry {
	return audit.Entry{
		ID:         m.ID,
		TenantID:   m.TenantID,
		ActorID:    m.ActorID,
		ActorEmail: m.ActorEmail,
		Action:     m.Action,
		TargetType: m.TargetType,
		TargetID:   m.TargetID,
		Outcome:    m.Outcome,
		Details:    fromJSON[map[string]any](m.Details),
		CreatedAt:  m.CreatedAt,
	}
}

func AuditEntryModelFromDomain(e *audit.Entry) *AuditEntryModel {
	details := ""
	if len(e.Details) > 0 {
		details = toJSON(e.Details, "")
	}
	return &AuditEntryModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		ActorID:    e.ActorID,
		ActorEmail: e.ActorEmail,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Outcome:    e.Outcome,
		Details:    details,
		CreatedAt:  e.CreatedAt,
	}
}

// All lists every model for AutoMigrate
func All() []any {
	return []any{
		&AccountModel{},
		&SessionModel{},
		&ClientModel{},
		&TripFileModel{},
		&ComponentModel{},
		&PaymentModel{},
		&DocumentModel{},
		&LedgerEntryModel{},
		&AuditEntryModel{},
	}
}

// compositeIndexes span embedded columns, which struct tags cannot express
var compositeIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_tenant_email ON accounts (tenant_id, email)",
}

// AutoMigrate creates the schema for sqlite deployments and tests.
// Postgres deployments run the SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	for _, stmt := range compositeIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
