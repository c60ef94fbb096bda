package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zeniva/backend/internal/domain/identity"
)

// AccountModel is the persistence model for identity.Account.
type AccountModel struct {
	TenantAggregateModel
	Email           string                 `gorm:"type:varchar(200);not null"`
	Name            string                 `gorm:"type:varchar(200);not null"`
	PasswordHash    string                 `gorm:"type:varchar(255);not null"`
	Roles           string                 `gorm:"type:jsonb;not null;default:'[]'"`
	Divisions       string                 `gorm:"type:jsonb;not null;default:'[]'"`
	Status          identity.AccountStatus `gorm:"type:varchar(20);not null;index"`
	PartnerCompany  string                 `gorm:"type:jsonb"`
	TravelerProfile string                 `gorm:"type:jsonb"`
	LastLoginAt     *time.Time
	FailedAttempts  int `gorm:"not null;default:0"`
	LockedUntil     *time.Time
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (m *AccountModel) ToDomain() *identity.Account {
	a := &identity.Account{
		TenantAggregateRoot: m.TenantAggregateModel.TenantAggregateRoot(),
		Email:               m.Email,
		Name:                m.Name,
		PasswordHash:        m.PasswordHash,
		Roles:               identity.NormalizeRoles(fromJSON[[]string](m.Roles)),
		Divisions:           fromJSON[[]string](m.Divisions),
		Status:              m.Status,
		LastLoginAt:         m.LastLoginAt,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
	}
	if a.Divisions == nil {
		a.Divisions = []string{}
	}
	if m.PartnerCompany != "" {
		pc := fromJSON[identity.PartnerCompany](m.PartnerCompany)
		a.PartnerCompany = &pc
	}
	if m.TravelerProfile != "" {
		tp := fromJSON[identity.TravelerProfile](m.TravelerProfile)
		a.TravelerProfile = &tp
	}
	return a
}

func (m *AccountModel) FromDomain(a *identity.Account) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.Email = a.Email
	m.Name = a.Name
	m.PasswordHash = a.PasswordHash
	m.Roles = toJSON(identity.RoleStrings(a.Roles), "[]")
	m.Divisions = toJSON(a.Divisions, "[]")
	m.Status = a.Status
	m.PartnerCompany = ""
	if a.PartnerCompany != nil {
		m.PartnerCompany = toJSON(a.PartnerCompany, "")
	}
	m.TravelerProfile = ""
	if a.TravelerProfile != nil {
		m.TravelerProfile = toJSON(a.TravelerProfile, "")
	}
	m.LastLoginAt = a.LastLoginAt
	m.FailedAttempts = a.FailedAttempts
	m.LockedUntil = a.LockedUntil
}

func AccountModelFromDomain(a *identity.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// SessionModel is the persistence model for identity.Session.
type SessionModel struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID          `gorm:"type:uuid;not null"`
	AccountID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	ActiveSpace   identity.Space     `gorm:"type:varchar(20);not null"`
	EffectiveRole *string            `gorm:"type:varchar(40)"`
	CreatedAt     time.Time          `gorm:"not null"`
	ExpiresAt     time.Time          `gorm:"not null;index"`
	RevokedAt     *time.Time
}

func (SessionModel) TableName() string {
	return "sessions"
}

func (m *SessionModel) ToDomain() *identity.Session {
	s := &identity.Session{
		ID:          m.ID,
		TenantID:    m.TenantID,
		AccountID:   m.AccountID,
		ActiveSpace: m.ActiveSpace,
		CreatedAt:   m.CreatedAt,
		ExpiresAt:   m.ExpiresAt,
		RevokedAt:   m.RevokedAt,
	}
	if m.EffectiveRole != nil {
		if r, ok := identity.NormalizeRole(*m.EffectiveRole); ok {
			s.EffectiveRole = &r
		}
	}
	return s
}

func SessionModelFromDomain(s *identity.Session) *SessionModel {
	m := &SessionModel{
		ID:          s.ID,
		TenantID:    s.TenantID,
		AccountID:   s.AccountID,
		ActiveSpace: s.ActiveSpace,
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
		RevokedAt:   s.RevokedAt,
	}
	if s.EffectiveRole != nil {
		r := string(*s.EffectiveRole)
		m.EffectiveRole = &r
	}
	return m
}
