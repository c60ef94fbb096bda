package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/shared"
)

// Session is a login of an account into a space. It carries the
// effective-role override used for QA previews.
type Session struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	AccountID     uuid.UUID
	ActiveSpace   Space
	EffectiveRole *Role
	CreatedAt     time.Time
	ExpiresAt     time.Time
	RevokedAt     *time.Time
}

// NewSession opens a session valid for ttl
func NewSession(account *Account, space Space, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:          uuid.New(),
		TenantID:    account.TenantID,
		AccountID:   account.ID,
		ActiveSpace: space,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// IsActive reports whether the session is neither revoked nor expired
func (s *Session) IsActive() bool {
	return s.RevokedAt == nil && time.Now().Before(s.ExpiresAt)
}

// Revoke ends the session
func (s *Session) Revoke() {
	if s.RevokedAt != nil {
		return
	}
	now := time.Now()
	s.RevokedAt = &now
}

// SetEffectiveRole overrides the roles used for permission checks.
// Only staff accounts may preview another role.
func (s *Session) SetEffectiveRole(account *Account, raw string) error {
	if !account.IsStaff() {
		return shared.NewDomainError("FORBIDDEN", "Only HQ or admin accounts can override their role")
	}
	role, ok := NormalizeRole(raw)
	if !ok {
		return shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	s.EffectiveRole = &role
	return nil
}

// ClearEffectiveRole removes the override
func (s *Session) ClearEffectiveRole() {
	s.EffectiveRole = nil
}

// EffectiveRoleString returns the override or an empty string
func (s *Session) EffectiveRoleString() string {
	if s.EffectiveRole == nil {
		return ""
	}
	return string(*s.EffectiveRole)
}

// SwitchSpace moves the session to another space the account may enter
func (s *Session) SwitchSpace(account *Account, space Space) error {
	roles := account.Roles
	if s.EffectiveRole != nil {
		roles = []Role{*s.EffectiveRole}
	}
	if !space.AllowsAny(roles) {
		return shared.NewDomainError("FORBIDDEN", "Account cannot access this space")
	}
	s.ActiveSpace = space
	return nil
}

// PermissionOptions builds the options for HasPermission from the session
func (s *Session) PermissionOptions(account *Account) PermissionOptions {
	return PermissionOptions{
		Roles:    RoleStrings(account.Roles),
		Override: s.EffectiveRoleString(),
	}
}
