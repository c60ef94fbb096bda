package identity

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/zeniva/backend/internal/domain/identity"
)

// SignupInput contains the input for self-service signup
type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	// Space decides the role: traveler, partner owner or a pending travel agent
	Space     string         `json:"space" validate:"required,oneof=agent partner traveler"`
	Divisions []string       `json:"divisions,omitempty" validate:"omitempty,dive,oneof=travel yachts groups"`
	Company   *CompanyInput  `json:"company,omitempty" validate:"required_if=Space partner"`
	Traveler  *TravelerInput `json:"traveler,omitempty"`
}

// CompanyInput describes the partner company at signup
type CompanyInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Website string `json:"website,omitempty" validate:"omitempty,url"`
	Phone   string `json:"phone,omitempty" validate:"max=50"`
}

// TravelerInput carries optional traveler preferences
type TravelerInput struct {
	Phone       string   `json:"phone,omitempty" validate:"max=50"`
	Nationality string   `json:"nationality,omitempty" validate:"max=100"`
	Preferences []string `json:"preferences,omitempty"`
}

// LoginInput contains the input for login
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Space is optional; the first space the roles allow is used otherwise
	Space string `json:"space,omitempty" validate:"omitempty,oneof=agent partner traveler"`
	IP    string `json:"-"`
}

// RefreshInput contains the refresh token to rotate
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// EffectiveRoleInput selects the role to preview
type EffectiveRoleInput struct {
	Role string `json:"role" validate:"required"`
}

// SwitchSpaceInput selects the space to move the session to
type SwitchSpaceInput struct {
	Space string `json:"space" validate:"required,oneof=agent partner traveler"`
}

// ListAccountsInput filters the account listing
type ListAccountsInput struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	Status   string `form:"status" validate:"omitempty,oneof=active pending suspended"`
	Role     string `form:"role"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// UpdateRolesInput replaces the roles of an account
type UpdateRolesInput struct {
	Roles     []string  `json:"roles" validate:"required,min=1"`
	Divisions *[]string `json:"divisions,omitempty"`
}

// AccountResponse is the account as returned to clients
type AccountResponse struct {
	ID              uuid.UUID                 `json:"id"`
	TenantID        uuid.UUID                 `json:"tenant_id"`
	Email           string                    `json:"email"`
	Name            string                    `json:"name"`
	Roles           []string                  `json:"roles"`
	Divisions       []string                  `json:"divisions"`
	Status          string                    `json:"status"`
	PartnerCompany  *identity.PartnerCompany  `json:"partner_company,omitempty"`
	TravelerProfile *identity.TravelerProfile `json:"traveler_profile,omitempty"`
	LastLoginAt     *time.Time                `json:"last_login_at,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	Version         int                       `json:"version"`
}

// ToAccountResponse converts a domain account
func ToAccountResponse(a *identity.Account) AccountResponse {
	return AccountResponse{
		ID:              a.ID,
		TenantID:        a.TenantID,
		Email:           a.Email,
		Name:            a.Name,
		Roles:           identity.RoleStrings(a.Roles),
		Divisions:       a.Divisions,
		Status:          string(a.Status),
		PartnerCompany:  a.PartnerCompany,
		TravelerProfile: a.TravelerProfile,
		LastLoginAt:     a.LastLoginAt,
		CreatedAt:       a.CreatedAt,
		Version:         a.Version,
	}
}

// SessionInfo describes the session a token pair belongs to
type SessionInfo struct {
	ID            uuid.UUID `json:"id"`
	ActiveSpace   string    `json:"active_space"`
	EffectiveRole string    `json:"effective_role,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func toSessionInfo(s *identity.Session) SessionInfo {
	return SessionInfo{
		ID:            s.ID,
		ActiveSpace:   string(s.ActiveSpace),
		EffectiveRole: s.EffectiveRoleString(),
		ExpiresAt:     s.ExpiresAt,
	}
}

// AuthResult is returned by every operation that issues tokens
type AuthResult struct {
	AccessToken           string          `json:"access_token"`
	RefreshToken          string          `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time       `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time       `json:"refresh_token_expires_at"`
	TokenType             string          `json:"token_type"`
	Account               AccountResponse `json:"account"`
	Session               SessionInfo     `json:"session"`
	Permissions           []string        `json:"permissions"`
}

// CurrentAccountResult is the caller's account with its live session view
type CurrentAccountResult struct {
	Account     AccountResponse `json:"account"`
	ActiveSpace string          `json:"active_space"`
	// EffectiveRole is set while a staff member previews another role
	EffectiveRole string   `json:"effective_role,omitempty"`
	Permissions   []string `json:"permissions"`
}

// permissionsOf lists the permissions granted to the acting roles
func permissionsOf(roles []identity.Role, effective *identity.Role) []string {
	if effective != nil {
		roles = []identity.Role{*effective}
	}
	perms := make([]string, 0)
	for _, r := range roles {
		for _, perm := range identity.PermissionsFor(r) {
			if !slices.Contains(perms, perm) {
				perms = append(perms, perm)
			}
		}
	}
	return perms
}
