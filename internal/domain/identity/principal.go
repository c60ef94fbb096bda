package identity

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of an application operation as
// carried by the access token.
type Principal struct {
	TenantID      uuid.UUID
	AccountID     uuid.UUID
	SessionID     uuid.UUID
	Email         string
	Roles         []Role
	EffectiveRole *Role
	ActiveSpace   Space

	// TokenID is the jti of the access token the call was made with
	TokenID        string
	TokenExpiresAt time.Time
}

// ActingRole is the single role permission and visibility decisions use:
// the effective role when set, else the first known stored role.
func (p Principal) ActingRole() (Role, bool) {
	return ResolveRole(p.PermissionOptions())
}

// PermissionOptions builds the options for HasPermission
func (p Principal) PermissionOptions() PermissionOptions {
	opts := PermissionOptions{Roles: RoleStrings(p.Roles)}
	if p.EffectiveRole != nil {
		opts.Override = string(*p.EffectiveRole)
	}
	return opts
}

// Can reports whether the principal holds the permission
func (p Principal) Can(permission string) bool {
	return HasPermission(permission, p.PermissionOptions())
}

// SeesAllClients reports whether the principal works across every client of
// the tenant. Agents only see the clients they own or are assigned to.
func (p Principal) SeesAllClients() bool {
	role, ok := p.ActingRole()
	return ok && role.IsStaff()
}
