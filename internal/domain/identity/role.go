package identity

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Role is a canonical RBAC role
type Role string

const (
	RoleHQ           Role = "hq"
	RoleAdmin        Role = "admin"
	RoleTravelAgent  Role = "travel_agent"
	RoleYachtBroker  Role = "yacht_broker"
	RoleInfluencer   Role = "influencer"
	RolePartnerOwner Role = "partner_owner"
	RolePartnerStaff Role = "partner_staff"
	RoleTraveler     Role = "traveler"
)

// Wildcard grants every permission
const Wildcard = "*"

// Permission codes follow the resource:action pattern
const (
	PermClientsRead     = "clients:read"
	PermClientsWrite    = "clients:write"
	PermTripsRead       = "trips:read"
	PermTripsWrite      = "trips:write"
	PermPaymentsWrite   = "payments:write"
	PermDocumentsWrite  = "documents:write"
	PermCommissionsRead = "commissions:read"
	PermLedgerRead      = "ledger:read"
	PermAuditRead       = "audit:read"
	PermAccountsManage  = "accounts:manage"
	PermReferralsRead   = "referrals:read"
	PermPartnerRead     = "partner:read"
	PermPartnerWrite    = "partner:write"
	PermPartnerStaff    = "partner:staff"
	PermBookingsRead    = "bookings:read"
	PermTravelerRead    = "traveler:read"
	PermTravelerWrite   = "traveler:write"
)

var agentPermissions = []string{
	PermClientsRead, PermClientsWrite,
	PermTripsRead, PermTripsWrite,
	PermPaymentsWrite, PermDocumentsWrite,
	PermCommissionsRead,
}

var rolePermissions = map[Role][]string{
	RoleHQ:           {Wildcard},
	RoleAdmin:        {Wildcard},
	RoleTravelAgent:  agentPermissions,
	RoleYachtBroker:  agentPermissions,
	RoleInfluencer:   {PermReferralsRead},
	RolePartnerOwner: {PermPartnerRead, PermPartnerWrite, PermPartnerStaff, PermBookingsRead},
	RolePartnerStaff: {PermPartnerRead, PermBookingsRead},
	RoleTraveler:     {PermTravelerRead, PermTravelerWrite, PermBookingsRead},
}

// roleAliases maps legacy role names still found in stored accounts and
// cookies onto canonical roles.
var roleAliases = map[string]Role{
	"agent":         RoleTravelAgent,
	"travel-agent":  RoleTravelAgent,
	"advisor":       RoleTravelAgent,
	"yacht":         RoleYachtBroker,
	"yacht-broker":  RoleYachtBroker,
	"broker":        RoleYachtBroker,
	"partner":       RolePartnerOwner,
	"partner-owner": RolePartnerOwner,
	"hotel_partner": RolePartnerOwner,
	"partner-staff": RolePartnerStaff,
	"client":        RoleTraveler,
	"customer":      RoleTraveler,
	"headquarters":  RoleHQ,
	"super_admin":   RoleHQ,
	"affiliate":     RoleInfluencer,
	"ambassador":    RoleInfluencer,
}

// AllRoles returns the canonical roles in display order
func AllRoles() []Role {
	return []Role{
		RoleHQ, RoleAdmin, RoleTravelAgent, RoleYachtBroker,
		RoleInfluencer, RolePartnerOwner, RolePartnerStaff, RoleTraveler,
	}
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether r is a canonical role
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// IsStaff reports whether the role belongs to the internal back office
func (r Role) IsStaff() bool {
	return r == RoleHQ || r == RoleAdmin
}

// IsAgent reports whether the role sells trips on commission
func (r Role) IsAgent() bool {
	return r == RoleTravelAgent || r == RoleYachtBroker
}

// NormalizeRole resolves a raw role name, canonical or legacy alias,
// to a canonical role.
func NormalizeRole(raw string) (Role, bool) {
	key := cases.Fold().String(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	if r := Role(key); r.IsValid() {
		return r, true
	}
	if r, ok := roleAliases[key]; ok {
		return r, true
	}
	return "", false
}

// NormalizeRoles normalizes and de-duplicates role names keeping first-seen order.
// Unknown names are dropped.
func NormalizeRoles(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		r, ok := NormalizeRole(s)
		if !ok || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RoleStrings converts roles to their string names
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// PermissionsFor returns a copy of the permission set for a role
func PermissionsFor(r Role) []string {
	return slices.Clone(rolePermissions[r])
}

// PermissionOptions selects the role a permission check runs against
type PermissionOptions struct {
	Roles    []string
	Role     string
	Override string
}

// ResolveRole picks the role used for permission checks. A valid override
// wins; otherwise the first normalizable role among Role and Roles.
func ResolveRole(opts PermissionOptions) (Role, bool) {
	if r, ok := NormalizeRole(opts.Override); ok {
		return r, true
	}
	if r, ok := NormalizeRole(opts.Role); ok {
		return r, true
	}
	for _, s := range opts.Roles {
		if r, ok := NormalizeRole(s); ok {
			return r, true
		}
	}
	return "", false
}

// HasPermission checks a permission against the resolved role. Unknown
// roles and permissions yield false.
func HasPermission(permission string, opts PermissionOptions) bool {
	role, ok := ResolveRole(opts)
	if !ok {
		return false
	}
	return RoleHasPermission(role, permission)
}

// RoleHasPermission checks a single canonical role
func RoleHasPermission(role Role, permission string) bool {
	perms := rolePermissions[role]
	if slices.Contains(perms, Wildcard) {
		return true
	}
	if permission == "" {
		return false
	}
	return slices.Contains(perms, permission)
}
