package identity

import "slices"

// Space is one of the three front-office areas an account works in
type Space string

const (
	SpaceAgent    Space = "agent"
	SpacePartner  Space = "partner"
	SpaceTraveler Space = "traveler"
)

var spaceRoles = map[Space][]Role{
	SpaceAgent:   {RoleHQ, RoleAdmin, RoleTravelAgent, RoleYachtBroker, RoleInfluencer},
	SpacePartner: {RoleHQ, RoleAdmin, RolePartnerOwner, RolePartnerStaff},
}

// ParseSpace returns the space for a path segment or cookie value
func ParseSpace(s string) (Space, bool) {
	switch Space(s) {
	case SpaceAgent, SpacePartner, SpaceTraveler:
		return Space(s), true
	}
	return "", false
}

// HomePath is the landing page of the space
func (s Space) HomePath() string {
	return "/" + string(s)
}

// Allows reports whether the role may enter the space. The traveler space
// admits every known role.
func (s Space) Allows(r Role) bool {
	if s == SpaceTraveler {
		return r.IsValid()
	}
	return slices.Contains(spaceRoles[s], r)
}

// AllowsAny reports whether any of the roles may enter the space
func (s Space) AllowsAny(roles []Role) bool {
	for _, r := range roles {
		if s.Allows(r) {
			return true
		}
	}
	return false
}

// DefaultSpace picks the first space the roles may enter, agent first
func DefaultSpace(roles []Role) Space {
	for _, s := range []Space{SpaceAgent, SpacePartner} {
		if s.AllowsAny(roles) {
			return s
		}
	}
	return SpaceTraveler
}
