package trip

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/shared"
)

// ClientOrigin records who brought the client to the agency
type ClientOrigin string

const (
	OriginHouse ClientOrigin = "house"
	OriginAgent ClientOrigin = "agent"
)

// ParseClientOrigin validates an origin, defaulting blanks to house
func ParseClientOrigin(s string) (ClientOrigin, error) {
	switch o := ClientOrigin(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OriginHouse, nil
	case OriginHouse, OriginAgent:
		return o, nil
	}
	return "", shared.NewDomainError("INVALID_ORIGIN", "Client origin must be house or agent")
}

// Client owns trip files. Origin and assigned agents decide whether any
// agent commission applies.
type Client struct {
	shared.TenantAggregateRoot
	Name           string
	Email          string
	Phone          string
	Origin         ClientOrigin
	OwnerEmail     string
	AssignedAgents []string
	Notes          string
}

// NewClient creates a client. ownerEmail is the agent who created it.
func NewClient(tenantID uuid.UUID, name string, origin ClientOrigin, ownerEmail string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client name is required")
	}
	if origin == "" {
		origin = OriginHouse
	}
	return &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Origin:              origin,
		OwnerEmail:          identity.NormalizeEmail(ownerEmail),
		AssignedAgents:      make([]string, 0),
	}, nil
}

// UpdateContact replaces name and contact details
func (c *Client) UpdateContact(name, email, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_CLIENT", "Client name is required")
	}
	c.Name = name
	c.Email = identity.NormalizeEmail(email)
	c.Phone = strings.TrimSpace(phone)
	c.Touch()
	c.IncrementVersion()
	return nil
}

// AssignAgent adds an agent email; assigning twice is a no-op
func (c *Client) AssignAgent(email string) error {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return shared.NewDomainError("INVALID_AGENT", "Agent email is required")
	}
	if slices.Contains(c.AssignedAgents, email) {
		return nil
	}
	c.AssignedAgents = append(c.AssignedAgents, email)
	c.Touch()
	c.IncrementVersion()
	return nil
}

// IsAgentOrigin reports whether the client was brought in by an agent
// that is still on record.
func (c *Client) IsAgentOrigin() bool {
	return c.Origin == OriginAgent && c.OwnerEmail != ""
}

// HasAgent reports whether any agent works this client
func (c *Client) HasAgent() bool {
	return c.Origin == OriginAgent || len(c.AssignedAgents) > 0
}

// VisibleTo reports whether an agent with the given email may see the client
func (c *Client) VisibleTo(email string) bool {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return false
	}
	return c.OwnerEmail == email || slices.Contains(c.AssignedAgents, email)
}
