package trip

import (
	"context"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/shared"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	Update(ctx context.Context, client *Client) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	// FindByIDs loads several clients at once; missing IDs are skipped
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Client, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ClientFilter) ([]*Client, int64, error)
}

// ClientFilter contains filter options for listing clients
type ClientFilter struct {
	shared.Filter
	Origin *ClientOrigin
	// AgentEmail restricts results to clients owned by or assigned to the agent
	AgentEmail string
}

// FileRepository defines the interface for trip file persistence.
// Components, payments and documents are saved with their file.
type FileRepository interface {
	Create(ctx context.Context, file *File) error
	// Save persists the file and its children, checking the version
	Save(ctx context.Context, file *File) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*File, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter FileFilter) ([]*File, int64, error)
	// FindByClientIDs loads every file of the given clients with children
	FindByClientIDs(ctx context.Context, tenantID uuid.UUID, clientIDs []uuid.UUID) ([]*File, error)
}

// FileFilter contains filter options for listing trip files
type FileFilter struct {
	shared.Filter
	ClientID  *uuid.UUID
	Status    *Status
	ClientIDs []uuid.UUID
}

// AllClients pages through FindAll and returns every matching client
func AllClients(ctx context.Context, repo ClientRepository, tenantID uuid.UUID, filter ClientFilter) ([]*Client, error) {
	filter.Page = 1
	filter.PageSize = 200
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"

	out := make([]*Client, 0)
	for {
		page, total, err := repo.FindAll(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < filter.PageSize || int64(len(out)) >= total {
			return out, nil
		}
		filter.Page++
	}
}

// ClientIDs returns the IDs of the clients
func ClientIDs(clients []*Client) []uuid.UUID {
	ids := make([]uuid.UUID, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}
	return ids
}
