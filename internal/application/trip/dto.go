package trip

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/trip"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// CreateClientInput contains the input for creating a client
type CreateClientInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
	Phone string `json:"phone" validate:"max=50"`
	// Origin defaults to agent when an agent creates the client, house otherwise
	Origin string `json:"origin" validate:"omitempty,oneof=house agent"`
	// OwnerEmail lets HQ record the agent who brought the client in
	OwnerEmail string `json:"owner_email" validate:"omitempty,email"`
	Notes      string `json:"notes" validate:"max=4000"`
}

// UpdateClientInput contains the input for updating a client's contact details
type UpdateClientInput struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Email string  `json:"email" validate:"omitempty,email,max=254"`
	Phone string  `json:"phone" validate:"max=50"`
	Notes *string `json:"notes" validate:"omitempty,max=4000"`
}

// AssignAgentInput contains the agent to add to a client
type AssignAgentInput struct {
	AgentEmail string `json:"agent_email" validate:"required,email"`
}

// ListClientsInput filters the client listing
type ListClientsInput struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	Origin   string `form:"origin" validate:"omitempty,oneof=house agent"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// CreateTripInput contains the input for opening a trip file
type CreateTripInput struct {
	ClientID uuid.UUID `json:"client_id" validate:"required"`
	Title    string    `json:"title" validate:"required,max=200"`
	Currency string    `json:"currency" validate:"omitempty,len=3"`
	// IsRebooking overrides the flag derived from the title
	IsRebooking *bool `json:"is_rebooking"`
}

// UpdateTripInput updates title, overrides and rebooking flag. Nil fields
// are left unchanged; ClearOverrides removes both overrides.
type UpdateTripInput struct {
	Title                 *string          `json:"title" validate:"omitempty,max=200"`
	MarginOverridePct     *decimal.Decimal `json:"margin_override_pct"`
	CommissionOverridePct *decimal.Decimal `json:"commission_override_pct"`
	ClearOverrides        bool             `json:"clear_overrides"`
	IsRebooking           *bool            `json:"is_rebooking"`
}

// SetTripStatusInput moves a trip along the status sequence
type SetTripStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// ListTripsInput filters the trip listing
type ListTripsInput struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	// ClientID is read from the query by the handler
	ClientID *uuid.UUID `form:"-"`
	Status   string     `form:"status"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// ComponentInput prices a component. Currency defaults to the trip currency.
type ComponentInput struct {
	Kind          string          `json:"kind" validate:"required"`
	Supplier      string          `json:"supplier" validate:"max=200"`
	Description   string          `json:"description" validate:"required,max=500"`
	Net           decimal.Decimal `json:"net"`
	Sell          decimal.Decimal `json:"sell"`
	CommissionPct decimal.Decimal `json:"commission_pct"`
}

// UpdateComponentPricingInput re-prices an existing component
type UpdateComponentPricingInput struct {
	Net           decimal.Decimal `json:"net"`
	Sell          decimal.Decimal `json:"sell"`
	CommissionPct decimal.Decimal `json:"commission_pct"`
}

// AddPaymentInput records a pending payment
type AddPaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency" validate:"omitempty,len=3"`
	Method    string          `json:"method" validate:"omitempty,oneof=card wire cash other"`
	Reference string          `json:"reference" validate:"max=200"`
}

// SetPaymentStatusInput transitions a payment
type SetPaymentStatusInput struct {
	Status string `json:"status" validate:"required,oneof=Pending Paid Failed Refunded"`
}

// AttachDocumentInput describes an uploaded file
type AttachDocumentInput struct {
	Name        string `validate:"required,max=255"`
	Kind        string `validate:"max=20"`
	ContentType string `validate:"required"`
	Size        int64  `validate:"gt=0"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Origin         string    `json:"origin"`
	OwnerEmail     string    `json:"owner_email"`
	AssignedAgents []string  `json:"assigned_agents"`
	HasAgent       bool      `json:"has_agent"`
	Notes          string    `json:"notes"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToClientResponse converts a domain client
func ToClientResponse(c *trip.Client) ClientResponse {
	return ClientResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Origin:         string(c.Origin),
		OwnerEmail:     c.OwnerEmail,
		AssignedAgents: c.AssignedAgents,
		HasAgent:       c.HasAgent(),
		Notes:          c.Notes,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ComponentResponse represents a trip component
type ComponentResponse struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	Supplier    string          `json:"supplier"`
	Description string          `json:"description"`
	Position    int             `json:"position"`
	Pricing     pricing.Pricing `json:"pricing"`
}

// PaymentResponse represents a payment of a trip
type PaymentResponse struct {
	ID        uuid.UUID            `json:"id"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
	Method    string               `json:"method"`
	Status    string               `json:"status"`
	Reference string               `json:"reference"`
	PaidAt    *time.Time           `json:"paid_at,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// DocumentResponse represents a document listed on a trip. DownloadURL is
// only filled by ListDocuments.
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	UploadedBy  uuid.UUID  `json:"uploaded_by"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"download_url_expires_at,omitempty"`
}

// TripResponse represents a trip file with its children
type TripResponse struct {
	ID                    uuid.UUID           `json:"id"`
	TenantID              uuid.UUID           `json:"tenant_id"`
	ClientID              uuid.UUID           `json:"client_id"`
	Title                 string              `json:"title"`
	Status                string              `json:"status"`
	Currency              string              `json:"currency"`
	MarginOverridePct     *decimal.Decimal    `json:"margin_override_pct,omitempty"`
	CommissionOverridePct *decimal.Decimal    `json:"commission_override_pct,omitempty"`
	IsRebooking           bool                `json:"is_rebooking"`
	Components            []ComponentResponse `json:"components"`
	Payments              []PaymentResponse   `json:"payments"`
	Documents             []DocumentResponse  `json:"documents"`
	Pricing               *pricing.Pricing    `json:"pricing"`
	Version               int                 `json:"version"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// ToTripResponse converts a domain trip file
func ToTripResponse(f *trip.File) TripResponse {
	resp := TripResponse{
		ID:                    f.ID,
		TenantID:              f.TenantID,
		ClientID:              f.ClientID,
		Title:                 f.Title,
		Status:                string(f.Status),
		Currency:              string(f.Currency),
		MarginOverridePct:     f.MarginOverridePct,
		CommissionOverridePct: f.CommissionOverridePct,
		IsRebooking:           f.IsRebooking,
		Components:            make([]ComponentResponse, len(f.Components)),
		Payments:              make([]PaymentResponse, len(f.Payments)),
		Documents:             make([]DocumentResponse, len(f.Documents)),
		Pricing:               f.Pricing(),
		Version:               f.Version,
		CreatedAt:             f.CreatedAt,
		UpdatedAt:             f.UpdatedAt,
	}
	for i, c := range f.Components {
		resp.Components[i] = toComponentResponse(c)
	}
	for i, p := range f.Payments {
		resp.Payments[i] = toPaymentResponse(p)
	}
	for i, d := range f.Documents {
		resp.Documents[i] = toDocumentResponse(d)
	}
	return resp
}

func toComponentResponse(c *trip.Component) ComponentResponse {
	return ComponentResponse{
		ID:          c.ID,
		Kind:        string(c.Kind),
		Supplier:    c.Supplier,
		Description: c.Description,
		Position:    c.Position,
		Pricing:     c.Pricing,
	}
}

func toPaymentResponse(p *trip.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		Amount:    p.Amount.Amount(),
		Currency:  p.Amount.Currency(),
		Method:    string(p.Method),
		Status:    string(p.Status),
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
	}
}

func toDocumentResponse(d *trip.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Kind:        string(d.Kind),
		ContentType: d.ContentType,
		Size:        d.Size,
		UploadedBy:  d.UploadedBy,
		UploadedAt:  d.UploadedAt,
	}
}

// SplitResponse is the revenue split of a trip for an agent percentage
type SplitResponse struct {
	TripID   uuid.UUID         `json:"trip_id"`
	Currency string            `json:"currency"`
	Split    pricing.TripSplit `json:"split"`
	Total    decimal.Decimal   `json:"total_sell"`
}
