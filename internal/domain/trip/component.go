package trip

import (
	"strings"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/shared"
)

// Component is a priced inventory line of a trip (flight, hotel, yacht...)
type Component struct {
	shared.BaseEntity
	TripID      uuid.UUID
	Kind        pricing.ProductKind
	Supplier    string
	Description string
	Position    int
	Pricing     pricing.Pricing
}

// NewComponent creates a component with already computed pricing
func NewComponent(tripID uuid.UUID, kind pricing.ProductKind, supplier, description string, p pricing.Pricing) (*Component, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_COMPONENT", "Component description is required")
	}
	return &Component{
		BaseEntity:  shared.NewBaseEntity(),
		TripID:      tripID,
		Kind:        kind,
		Supplier:    strings.TrimSpace(supplier),
		Description: description,
		Pricing:     p,
	}, nil
}

// Line returns the component as an aggregation input
func (c *Component) Line() pricing.Line {
	return pricing.Line{Kind: c.Kind, Pricing: c.Pricing}
}
