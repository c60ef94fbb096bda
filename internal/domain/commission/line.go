package commission

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// BonusReason names why a bonus was granted
type BonusReason string

const (
	BonusCreation    BonusReason = "creation"     // client brought in by the agent
	BonusManualBuild BonusReason = "manual_build" // trip assembled from 3+ components
	BonusRebooking   BonusReason = "rebooking"
)

// Bonus is a flat percentage of the sell base on top of the base commission
type Bonus struct {
	Reason BonusReason     `json:"reason"`
	Pct    decimal.Decimal `json:"pct"`
	Amount decimal.Decimal `json:"amount"`
}

// Line is the commission owed to an agent for one trip component
type Line struct {
	AgentEmail  string               `json:"agent_email"`
	ClientID    uuid.UUID            `json:"client_id"`
	ClientName  string               `json:"client_name"`
	TripID      uuid.UUID            `json:"trip_id"`
	TripTitle   string               `json:"trip_title"`
	TripStatus  string               `json:"trip_status"`
	ComponentID uuid.UUID            `json:"component_id"`
	Kind        pricing.ProductKind  `json:"kind"`
	Description string               `json:"description"`
	Currency    valueobject.Currency `json:"currency"`
	SellBase    decimal.Decimal      `json:"sell_base"`
	Pct         decimal.Decimal      `json:"pct"`
	Base        decimal.Decimal      `json:"base"`
	Bonuses     []Bonus              `json:"bonuses"`
	Total       decimal.Decimal      `json:"total"`
}

// BonusTotal sums the bonus amounts
func (l Line) BonusTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range l.Bonuses {
		sum = sum.Add(b.Amount)
	}
	return sum
}

// AgentSummary totals the lines of one agent per currency
type AgentSummary struct {
	AgentEmail string               `json:"agent_email"`
	Currency   valueobject.Currency `json:"currency"`
	Lines      int                  `json:"lines"`
	Trips      int                  `json:"trips"`
	Base       decimal.Decimal      `json:"base"`
	Bonuses    decimal.Decimal      `json:"bonuses"`
	Total      decimal.Decimal      `json:"total"`
}
