package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// TripSplit divides trip revenue between the travel side (which pays the
// agent) and the yacht unit.
type TripSplit struct {
	TravelSell          decimal.Decimal `json:"travel_sell"`
	YachtSell           decimal.Decimal `json:"yacht_sell"`
	TravelAgentShare    decimal.Decimal `json:"travel_agent_share"`
	TravelNetAfterAgent decimal.Decimal `json:"travel_net_after_agent"`
	AgentPct            decimal.Decimal `json:"agent_pct"`
}

// TotalSell is travel plus yacht sell
func (s TripSplit) TotalSell() decimal.Decimal {
	return s.TravelSell.Add(s.YachtSell)
}

// Split computes the revenue split for agentPct given as a fraction (0.2 = 20%).
// All outputs are rounded to whole currency units.
func Split(lines []Line, agentPct decimal.Decimal) TripSplit {
	travel, yacht := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Kind.IsYacht() {
			travel = travel.Add(l.Pricing.Sell.Mul(yachtTravelShare))
			yacht = yacht.Add(l.Pricing.Sell.Mul(yachtUnitShare))
			continue
		}
		travel = travel.Add(l.Pricing.Sell)
	}

	agentShare := travel.Mul(agentPct)
	return TripSplit{
		TravelSell:          valueobject.RoundUnits(travel),
		YachtSell:           valueobject.RoundUnits(yacht),
		TravelAgentShare:    valueobject.RoundUnits(agentShare),
		TravelNetAfterAgent: valueobject.RoundUnits(travel.Sub(agentShare)),
		AgentPct:            agentPct,
	}
}
