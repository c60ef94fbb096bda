package commission

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"github.com/zeniva/backend/internal/domain/trip"
)

// ManualBuildThreshold is the component count from which a trip earns the
// manual-build bonus
const ManualBuildThreshold = 3

var (
	bonusPct = decimal.NewFromInt(1)
	hundred  = decimal.NewFromInt(100)
)

// Filter narrows the computed lines
type Filter struct {
	// AgentEmail keeps only lines of this agent, compared case-insensitively
	AgentEmail string
}

// Lines computes commission lines for every component of every trip whose
// client originated from an agent on record. Trips of unknown clients are
// skipped.
func Lines(files []*trip.File, clients []*trip.Client, filter Filter) []Line {
	byID := make(map[uuid.UUID]*trip.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	agent := identity.NormalizeEmail(filter.AgentEmail)

	lines := make([]Line, 0)
	for _, f := range files {
		client, ok := byID[f.ClientID]
		if !ok || !client.IsAgentOrigin() {
			continue
		}
		if agent != "" && client.OwnerEmail != agent {
			continue
		}
		for _, c := range f.Components {
			lines = append(lines, lineFor(f, client, c))
		}
	}
	return lines
}

func lineFor(f *trip.File, client *trip.Client, c *trip.Component) Line {
	sellBase := valueobject.RoundUnits(c.Pricing.Sell.Mul(pricing.Scale(c.Kind)))
	pct := c.Pricing.CommissionPct
	if f.CommissionOverridePct != nil {
		pct = *f.CommissionOverridePct
	}
	base := valueobject.RoundUnits(sellBase.Mul(pct).Div(hundred))

	bonuses := make([]Bonus, 0, 3)
	addBonus := func(reason BonusReason) {
		bonuses = append(bonuses, Bonus{
			Reason: reason,
			Pct:    bonusPct,
			Amount: valueobject.RoundUnits(sellBase.Mul(bonusPct).Div(hundred)),
		})
	}
	if client.Origin == trip.OriginAgent {
		addBonus(BonusCreation)
	}
	if len(f.Components) >= ManualBuildThreshold {
		addBonus(BonusManualBuild)
	}
	if f.IsRebooking {
		addBonus(BonusRebooking)
	}

	line := Line{
		AgentEmail:  client.OwnerEmail,
		ClientID:    client.ID,
		ClientName:  client.Name,
		TripID:      f.ID,
		TripTitle:   f.Title,
		TripStatus:  string(f.Status),
		ComponentID: c.ID,
		Kind:        c.Kind,
		Description: c.Description,
		Currency:    c.Pricing.Currency,
		SellBase:    sellBase,
		Pct:         pct,
		Base:        base,
		Bonuses:     bonuses,
	}
	line.Total = base.Add(line.BonusTotal())
	return line
}

// Summarize totals lines per agent and currency, ordered by agent email
func Summarize(lines []Line) []AgentSummary {
	type key struct {
		agent    string
		currency valueobject.Currency
	}
	acc := make(map[key]*AgentSummary)
	trips := make(map[key]map[uuid.UUID]struct{})
	order := make([]key, 0)

	for _, l := range lines {
		k := key{l.AgentEmail, l.Currency}
		s, ok := acc[k]
		if !ok {
			s = &AgentSummary{
				AgentEmail: l.AgentEmail,
				Currency:   l.Currency,
				Base:       decimal.Zero,
				Bonuses:    decimal.Zero,
				Total:      decimal.Zero,
			}
			acc[k] = s
			trips[k] = make(map[uuid.UUID]struct{})
			order = append(order, k)
		}
		s.Lines++
		s.Base = s.Base.Add(l.Base)
		s.Bonuses = s.Bonuses.Add(l.BonusTotal())
		s.Total = s.Total.Add(l.Total)
		trips[k][l.TripID] = struct{}{}
	}

	slices.SortStableFunc(order, func(a, b key) int {
		if c := strings.Compare(a.agent, b.agent); c != 0 {
			return c
		}
		return strings.Compare(string(a.currency), string(b.currency))
	})

	out := make([]AgentSummary, 0, len(order))
	for _, k := range order {
		s := acc[k]
		s.Trips = len(trips[k])
		out = append(out, *s)
	}
	return out
}
