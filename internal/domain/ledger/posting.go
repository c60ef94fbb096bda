package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"github.com/zeniva/backend/internal/domain/trip"
)

// DefaultAgentPct is the flat agent share applied on settlement when the
// client is worked by an agent
var DefaultAgentPct = decimal.RequireFromString("0.2")

// Policy configures settlement postings
type Policy struct {
	// AgentPct is the fraction of travel revenue credited to the agent
	AgentPct decimal.Decimal
}

// DefaultPolicy returns the settlement policy used in production
func DefaultPolicy() Policy {
	return Policy{AgentPct: DefaultAgentPct}
}

// AgentPctFor returns the agent share for a client: the policy rate when an
// agent works the client, zero otherwise.
func (p Policy) AgentPctFor(client *trip.Client) decimal.Decimal {
	if client != nil && client.HasAgent() {
		return p.AgentPct
	}
	return decimal.Zero
}

// Post splits a settled payment across the travel and yacht accounts in
// proportion to the trip's revenue split. Zero amounts are not posted, and a
// trip without sell value posts nothing.
func (p Policy) Post(f *trip.File, client *trip.Client, payment *trip.Payment) []Entry {
	split := f.Split(p.AgentPctFor(client))
	total := split.TotalSell()
	if total.IsZero() {
		return nil
	}

	now := time.Now()
	amount := payment.Amount
	entries := make([]Entry, 0, 3)
	add := func(account Account, typ EntryType, part decimal.Decimal, memo string) {
		share := amount.Prorate(part, total)
		if share.IsZero() {
			return
		}
		entries = append(entries, Entry{
			ID:        uuid.New(),
			TenantID:  f.TenantID,
			TripID:    f.ID,
			PaymentID: payment.ID,
			Account:   account,
			Type:      typ,
			Amount:    share.Amount(),
			Currency:  share.Currency(),
			Memo:      memo,
			CreatedAt: now,
		})
	}

	add(AccountTravel, TypeSplit, split.TravelNetAfterAgent, "travel net after agent")
	add(AccountTravel, TypeCommission, split.TravelAgentShare, "travel agent commission")
	add(AccountYacht, TypeSplit, split.YachtSell, "yacht share")
	return entries
}

// Sum totals entry amounts
func Sum(entries []Entry) valueobject.Money {
	if len(entries) == 0 {
		return valueobject.Zero(valueobject.DefaultCurrency)
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	m, _ := valueobject.NewMoney(total, entries[0].Currency)
	return m
}
