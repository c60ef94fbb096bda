package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// Pricing is the priced view of a component or a whole trip.
// Percentages are expressed in points (12.5 means 12.5%).
type Pricing struct {
	Currency         valueobject.Currency `json:"currency"`
	Net              decimal.Decimal      `json:"net"`
	Sell             decimal.Decimal      `json:"sell"`
	MarginAmount     decimal.Decimal      `json:"margin_amount"`
	MarginPct        decimal.Decimal      `json:"margin_pct"`
	CommissionAmount decimal.Decimal      `json:"commission_amount"`
	CommissionPct    decimal.Decimal      `json:"commission_pct"`
}

// NewComponentPricing prices a single component. The margin is derived
// so that sell - net == margin always holds.
func NewComponentPricing(currency valueobject.Currency, net, sell, commissionPct decimal.Decimal, kind ProductKind) (Pricing, error) {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if net.IsNegative() || sell.IsNegative() {
		return Pricing{}, shared.NewDomainError("INVALID_PRICING", "Net and sell cannot be negative")
	}
	if commissionPct.IsNegative() || commissionPct.GreaterThan(hundred) {
		return Pricing{}, shared.NewDomainError("INVALID_PRICING", "Commission percent must be between 0 and 100")
	}

	margin := sell.Sub(net)
	base := sell.Mul(Scale(kind))
	return Pricing{
		Currency:         currency,
		Net:              net,
		Sell:             sell,
		MarginAmount:     margin,
		MarginPct:        percentOf(margin, sell),
		CommissionAmount: valueobject.RoundUnits(base.Mul(commissionPct).Div(hundred)),
		CommissionPct:    commissionPct,
	}, nil
}

// MarginConsistent reports whether sell - net == margin
func (p Pricing) MarginConsistent() bool {
	return p.Sell.Sub(p.Net).Equal(p.MarginAmount)
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return valueobject.RoundPct(part.Mul(hundred).Div(whole))
}
