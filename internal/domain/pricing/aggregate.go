package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
)

// Line is one priced component fed into aggregation
type Line struct {
	Kind    ProductKind
	Pricing Pricing
}

// Overrides are trip-level percentages that replace the natural values
type Overrides struct {
	CommissionPct *decimal.Decimal
	MarginPct     *decimal.Decimal
}

// Bases returns the sell and net that count toward margin and commission,
// with yacht lines reduced to their travel share.
func Bases(lines []Line) (sellBase, netBase decimal.Decimal) {
	sellBase, netBase = decimal.Zero, decimal.Zero
	for _, l := range lines {
		scale := Scale(l.Kind)
		sellBase = sellBase.Add(l.Pricing.Sell.Mul(scale))
		netBase = netBase.Add(l.Pricing.Net.Mul(scale))
	}
	return sellBase, netBase
}

// Aggregate combines component pricing into trip totals. Net and sell are
// summed at full value; margin and commission use the yacht-scoped bases.
// Returns nil when there are no lines.
func Aggregate(lines []Line, o Overrides) *Pricing {
	if len(lines) == 0 {
		return nil
	}

	currency := lines[0].Pricing.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	net, sell, pctSum := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range lines {
		net = net.Add(l.Pricing.Net)
		sell = sell.Add(l.Pricing.Sell)
		pctSum = pctSum.Add(l.Pricing.CommissionPct)
	}
	sellBase, netBase := Bases(lines)
	margin := sellBase.Sub(netBase)

	if o.MarginPct != nil {
		factor := o.MarginPct.Div(hundred)
		sell = valueobject.RoundUnits(net.Mul(decimal.NewFromInt(1).Add(factor)))
		margin = valueobject.RoundUnits(netBase.Mul(factor))
		sellBase = netBase.Add(margin)
	}

	commissionPct := valueobject.RoundPct(pctSum.Div(decimal.NewFromInt(int64(len(lines)))))
	if o.CommissionPct != nil {
		commissionPct = *o.CommissionPct
	}

	return &Pricing{
		Currency:         currency,
		Net:              valueobject.RoundUnits(net),
		Sell:             valueobject.RoundUnits(sell),
		MarginAmount:     valueobject.RoundUnits(margin),
		MarginPct:        percentOf(margin, sellBase),
		CommissionAmount: valueobject.RoundUnits(sellBase.Mul(commissionPct).Div(hundred)),
		CommissionPct:    commissionPct,
	}
}
