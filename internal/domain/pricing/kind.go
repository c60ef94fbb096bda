package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductKind classifies a priced inventory line
type ProductKind string

const (
	KindFlight   ProductKind = "flight"
	KindHotel    ProductKind = "hotel"
	KindYacht    ProductKind = "yacht"
	KindTransfer ProductKind = "transfer"
	KindActivity ProductKind = "activity"
	KindCar      ProductKind = "car"
	KindOther    ProductKind = "other"
)

// Yacht revenue is split 95/5: only the travel share counts toward
// margin, commission and agent economics.
var (
	yachtTravelShare = decimal.RequireFromString("0.05")
	yachtUnitShare   = decimal.RequireFromString("0.95")
	hundred          = decimal.NewFromInt(100)
)

// ParseProductKind maps free text to a kind; unknown values become KindOther
func ParseProductKind(s string) ProductKind {
	switch k := ProductKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFlight, KindHotel, KindYacht, KindTransfer, KindActivity, KindCar:
		return k
	}
	return KindOther
}

// IsYacht reports whether the kind falls under the yacht revenue rule
func (k ProductKind) IsYacht() bool {
	return k == KindYacht
}

// Scale is the share of a component's value attributed to travel
func Scale(k ProductKind) decimal.Decimal {
	if k.IsYacht() {
		return yachtTravelShare
	}
	return decimal.NewFromInt(1)
}
