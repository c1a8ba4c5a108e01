package cost

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

var (
	mealsPerDay    = decimal.NewFromInt(3)
	ridesPerDay    = decimal.NewFromFloat(2.5)
	daysPerMonth   = decimal.NewFromInt(30)
	centsPrecision = int32(2)
)

// DeriveCostIndex turns raw monthly and per-item prices into daily figures:
//
//	food_daily          = x1 * 3
//	local_transit_daily = x28 * 2.5
//	accommodation_mid   = x48 / 30
//	accommodation_low   = x49 / 30
//
// Each metric is nil when its source cell is empty or not a number.
func DeriveCostIndex(cityID string, src types.CostSource) types.CostIndex {
	return types.CostIndex{
		CityID:            cityID,
		FoodDaily:         derive(src.MealRaw, func(d decimal.Decimal) decimal.Decimal { return d.Mul(mealsPerDay) }),
		LocalTransitDaily: derive(src.TicketRaw, func(d decimal.Decimal) decimal.Decimal { return d.Mul(ridesPerDay) }),
		AccommodationMid:  derive(src.RentCentreRaw, func(d decimal.Decimal) decimal.Decimal { return d.Div(daysPerMonth) }),
		AccommodationLow:  derive(src.RentOutsideRaw, func(d decimal.Decimal) decimal.Decimal { return d.Div(daysPerMonth) }),
	}
}

func derive(raw string, f func(decimal.Decimal) decimal.Decimal) *decimal.Decimal {
	d, ok := parsePrice(raw)
	if !ok {
		return nil
	}
	v := f(d).Round(centsPrecision)
	return &v
}

func parsePrice(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
