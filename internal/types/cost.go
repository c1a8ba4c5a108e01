package types

import "github.com/shopspring/decimal"

// CostSource is one row of the cost-of-living CSV. Price cells are kept raw so a
// malformed value only nulls its own metric.
type CostSource struct {
	Line           int
	City           string
	Country        string
	MealRaw        string // x1: meal, inexpensive restaurant
	TicketRaw      string // x28: one-way ticket, local transport
	RentCentreRaw  string // x48: 1BR apartment, city centre, monthly
	RentOutsideRaw string // x49: 1BR apartment, outside centre, monthly
}

// CostIndex matches the cost_indices table structure.
type CostIndex struct {
	CityID            string           `json:"city_id"`
	AccommodationLow  *decimal.Decimal `json:"accommodation_low"`
	AccommodationMid  *decimal.Decimal `json:"accommodation_mid"`
	FoodDaily         *decimal.Decimal `json:"food_daily"`
	LocalTransitDaily *decimal.Decimal `json:"local_transit_daily"`
}

// Empty reports whether every derived metric is null.
func (c CostIndex) Empty() bool {
	return c.AccommodationLow == nil && c.AccommodationMid == nil &&
		c.FoodDaily == nil && c.LocalTransitDaily == nil
}
