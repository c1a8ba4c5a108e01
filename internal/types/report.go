package types

import "github.com/shopspring/decimal"

// SpotCheck is the outcome of looking up one well-known city by name.
type SpotCheck struct {
	Query     string           `json:"query"`
	Found     bool             `json:"found"`
	Name      string           `json:"name,omitempty"`
	Country   string           `json:"country,omitempty"`
	FoodDaily *decimal.Decimal `json:"food_daily,omitempty"`
}

// HasCostData mirrors the report wording: a city only counts when food data exists.
func (s SpotCheck) HasCostData() bool {
	return s.Found && s.FoodDaily != nil && !s.FoodDaily.IsZero()
}

// Coverage counts cities ready for trip estimates.
type Coverage struct {
	WithIATA int `json:"with_iata"`
	WithCost int `json:"with_cost"`
	Both     int `json:"both"`
}

// VerificationReport is the read-only summary for one database target.
type VerificationReport struct {
	Target     string      `json:"target"`
	Skipped    bool        `json:"skipped"`
	Err        string      `json:"error,omitempty"`
	Cities     int         `json:"cities"`
	CostRows   int         `json:"cost_rows"`
	Coverage   Coverage    `json:"coverage"`
	SpotChecks []SpotCheck `json:"spot_checks"`
}
