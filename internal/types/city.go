package types

// CityDetail matches the cities table structure.
type CityDetail struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IATACode  *string  `json:"iata_code"`
}

// CitySource is one row of the world cities CSV.
type CitySource struct {
	Line      int
	ID        string
	City      string
	CityASCII string
	Country   string
	ISO2      string
	Latitude  *float64
	Longitude *float64
}

// DisplayName prefers the ASCII spelling and falls back to the native one.
func (c CitySource) DisplayName() string {
	if c.CityASCII != "" {
		return c.CityASCII
	}
	return c.City
}

// AirportSource is one row of the airports CSV.
type AirportSource struct {
	City     string
	CityCode string
	Country  string // ISO2
}

// CityKey is a persisted city reduced to what the cost matcher needs.
type CityKey struct {
	ID      string
	Name    string
	Country string
}
