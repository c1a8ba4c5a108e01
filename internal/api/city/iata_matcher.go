package city

import (
	"strings"

	"github.com/FACorreiaa/tripcost-seeder/internal/textnorm"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

type iataKey struct {
	city    string // normalized
	country string // ISO2, upper case
}

// Metropolitan codes that group several airports; these take precedence over
// whatever the airports file says for the same city.
var overrideIATA = map[iataKey]string{
	{"london", "GB"}:         "LON",
	{"new york", "US"}:       "NYC",
	{"tokyo", "JP"}:          "TYO",
	{"paris", "FR"}:          "PAR",
	{"rome", "IT"}:           "ROM",
	{"moscow", "RU"}:         "MOW",
	{"beijing", "CN"}:        "BJS",
	{"bangkok", "TH"}:        "BKK",
	{"dubai", "AE"}:          "DXB",
	{"sao paulo", "BR"}:      "SAO",
	{"rio de janeiro", "BR"}: "RIO",
}

// IATAMatcher resolves (city, country) pairs to IATA city codes.
type IATAMatcher struct {
	airports map[iataKey]string
}

// NewIATAMatcher indexes airports by (normalized city, ISO2); the first row
// seen for a key wins.
func NewIATAMatcher(airports []types.AirportSource) *IATAMatcher {
	m := &IATAMatcher{airports: make(map[iataKey]string, len(airports))}
	for _, a := range airports {
		key := iataKey{city: textnorm.NormalizeString(a.City), country: textnorm.CountryCode(a.Country)}
		if key.city == "" || key.country == "" {
			continue
		}
		if _, seen := m.airports[key]; seen {
			continue
		}
		m.airports[key] = strings.ToUpper(strings.TrimSpace(a.CityCode))
	}
	return m
}

// Size is the number of airport-derived keys.
func (m *IATAMatcher) Size() int {
	return len(m.airports)
}

// Lookup returns the candidate code for a city, overrides first.
func (m *IATAMatcher) Lookup(cityName, iso2 string) (string, bool) {
	key := iataKey{city: textnorm.NormalizeString(cityName), country: textnorm.CountryCode(iso2)}
	if code, ok := overrideIATA[key]; ok {
		return code, true
	}
	code, ok := m.airports[key]
	return code, ok && code != ""
}

// Assign builds the city payload in source order. A code already claimed by
// an earlier city is dropped, so no code is handed out twice. Duplicate ids
// keep their first row. Returns the payload and the number of cities that
// received a code.
func (m *IATAMatcher) Assign(rows []types.CitySource) ([]types.CityDetail, int) {
	payload := make([]types.CityDetail, 0, len(rows))
	used := make(map[string]struct{})
	seenIDs := make(map[string]struct{}, len(rows))
	matched := 0

	for _, row := range rows {
		if _, dup := seenIDs[row.ID]; dup {
			continue
		}
		seenIDs[row.ID] = struct{}{}

		var iata *string
		if code, ok := m.Lookup(row.CityASCII, row.ISO2); ok {
			if _, taken := used[code]; !taken {
				used[code] = struct{}{}
				iata = &code
				matched++
			}
		}

		payload = append(payload, types.CityDetail{
			ID:        row.ID,
			Name:      row.DisplayName(),
			Country:   row.Country,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			IATACode:  iata,
		})
	}
	return payload, matched
}
