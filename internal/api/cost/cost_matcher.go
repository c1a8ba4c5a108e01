package cost

import (
	"sort"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/tripcost-seeder/internal/textnorm"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

// DefaultThreshold is the minimum similarity score for a fuzzy match.
const DefaultThreshold = 85

// Matcher resolves cost-of-living (city, country) names to persisted city ids.
// Exact normalized lookups are tried first; fuzzy matching only runs on a miss
// and is scoped to the resolved country for city names.
type Matcher struct {
	threshold int

	// normalized country -> normalized city -> id
	index       map[string]map[string]string
	countryKeys []string
	cityKeys    map[string][]string

	// raw country -> resolved country key ("" when nothing cleared the threshold)
	countryMemo *cache.Cache
	fuzzyHits   int
}

// NewMatcher indexes the persisted cities. When two cities collapse onto the
// same (country, city) key the smallest id wins.
func NewMatcher(cities []types.CityKey, threshold int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	sorted := append([]types.CityKey(nil), cities...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	m := &Matcher{
		threshold:   threshold,
		index:       make(map[string]map[string]string),
		cityKeys:    make(map[string][]string),
		countryMemo: cache.New(cache.NoExpiration, 0),
	}
	for _, c := range sorted {
		country := textnorm.NormalizeString(c.Country)
		city := textnorm.NormalizeString(c.Name)
		if country == "" || city == "" {
			continue
		}
		byCity, ok := m.index[country]
		if !ok {
			byCity = make(map[string]string)
			m.index[country] = byCity
			m.countryKeys = append(m.countryKeys, country)
		}
		if _, taken := byCity[city]; taken {
			continue
		}
		byCity[city] = c.ID
		m.cityKeys[country] = append(m.cityKeys[country], city)
	}
	return m
}

// Resolve returns the city id for a cost row, or false when either the
// country or the city cannot be matched.
func (m *Matcher) Resolve(city, country string) (string, bool) {
	countryKey, ok := m.resolveCountry(country)
	if !ok {
		return "", false
	}
	byCity := m.index[countryKey]

	cityKey := textnorm.NormalizeString(city)
	if cityKey == "" {
		return "", false
	}
	if id, ok := byCity[cityKey]; ok {
		return id, true
	}

	best, ok := textnorm.BestMatch(cityKey, m.cityKeys[countryKey])
	if !ok || !best.Accept(m.threshold) {
		return "", false
	}
	m.fuzzyHits++
	return byCity[best.Candidate], true
}

func (m *Matcher) resolveCountry(raw string) (string, bool) {
	key := textnorm.NormalizeString(raw)
	if key == "" {
		return "", false
	}
	if _, ok := m.index[key]; ok {
		return key, true
	}

	if cached, found := m.countryMemo.Get(raw); found {
		resolved := cached.(string)
		return resolved, resolved != ""
	}

	resolved := ""
	if best, ok := textnorm.BestMatch(key, m.countryKeys); ok && best.Accept(m.threshold) {
		resolved = best.Candidate
		m.fuzzyHits++
	}
	m.countryMemo.Set(raw, resolved, cache.NoExpiration)
	return resolved, resolved != ""
}

// Countries is the number of distinct persisted countries.
func (m *Matcher) Countries() int {
	return len(m.index)
}

// FuzzyHits counts names that were resolved by similarity rather than by an
// exact normalized lookup. A memoized country counts once.
func (m *Matcher) FuzzyHits() int {
	return m.fuzzyHits
}
