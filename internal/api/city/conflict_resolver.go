package city

import (
	"sort"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

// ResolveConflicts returns the ids of persisted cities whose IATA code is
// being handed to a different city by the proposed payload. Those rows must
// be cleared before the upsert or the unique constraint on iata_code trips.
// existing maps code -> city id as currently stored. The result is sorted.
func ResolveConflicts(proposed []types.CityDetail, existing map[string]string) []string {
	toClear := make(map[string]struct{})
	for _, c := range proposed {
		if c.IATACode == nil {
			continue
		}
		oldID, ok := existing[*c.IATACode]
		if ok && oldID != c.ID {
			toClear[oldID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(toClear))
	for id := range toClear {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
