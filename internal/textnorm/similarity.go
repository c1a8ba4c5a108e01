package textnorm

import (
	"math"
	"sort"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two strings from 0 (nothing in common) to 100 (identical)
// using the Levenshtein distance relative to the longer string.
func Similarity(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// Match is the best candidate found by BestMatch.
type Match struct {
	Candidate string
	Score     int
}

// BestMatch returns the highest scoring candidate for query. Ties go to the
// lexicographically smallest candidate so results do not depend on map order.
// ok is false when candidates is empty.
func BestMatch(query string, candidates []string) (Match, bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best := Match{Score: -1}
	for _, c := range sorted {
		if score := Similarity(query, c); score > best.Score {
			best = Match{Candidate: c, Score: score}
		}
	}
	return best, true
}

// Accept reports whether a match clears threshold.
func (m Match) Accept(threshold int) bool {
	return m.Score >= threshold
}
