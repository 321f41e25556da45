// Package matching provides the pure similarity functions used when deciding
// whether a claim's self-reported attributes match an item's recorded
// attributes.  All functions are deterministic and side-effect free.
package matching

import (
	"math"
	"strings"
	"time"
)

// Component weights for the aggregate match score.  They must sum to 1.0.
const (
	WeightUniqueIdentifiers = 0.4
	WeightLocation          = 0.2
	WeightCategory          = 0.2
	WeightDateProximity     = 0.2
)

// dateWindowDays is the gap beyond which date proximity contributes nothing.
const dateWindowDays = 30.0

// TextSimilarity returns a case-insensitive Dice coefficient over character
// bigrams of a and b, in [0, 1].  It is symmetric and returns exactly 1 for
// identical strings (up to case, and including two empty strings) and 0 when
// the bigram sets are disjoint.
func TextSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigramsA := bigrams(a)
	bigramsB := bigrams(b)

	var intersection int
	for g, n := range bigramsA {
		if m, ok := bigramsB[g]; ok {
			intersection += min(n, m)
		}
	}

	total := len(a) - 1 + len(b) - 1
	return 2.0 * float64(intersection) / float64(total)
}

func bigrams(s string) map[string]int {
	grams := make(map[string]int, len(s))
	for i := 0; i+2 <= len(s); i++ {
		grams[s[i:i+2]]++
	}
	return grams
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// DateProximityScore scores how close the claimed loss date is to the date
// the item was found: 1 at a zero-day gap, decaying linearly to exactly 0 at
// a gap of 30 days or more.  The gap direction is irrelevant here; the
// eligibility rules enforce ordering separately.
func DateProximityScore(dateFound, dateLost time.Time) float64 {
	gapDays := math.Abs(dateFound.Sub(dateLost).Hours()) / 24.0
	score := 1.0 - gapDays/dateWindowDays
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ItemAttributes are the item-side inputs to the weighted score.
type ItemAttributes struct {
	UniqueIdentifiers string
	Location          string
	Category          string
	DateFound         time.Time
}

// ClaimAttributes are the claim-side inputs to the weighted score.
type ClaimAttributes struct {
	UniqueIdentifiers string
	Location          string
	Category          string
	DateLost          time.Time
}

// Score is the weighted aggregate with its per-component breakdown.
type Score struct {
	Total             float64 `json:"total"`
	UniqueIdentifiers float64 `json:"unique_identifiers"`
	Location          float64 `json:"location"`
	Category          float64 `json:"category"`
	DateProximity     float64 `json:"date_proximity"`
}

// WeightedScore combines the per-attribute similarities under the fixed
// component weights.  For a claim whose attributes exactly mirror the item's,
// Total is 1.0.
func WeightedScore(it ItemAttributes, cl ClaimAttributes) Score {
	s := Score{
		UniqueIdentifiers: TextSimilarity(it.UniqueIdentifiers, cl.UniqueIdentifiers),
		Location:          TextSimilarity(it.Location, cl.Location),
		Category:          TextSimilarity(it.Category, cl.Category),
		DateProximity:     DateProximityScore(it.DateFound, cl.DateLost),
	}
	s.Total = WeightUniqueIdentifiers*s.UniqueIdentifiers +
		WeightLocation*s.Location +
		WeightCategory*s.Category +
		WeightDateProximity*s.DateProximity
	return s
}

// ContainsFold reports whether haystack contains needle, ignoring case.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// EitherContainsFold reports bidirectional case-insensitive substring
// containment: true when either string contains the other.
func EitherContainsFold(a, b string) bool {
	return ContainsFold(a, b) || ContainsFold(b, a)
}
