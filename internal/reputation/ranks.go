package reputation

import "math"

// Rank is one tier of the prestige ladder.
type Rank struct {
	MinimumScore int64
	Title        string
	ShortTitle   string
	ColorClass   string
	AdminOnly    bool
}

// ladder is ordered by MinimumScore. The first entry is the floor and makes
// RankFor total; the last entry is reachable only through the admin flag.
var ladder = []Rank{
	{MinimumScore: math.MinInt64, Title: "Rugged", ShortTitle: "RUG", ColorClass: "text-red-600"},
	{MinimumScore: 0, Title: "Newcomer", ShortTitle: "NEW", ColorClass: "text-gray-400"},
	{MinimumScore: 25, Title: "Hodler", ShortTitle: "HDL", ColorClass: "text-green-400"},
	{MinimumScore: 100, Title: "Miner", ShortTitle: "MNR", ColorClass: "text-blue-400"},
	{MinimumScore: 250, Title: "Validator", ShortTitle: "VAL", ColorClass: "text-indigo-400"},
	{MinimumScore: 500, Title: "Whale", ShortTitle: "WHL", ColorClass: "text-purple-500"},
	{MinimumScore: 1000, Title: "Satoshi's Heir", ShortTitle: "SAT", ColorClass: "text-yellow-400"},
	{MinimumScore: math.MaxInt64, Title: "Administrator", ShortTitle: "ADM", ColorClass: "text-amber-500", AdminOnly: true},
}

// Ranks returns a copy of the ladder, lowest bound first.
func Ranks() []Rank {
	out := make([]Rank, len(ladder))
	copy(out, ladder)
	return out
}

// AdminRank is the tier every administrator displays.
func AdminRank() Rank {
	for _, r := range ladder {
		if r.AdminOnly {
			return r
		}
	}
	panic("reputation: ladder has no admin rank")
}

// RankFor resolves the rank for a score. Administrators always get the admin
// rank, whatever their score. Otherwise the non-admin rank with the highest
// MinimumScore not above score wins.
func RankFor(score int64, isAdmin bool) Rank {
	if isAdmin {
		return AdminRank()
	}

	best := ladder[0]
	for _, r := range ladder {
		if r.AdminOnly || r.MinimumScore > score {
			continue
		}
		if r.MinimumScore >= best.MinimumScore {
			best = r
		}
	}
	return best
}

// barBounds returns the lowest non-floor threshold and the top non-admin
// threshold, the two ends of the reputation bar.
func barBounds() (low, high int64) {
	low, high = math.MaxInt64, math.MinInt64
	for i, r := range ladder {
		if i == 0 || r.AdminOnly {
			continue
		}
		low = min(low, r.MinimumScore)
		high = max(high, r.MinimumScore)
	}
	return low, high
}
