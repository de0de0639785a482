// Package reputation is the prestige engine: the rank ladder, the action
// catalog and the pure functions that derive display values from a score.
// Nothing here performs I/O; persisting a new score is the account store's job.
package reputation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/prestigeforum/internal/models"
)

// BarWidth is the number of glyphs ReputationBar renders.
const BarWidth = 10

const (
	barFilled = "█"
	barEmpty  = "░"
)

// FormatScore renders a score with a "+" for positive values and a comma
// every three digits, e.g. "+1,234", "0", "-56". It does not depend on the
// process locale.
func FormatScore(score int64) string {
	var magnitude uint64
	if score < 0 {
		magnitude = uint64(-(score + 1)) + 1
	} else {
		magnitude = uint64(score)
	}

	digits := strconv.FormatUint(magnitude, 10)
	var b strings.Builder
	switch {
	case score > 0:
		b.WriteByte('+')
	case score < 0:
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}

// ParseScore is the inverse of FormatScore.
func ParseScore(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimPrefix(s, "+"), ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", s, err)
	}
	return v, nil
}

// ReputationBar renders score as BarWidth glyphs, filled in proportion to
// its position between the first real rank and the top non-admin rank.
// Scores below that range render all empty, scores at or above the top
// rank render all filled.
func ReputationBar(score int64) string {
	low, high := barBounds()

	filled := 0
	switch {
	case score < low:
		filled = 0
	case score >= high:
		filled = BarWidth
	default:
		filled = int((score - low) * BarWidth / (high - low))
	}

	return strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, BarWidth-filled)
}

// ApplyAction returns a copy of identity with the action's delta added to
// its prestige score. Scores may go negative; the sum saturates at the int64
// bounds. An unknown key returns common.ErrUnknownAction and the identity
// unchanged.
func ApplyAction(identity models.Identity, key string) (models.Identity, error) {
	delta, err := Delta(key)
	if err != nil {
		return identity, err
	}
	identity.PrestigeScore = saturatingAdd(identity.PrestigeScore, delta)
	return identity, nil
}

func saturatingAdd(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	default:
		return a + b
	}
}
