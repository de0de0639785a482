package reputation

import (
	"fmt"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
)

// Action is a catalog entry mapping a forum event to a fixed point delta.
type Action struct {
	Key         string
	Description string
	Value       int64
}

// Positive reports whether the action adds to the score.
func (a Action) Positive() bool {
	return a.Value > 0
}

var catalog = []Action{
	{Key: "helpful_post", Description: "Post marked as helpful", Value: 5},
	{Key: "create_post", Description: "Published a post", Value: 2},
	{Key: "post_upvoted", Description: "Post received an upvote", Value: 1},
	{Key: "verified_wallet", Description: "Linked a wallet to the account", Value: 10},
	{Key: "referral_signup", Description: "Referred a new member", Value: 15},
	{Key: "ad_approved", Description: "Submitted ad was approved", Value: 3},
	{Key: "post_downvoted", Description: "Post received a downvote", Value: -1},
	{Key: "post_removed", Description: "Post removed by a moderator", Value: -10},
	{Key: "spam_flagged", Description: "Flagged as spam", Value: -20},
	{Key: "scam_report_confirmed", Description: "Confirmed scam report against the member", Value: -100},
}

var catalogByKey = func() map[string]Action {
	m := make(map[string]Action, len(catalog))
	for _, a := range catalog {
		m[a.Key] = a
	}
	return m
}()

// Actions returns a copy of the catalog in display order.
func Actions() []Action {
	out := make([]Action, len(catalog))
	copy(out, catalog)
	return out
}

// PositiveActions returns the catalog entries with a positive value.
func PositiveActions() []Action {
	return filter(func(a Action) bool { return a.Positive() })
}

// NegativeActions returns the catalog entries with a zero or negative value.
func NegativeActions() []Action {
	return filter(func(a Action) bool { return !a.Positive() })
}

func filter(keep func(Action) bool) []Action {
	var out []Action
	for _, a := range catalog {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// Lookup returns the catalog entry for key.
func Lookup(key string) (Action, error) {
	a, ok := catalogByKey[key]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", common.ErrUnknownAction, key)
	}
	return a, nil
}

// Delta returns the point delta for key.
func Delta(key string) (int64, error) {
	a, err := Lookup(key)
	if err != nil {
		return 0, err
	}
	return a.Value, nil
}
