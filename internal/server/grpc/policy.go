package grpc

import (
	"context"
	"fmt"
	"math"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
	"github.com/dmitrijs2005/prestigeforum/internal/reputation"
	"github.com/dmitrijs2005/prestigeforum/internal/server/auth"
)

const scoreColumn = "prestige_score"

// adminColumns can only be written with an admin key.
var adminColumns = map[string][]string{
	dataservice.CollectionUsers: {"role", "is_admin"},
}

// hiddenColumns are never returned to any caller.
var hiddenColumns = map[string][]string{
	dataservice.CollectionUsers: {"password_hash"},
}

func isAdminKey(ctx context.Context) bool {
	return RoleFromContext(ctx) == auth.RoleAdmin
}

func checkAdminColumns(ctx context.Context, collection string, values dataservice.Row) error {
	if isAdminKey(ctx) {
		return nil
	}
	for _, col := range adminColumns[collection] {
		if _, ok := values[col]; ok {
			return fmt.Errorf("%w: %s.%s needs an admin key", common.ErrForbidden, collection, col)
		}
	}
	return nil
}

func stripHidden(collection string, rows ...dataservice.Row) {
	for _, r := range rows {
		for _, col := range hiddenColumns[collection] {
			delete(r, col)
		}
	}
}

// scoreOf reads an integral score from a wire or database value.
func scoreOf(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// oneActionStep reports whether next is current with exactly one catalogued
// action applied.
func oneActionStep(current, next int64) bool {
	for _, a := range reputation.Actions() {
		got, err := reputation.ApplyAction(models.Identity{PrestigeScore: current}, a.Key)
		if err == nil && got.PrestigeScore == next {
			return true
		}
	}
	return false
}

// checkInsertScore allows service keys to create users at score zero only.
func checkInsertScore(ctx context.Context, collection string, values dataservice.Row) error {
	if isAdminKey(ctx) || collection != dataservice.CollectionUsers {
		return nil
	}
	v, ok := values[scoreColumn]
	if !ok {
		return nil
	}
	if score, valid := scoreOf(v); !valid || score != 0 {
		return fmt.Errorf("%w: new users start at score 0", common.ErrForbidden)
	}
	return nil
}

// checkUpdateScore allows service keys to move one user's score by a single
// action step. Rows matched by filters are read first; an update that
// matches nothing is left to the repository, which reports zero rows.
func (s *GRPCServer) checkUpdateScore(ctx context.Context, collection string, filters []dataservice.Filter, values dataservice.Row) error {
	if isAdminKey(ctx) || collection != dataservice.CollectionUsers {
		return nil
	}
	v, ok := values[scoreColumn]
	if !ok {
		return nil
	}
	next, valid := scoreOf(v)
	if !valid {
		return fmt.Errorf("%w: %s must be an integer", common.ErrorValidation, scoreColumn)
	}

	rows, err := s.repo.Select(ctx, dataservice.Query{Collection: collection, Filters: filters, Limit: 2})
	if err != nil {
		return err
	}
	switch len(rows) {
	case 0:
		return nil
	case 1:
	default:
		return fmt.Errorf("%w: score updates target a single user", common.ErrForbidden)
	}

	current, valid := scoreOf(rows[0][scoreColumn])
	if !valid {
		return fmt.Errorf("%w: stored score %v", common.ErrorInternal, rows[0][scoreColumn])
	}
	if !oneActionStep(current, next) {
		return fmt.Errorf("%w: score %d -> %d is not a prestige action", common.ErrForbidden, current, next)
	}
	return nil
}
