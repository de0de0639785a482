package remote

import (
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
)

// identityFromRow maps a users row onto an Identity. The service keeps two
// admin markers, role and is_admin; either one grants admin.
func identityFromRow(row dataservice.Row) (*models.Identity, error) {
	id, _ := row["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("users row without id: %w", common.ErrStoreUnavailable)
	}

	identity := &models.Identity{ID: id}
	identity.Email, _ = row["email"].(string)
	identity.Username, _ = row["username"].(string)
	identity.AvatarURL, _ = row["avatar_url"].(string)
	identity.PrestigeScore = toInt64(row["prestige_score"])

	role, _ := row["role"].(string)
	flag, _ := row["is_admin"].(bool)
	identity.IsAdmin = role == common.RoleAdmin || flag

	if raw, ok := row["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			identity.CreatedAt = t
		}
	}
	return identity, nil
}

// toInt64 accepts the numeric shapes a row value may take. JSON numbers
// arrive as float64 and are saturated to the int64 range.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		switch {
		case n >= math.MaxInt64:
			return math.MaxInt64
		case n <= math.MinInt64:
			return math.MinInt64
		default:
			return int64(n)
		}
	default:
		return 0
	}
}
