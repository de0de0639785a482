package collections

import (
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/google/uuid"
)

type kind int

const (
	kindText kind = iota
	kindInt
	kindBool
	kindTime
	kindUUID
)

type column struct {
	name string
	kind kind
	// generated columns are filled by the database and cannot be written.
	generated bool
}

type table struct {
	name    string
	columns []column
}

func (t table) column(name string) (column, error) {
	for _, c := range t.columns {
		if c.name == name {
			return c, nil
		}
	}
	return column{}, fmt.Errorf("%w: %s.%s", common.ErrUnknownColumn, t.name, name)
}

func (t table) selectList() string {
	s := ""
	for i, c := range t.columns {
		if i > 0 {
			s += ", "
		}
		s += c.name
	}
	return s
}

var (
	colID        = column{name: "id", kind: kindUUID, generated: true}
	colCreatedAt = column{name: "created_at", kind: kindTime, generated: true}
)

// tables is the identifier whitelist. Collection and column names reach SQL
// text only after a lookup here.
var tables = map[string]table{
	dataservice.CollectionUsers: {name: "users", columns: []column{
		colID,
		{name: "email", kind: kindText},
		{name: "username", kind: kindText},
		{name: "password_hash", kind: kindText},
		{name: "prestige_score", kind: kindInt},
		{name: "role", kind: kindText},
		{name: "is_admin", kind: kindBool},
		{name: "avatar_url", kind: kindText},
		colCreatedAt,
	}},
	dataservice.CollectionSessions: {name: "sessions", columns: []column{
		colID,
		{name: "token_hash", kind: kindText},
		{name: "user_id", kind: kindUUID},
		{name: "expires_at", kind: kindTime},
		colCreatedAt,
	}},
	dataservice.CollectionPosts: {name: "posts", columns: []column{
		colID,
		{name: "author_id", kind: kindUUID},
		{name: "board", kind: kindText},
		{name: "title", kind: kindText},
		{name: "body", kind: kindText},
		colCreatedAt,
	}},
	dataservice.CollectionAds: {name: "ads", columns: []column{
		colID,
		{name: "title", kind: kindText},
		{name: "image_url", kind: kindText},
		{name: "link_url", kind: kindText},
		{name: "approved", kind: kindBool},
		colCreatedAt,
	}},
	dataservice.CollectionWaitlist: {name: "waitlist", columns: []column{
		colID,
		{name: "email", kind: kindText},
		colCreatedAt,
	}},
}

func lookup(collection string) (table, error) {
	t, ok := tables[collection]
	if !ok {
		return table{}, fmt.Errorf("%w: %q", common.ErrUnknownCollect, collection)
	}
	return t, nil
}

func invalid(c column, v any) error {
	return fmt.Errorf("%w: %s: unexpected value %v (%T)", common.ErrorValidation, c.name, v, v)
}

// coerce converts a wire value to the Go type the column expects. Numbers
// arrive as float64 and times as RFC 3339 strings.
func coerce(c column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch c.kind {
	case kindInt:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
				return nil, invalid(c, v)
			}
			return int64(n), nil
		}
	case kindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case kindTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, invalid(c, v)
			}
			return parsed, nil
		}
	case kindUUID:
		if s, ok := v.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, invalid(c, v)
			}
			return id.String(), nil
		}
	case kindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, invalid(c, v)
}
