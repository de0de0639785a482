// Package dataservice is the row-oriented CRUD contract of the remote data
// service: named collections, equality filters, ordering and pagination.
// It holds the wire codec (structpb messages), the hand-written gRPC
// service description shared by client and server, and the gRPC client.
package dataservice

import "context"

// Collections served by the data service.
const (
	CollectionUsers    = "users"
	CollectionSessions = "sessions"
	CollectionPosts    = "posts"
	CollectionAds      = "ads"
	CollectionWaitlist = "waitlist"
)

// Row is one record. Values are JSON-like: string, bool, float64, nil,
// []any or map[string]any. Numbers always arrive as float64.
type Row map[string]any

// Filter is an equality condition on a column.
type Filter struct {
	Column string
	Value  any
}

// Eq is shorthand for Filter{Column: column, Value: value}.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Query selects rows from Collection. Limit 0 means no limit.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}

// Client is the data service as seen by the forum client.
type Client interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, collection string, row Row) (Row, error)
	Update(ctx context.Context, collection string, filters []Filter, values Row) (int64, error)
	Delete(ctx context.Context, collection string, filters []Filter) (int64, error)
	Ping(ctx context.Context) error
	// Authenticate returns the users row matching email when password
	// matches its stored hash. A wrong password and an unknown email both
	// yield common.ErrorNotFound. The hash itself is never returned.
	Authenticate(ctx context.Context, email, password string) (Row, error)
	Close() error
}
