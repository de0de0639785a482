// Package collections stores the data service's named collections in
// PostgreSQL. Every collection and column name is checked against a fixed
// whitelist before it reaches SQL text; values are always bound parameters.
package collections

import (
	"context"

	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
)

type Repository interface {
	Select(ctx context.Context, q dataservice.Query) ([]dataservice.Row, error)
	Insert(ctx context.Context, collection string, row dataservice.Row) (dataservice.Row, error)
	Update(ctx context.Context, collection string, filters []dataservice.Filter, values dataservice.Row) (int64, error)
	Delete(ctx context.Context, collection string, filters []dataservice.Filter) (int64, error)
	Ping(ctx context.Context) error
}
