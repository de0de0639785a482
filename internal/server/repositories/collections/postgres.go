package collections

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/dmitrijs2005/prestigeforum/internal/dbx"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// args accumulates bound parameters and hands out their placeholders.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

func where(t table, filters []dataservice.Filter, a *args) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(filters))
	for _, f := range filters {
		c, err := t.column(f.Column)
		if err != nil {
			return "", err
		}
		v, err := coerce(c, f.Value)
		if err != nil {
			return "", err
		}
		if v == nil {
			conds = append(conds, c.name+" IS NULL")
			continue
		}
		conds = append(conds, c.name+" = "+a.add(v))
	}
	return " WHERE " + strings.Join(conds, " AND "), nil
}

// writable validates row against t and returns its column names in sorted
// order with the coerced values.
func writable(t table, row dataservice.Row) ([]string, []any, error) {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	slices.Sort(names)

	values := make([]any, 0, len(names))
	for _, name := range names {
		c, err := t.column(name)
		if err != nil {
			return nil, nil, err
		}
		if c.generated {
			return nil, nil, fmt.Errorf("%w: %s is read-only", common.ErrorValidation, name)
		}
		v, err := coerce(c, row[name])
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
	}
	return names, values, nil
}

func mapError(err error) error {
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", common.ErrAlreadyExists, err)
	}
	return fmt.Errorf("db error: %w", err)
}

func scanRows(t table, rows *sql.Rows) ([]dataservice.Row, error) {
	defer rows.Close()

	var out []dataservice.Row
	for rows.Next() {
		vals := make([]any, len(t.columns))
		ptrs := make([]any, len(t.columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, mapError(err)
		}
		row := make(dataservice.Row, len(t.columns))
		for i, c := range t.columns {
			row[c.name] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) Select(ctx context.Context, q dataservice.Query) ([]dataservice.Row, error) {
	t, err := lookup(q.Collection)
	if err != nil {
		return nil, err
	}

	var a args
	var b strings.Builder
	b.WriteString("SELECT " + t.selectList() + " FROM " + t.name)

	w, err := where(t, q.Filters, &a)
	if err != nil {
		return nil, err
	}
	b.WriteString(w)

	if q.OrderBy != "" {
		c, err := t.column(q.OrderBy)
		if err != nil {
			return nil, err
		}
		b.WriteString(" ORDER BY " + c.name)
		if q.Descending {
			b.WriteString(" DESC")
		}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("%w: negative limit or offset", common.ErrorValidation)
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + a.add(q.Limit))
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET " + a.add(q.Offset))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), a...)
	if err != nil {
		return nil, mapError(err)
	}
	return scanRows(t, rows)
}

func (r *PostgresRepository) Insert(ctx context.Context, collection string, row dataservice.Row) (dataservice.Row, error) {
	t, err := lookup(collection)
	if err != nil {
		return nil, err
	}
	names, values, err := writable(t, row)
	if err != nil {
		return nil, err
	}

	var query string
	if len(names) == 0 {
		query = "INSERT INTO " + t.name + " DEFAULT VALUES RETURNING " + t.selectList()
	} else {
		var a args
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = a.add(v)
		}
		query = "INSERT INTO " + t.name + " (" + strings.Join(names, ", ") + ") VALUES (" +
			strings.Join(placeholders, ", ") + ") RETURNING " + t.selectList()
	}

	rows, err := r.db.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, mapError(err)
	}
	out, err := scanRows(t, rows)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: insert returned %d rows", common.ErrorInternal, len(out))
	}
	return out[0], nil
}

func (r *PostgresRepository) Update(ctx context.Context, collection string, filters []dataservice.Filter, values dataservice.Row) (int64, error) {
	t, err := lookup(collection)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: update without filters", common.ErrorValidation)
	}
	names, vals, err := writable(t, values)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, fmt.Errorf("%w: update without values", common.ErrorValidation)
	}

	var a args
	sets := make([]string, len(names))
	for i, name := range names {
		sets[i] = name + " = " + a.add(vals[i])
	}
	w, err := where(t, filters, &a)
	if err != nil {
		return 0, err
	}

	return r.exec(ctx, "UPDATE "+t.name+" SET "+strings.Join(sets, ", ")+w, a)
}

func (r *PostgresRepository) Delete(ctx context.Context, collection string, filters []dataservice.Filter) (int64, error) {
	t, err := lookup(collection)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: delete without filters", common.ErrorValidation)
	}

	var a args
	w, err := where(t, filters, &a)
	if err != nil {
		return 0, err
	}

	return r.exec(ctx, "DELETE FROM "+t.name+w, a)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, a args) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, a...)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	p, ok := r.db.(pinger)
	if !ok {
		return nil
	}
	if err := p.PingContext(ctx); err != nil {
		return mapError(err)
	}
	return nil
}
