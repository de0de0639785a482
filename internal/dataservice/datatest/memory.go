// Package datatest provides an in-memory dataservice.Client for tests. Rows
// pass through the wire codec, so callers see exactly the value shapes a
// real GRPCClient returns.
package datatest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/cryptox"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/google/uuid"
)

var uniqueColumns = map[string][]string{
	dataservice.CollectionUsers:    {"email"},
	dataservice.CollectionSessions: {"token_hash"},
	dataservice.CollectionWaitlist: {"email"},
}

type Memory struct {
	mu     sync.Mutex
	tables map[string][]dataservice.Row
	closed bool

	// Err, when set, is returned by every call.
	Err error
	// Calls counts calls per method name.
	Calls map[string]int
}

var _ dataservice.Client = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{tables: map[string][]dataservice.Row{}, Calls: map[string]int{}}
}

// wire passes a row through the structpb codec.
func wire(r dataservice.Row) dataservice.Row {
	s, err := dataservice.EncodeRow(r)
	if err != nil {
		panic(err)
	}
	out, err := dataservice.DecodeRow(s)
	if err != nil {
		panic(err)
	}
	return out
}

func key(v any) string {
	return fmt.Sprint(dataservice.Normalize(v))
}

func matches(r dataservice.Row, filters []dataservice.Filter) bool {
	for _, f := range filters {
		v, ok := r[f.Column]
		if !ok || key(v) != key(f.Value) {
			return false
		}
	}
	return true
}

func (m *Memory) begin(method string) error {
	m.Calls[method]++
	if m.closed {
		return common.ErrStoreUnavailable
	}
	return m.Err
}

func (m *Memory) Select(ctx context.Context, q dataservice.Query) ([]dataservice.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Select"); err != nil {
		return nil, err
	}

	var out []dataservice.Row
	for _, r := range m.tables[q.Collection] {
		if matches(r, q.Filters) {
			out = append(out, wire(r))
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			less := key(out[i][q.OrderBy]) < key(out[j][q.OrderBy])
			if q.Descending {
				return !less
			}
			return less
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, collection string, row dataservice.Row) (dataservice.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Insert"); err != nil {
		return nil, err
	}

	r := wire(row)
	if _, ok := r["id"]; !ok {
		r["id"] = uuid.NewString()
	}
	if _, ok := r["created_at"]; !ok {
		r["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if collection == dataservice.CollectionUsers {
		if _, ok := r["role"]; !ok {
			r["role"] = "member"
		}
		if _, ok := r["is_admin"]; !ok {
			r["is_admin"] = false
		}
	}

	for _, col := range uniqueColumns[collection] {
		for _, existing := range m.tables[collection] {
			if key(existing[col]) == key(r[col]) {
				return nil, fmt.Errorf("%w: %s.%s", common.ErrAlreadyExists, collection, col)
			}
		}
	}

	m.tables[collection] = append(m.tables[collection], r)
	return wire(r), nil
}

func (m *Memory) Update(ctx context.Context, collection string, filters []dataservice.Filter, values dataservice.Row) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Update"); err != nil {
		return 0, err
	}

	values = wire(values)
	var n int64
	for _, r := range m.tables[collection] {
		if !matches(r, filters) {
			continue
		}
		for k, v := range values {
			r[k] = v
		}
		n++
	}
	return n, nil
}

func (m *Memory) Delete(ctx context.Context, collection string, filters []dataservice.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Delete"); err != nil {
		return 0, err
	}

	kept := m.tables[collection][:0]
	var n int64
	for _, r := range m.tables[collection] {
		if matches(r, filters) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.tables[collection] = kept
	return n, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begin("Ping")
}

func (m *Memory) Authenticate(ctx context.Context, email, password string) (dataservice.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Authenticate"); err != nil {
		return nil, err
	}

	for _, r := range m.tables[dataservice.CollectionUsers] {
		if key(r["email"]) != key(email) {
			continue
		}
		hash, _ := r["password_hash"].(string)
		ok, err := cryptox.VerifyPassword(hash, []byte(password))
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out := wire(r)
		delete(out, "password_hash")
		return out, nil
	}
	return nil, common.ErrorNotFound
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Rows returns a snapshot of a collection.
func (m *Memory) Rows(collection string) []dataservice.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dataservice.Row, 0, len(m.tables[collection]))
	for _, r := range m.tables[collection] {
		out = append(out, wire(r))
	}
	return out
}

// SetErr sets the injected failure.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
