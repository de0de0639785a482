package dataservice

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrMalformedMessage = errors.New("malformed data service message")

// Mutation is the decoded form of Insert, Update and Delete requests.
type Mutation struct {
	Collection string
	Filters    []Filter
	Values     Row
}

// Normalize converts database values into types structpb accepts.
func Normalize(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(t)
	case [16]byte:
		return uuid.UUID(t).String()
	case uuid.UUID:
		return t.String()
	case int:
		return int64(t)
	case Row:
		return map[string]any(normalizeRow(t))
	case map[string]any:
		return map[string]any(normalizeRow(t))
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Normalize(t[i])
		}
		return out
	default:
		return v
	}
}

func normalizeRow(r map[string]any) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = Normalize(v)
	}
	return out
}

func encodeFilters(filters []Filter) []any {
	out := make([]any, 0, len(filters))
	for _, f := range filters {
		out = append(out, map[string]any{"column": f.Column, "value": Normalize(f.Value)})
	}
	return out
}

func decodeFilters(raw any) ([]Filter, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: filters", ErrMalformedMessage)
	}
	filters := make([]Filter, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: filter", ErrMalformedMessage)
		}
		col, ok := m["column"].(string)
		if !ok || col == "" {
			return nil, fmt.Errorf("%w: filter column", ErrMalformedMessage)
		}
		filters = append(filters, Filter{Column: col, Value: m["value"]})
	}
	return filters, nil
}

func collectionOf(m map[string]any) (string, error) {
	c, ok := m["collection"].(string)
	if !ok || c == "" {
		return "", fmt.Errorf("%w: collection", ErrMalformedMessage)
	}
	return c, nil
}

func intOf(m map[string]any, key string) int {
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}

func EncodeQuery(q Query) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"collection": q.Collection,
		"filters":    encodeFilters(q.Filters),
		"order_by":   q.OrderBy,
		"descending": q.Descending,
		"limit":      q.Limit,
		"offset":     q.Offset,
	})
}

func DecodeQuery(s *structpb.Struct) (Query, error) {
	m := s.AsMap()
	c, err := collectionOf(m)
	if err != nil {
		return Query{}, err
	}
	filters, err := decodeFilters(m["filters"])
	if err != nil {
		return Query{}, err
	}
	q := Query{Collection: c, Filters: filters, Limit: intOf(m, "limit"), Offset: intOf(m, "offset")}
	q.OrderBy, _ = m["order_by"].(string)
	q.Descending, _ = m["descending"].(bool)
	if q.Limit < 0 || q.Offset < 0 {
		return Query{}, fmt.Errorf("%w: negative limit/offset", ErrMalformedMessage)
	}
	return q, nil
}

func EncodeMutation(mu Mutation) (*structpb.Struct, error) {
	m := map[string]any{
		"collection": mu.Collection,
		"filters":    encodeFilters(mu.Filters),
	}
	if mu.Values != nil {
		m["values"] = map[string]any(normalizeRow(mu.Values))
	}
	return structpb.NewStruct(m)
}

func DecodeMutation(s *structpb.Struct) (Mutation, error) {
	m := s.AsMap()
	c, err := collectionOf(m)
	if err != nil {
		return Mutation{}, err
	}
	filters, err := decodeFilters(m["filters"])
	if err != nil {
		return Mutation{}, err
	}
	mu := Mutation{Collection: c, Filters: filters}
	if raw, ok := m["values"]; ok && raw != nil {
		values, ok := raw.(map[string]any)
		if !ok {
			return Mutation{}, fmt.Errorf("%w: values", ErrMalformedMessage)
		}
		mu.Values = values
	}
	return mu, nil
}

func EncodeRows(rows []Row) (*structpb.Struct, error) {
	list := make([]any, 0, len(rows))
	for _, r := range rows {
		list = append(list, map[string]any(normalizeRow(r)))
	}
	return structpb.NewStruct(map[string]any{"rows": list})
}

func DecodeRows(s *structpb.Struct) ([]Row, error) {
	raw, ok := s.AsMap()["rows"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: rows", ErrMalformedMessage)
	}
	rows := make([]Row, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: row", ErrMalformedMessage)
		}
		rows = append(rows, m)
	}
	return rows, nil
}

func EncodeRow(r Row) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"row": map[string]any(normalizeRow(r))})
}

func DecodeRow(s *structpb.Struct) (Row, error) {
	m, ok := s.AsMap()["row"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: row", ErrMalformedMessage)
	}
	return m, nil
}

func EncodeAffected(n int64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"affected": n})
}

func DecodeAffected(s *structpb.Struct) (int64, error) {
	f, ok := s.AsMap()["affected"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: affected", ErrMalformedMessage)
	}
	return int64(f), nil
}

// EncodeCredentials builds the Authenticate request.
func EncodeCredentials(email, password string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"email": email, "password": password})
}

func DecodeCredentials(s *structpb.Struct) (email, password string, err error) {
	m := s.AsMap()
	email, _ = m["email"].(string)
	password, _ = m["password"].(string)
	if email == "" {
		return "", "", fmt.Errorf("%w: email", ErrMalformedMessage)
	}
	return email, password, nil
}
