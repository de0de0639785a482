package dataservice

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestQuery_EncodeDecode(t *testing.T) {
	q := Query{
		Collection: CollectionUsers,
		Filters:    []Filter{Eq("email", "a@b.c"), Eq("is_admin", true)},
		OrderBy:    "created_at",
		Descending: true,
		Limit:      10,
		Offset:     5,
	}
	s, err := EncodeQuery(q)
	require.NoError(t, err)

	got, err := DecodeQuery(s)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestDecodeQuery_Errors(t *testing.T) {
	cases := map[string]map[string]any{
		"missing collection": {"filters": []any{}},
		"filter not object":  {"collection": "users", "filters": []any{"x"}},
		"empty column":       {"collection": "users", "filters": []any{map[string]any{"column": ""}}},
		"negative limit":     {"collection": "users", "limit": -1},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := structpb.NewStruct(m)
			require.NoError(t, err)
			_, err = DecodeQuery(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedMessage))
		})
	}
}

func TestMutation_EncodeDecode(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mu := Mutation{
		Collection: CollectionUsers,
		Filters:    []Filter{Eq("id", "u1")},
		Values:     Row{"prestige_score": int64(42), "updated_at": ts},
	}
	s, err := EncodeMutation(mu)
	require.NoError(t, err)

	got, err := DecodeMutation(s)
	require.NoError(t, err)
	assert.Equal(t, CollectionUsers, got.Collection)
	assert.Equal(t, []Filter{{Column: "id", Value: "u1"}}, got.Filters)
	assert.Equal(t, float64(42), got.Values["prestige_score"])
	assert.Equal(t, "2024-03-01T12:00:00Z", got.Values["updated_at"])
}

func TestDecodeMutation_NoValues(t *testing.T) {
	s, err := EncodeMutation(Mutation{Collection: CollectionSessions, Filters: []Filter{Eq("token_hash", "h")}})
	require.NoError(t, err)

	got, err := DecodeMutation(s)
	require.NoError(t, err)
	assert.Nil(t, got.Values)
}

func TestNormalize(t *testing.T) {
	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	assert.Equal(t, id.String(), Normalize([16]byte(id)))
	assert.Equal(t, id.String(), Normalize(id))
	assert.Equal(t, "raw", Normalize([]byte("raw")))
	assert.Equal(t, int64(3), Normalize(3))

	var nilTime *time.Time
	assert.Nil(t, Normalize(nilTime))

	nested := Normalize(map[string]any{"at": time.Unix(0, 0)}).(map[string]any)
	assert.Equal(t, "1970-01-01T00:00:00Z", nested["at"])
}

func TestRows_EncodeDecode(t *testing.T) {
	s, err := EncodeRows([]Row{{"id": "a"}, {"id": "b", "n": int64(2)}})
	require.NoError(t, err)

	rows, err := DecodeRows(s)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1]["id"])
	assert.Equal(t, float64(2), rows[1]["n"])

	_, err = DecodeRows(&structpb.Struct{})
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestRowAndAffected(t *testing.T) {
	s, err := EncodeRow(Row{"id": "x"})
	require.NoError(t, err)
	r, err := DecodeRow(s)
	require.NoError(t, err)
	assert.Equal(t, "x", r["id"])

	s, err = EncodeAffected(7)
	require.NoError(t, err)
	n, err := DecodeAffected(s)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = DecodeAffected(&structpb.Struct{})
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestCredentials(t *testing.T) {
	s, err := EncodeCredentials("a@b.c", "secret")
	require.NoError(t, err)
	email, password, err := DecodeCredentials(s)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", email)
	assert.Equal(t, "secret", password)

	_, _, err = DecodeCredentials(&structpb.Struct{})
	assert.ErrorIs(t, err, ErrMalformedMessage)
}
