package dataservice

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeServer struct {
	lastKey   string
	lastQuery Query
	lastMut   Mutation
	rows      []Row
	err       error
	pingState string
}

func (f *fakeServer) key(ctx context.Context) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(common.AuthorizationHeaderName); len(v) > 0 {
			f.lastKey = v[0]
		}
	}
}

func (f *fakeServer) Select(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.key(ctx)
	if f.err != nil {
		return nil, f.err
	}
	q, err := DecodeQuery(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.lastQuery = q
	return EncodeRows(f.rows)
}

func (f *fakeServer) Insert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.key(ctx)
	if f.err != nil {
		return nil, f.err
	}
	mu, err := DecodeMutation(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.lastMut = mu
	out := Row{"id": "generated"}
	for k, v := range mu.Values {
		out[k] = v
	}
	return EncodeRow(out)
}

func (f *fakeServer) Update(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.key(ctx)
	if f.err != nil {
		return nil, f.err
	}
	mu, err := DecodeMutation(in)
	if err != nil {
		return nil, err
	}
	f.lastMut = mu
	return EncodeAffected(1)
}

func (f *fakeServer) Delete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.key(ctx)
	if f.err != nil {
		return nil, f.err
	}
	mu, err := DecodeMutation(in)
	if err != nil {
		return nil, err
	}
	f.lastMut = mu
	return EncodeAffected(2)
}

func (f *fakeServer) Ping(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"status": f.pingState})
}

func (f *fakeServer) Authenticate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.key(ctx)
	if f.err != nil {
		return nil, f.err
	}
	email, password, err := DecodeCredentials(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if password != "pw" {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return EncodeRow(Row{"id": "u1", "email": email})
}

func newBufClient(t *testing.T, srv DataServiceServer) *GRPCClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	RegisterDataServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	c, err := NewGRPCClient("passthrough:///bufnet", "svc-key", time.Second, grpc.WithContextDialer(dialer))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_Select(t *testing.T) {
	f := &fakeServer{rows: []Row{{"id": "u1", "prestige_score": int64(10)}}}
	c := newBufClient(t, f)

	rows, err := c.Select(context.Background(), Query{Collection: CollectionUsers, Filters: []Filter{Eq("email", "a@b.c")}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0]["id"])
	assert.Equal(t, float64(10), rows[0]["prestige_score"])

	assert.Equal(t, "svc-key", f.lastKey)
	assert.Equal(t, CollectionUsers, f.lastQuery.Collection)
	assert.Equal(t, 1, f.lastQuery.Limit)
}

func TestGRPCClient_InsertUpdateDelete(t *testing.T) {
	f := &fakeServer{}
	c := newBufClient(t, f)
	ctx := context.Background()

	row, err := c.Insert(ctx, CollectionUsers, Row{"email": "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "generated", row["id"])
	assert.Equal(t, "a@b.c", row["email"])

	n, err := c.Update(ctx, CollectionUsers, []Filter{Eq("id", "u1")}, Row{"avatar_url": "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "x", f.lastMut.Values["avatar_url"])

	n, err = c.Delete(ctx, CollectionSessions, []Filter{Eq("token_hash", "h")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, CollectionSessions, f.lastMut.Collection)
}

func TestGRPCClient_Ping(t *testing.T) {
	f := &fakeServer{pingState: "OK"}
	c := newBufClient(t, f)
	require.NoError(t, c.Ping(context.Background()))

	f.pingState = "DEGRADED"
	assert.ErrorIs(t, c.Ping(context.Background()), common.ErrStoreUnavailable)
}

func TestGRPCClient_Authenticate(t *testing.T) {
	f := &fakeServer{}
	c := newBufClient(t, f)
	ctx := context.Background()

	row, err := c.Authenticate(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", row["id"])
	assert.Equal(t, "a@b.c", row["email"])
	assert.Equal(t, "svc-key", f.lastKey)

	_, err = c.Authenticate(ctx, "a@b.c", "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = c.Authenticate(ctx, "", "pw")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestGRPCClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		code codes.Code
		want error
	}{
		{codes.AlreadyExists, common.ErrAlreadyExists},
		{codes.NotFound, common.ErrorNotFound},
		{codes.Unauthenticated, common.ErrInvalidToken},
		{codes.PermissionDenied, common.ErrForbidden},
		{codes.InvalidArgument, common.ErrorValidation},
		{codes.Unavailable, common.ErrStoreUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.code.String(), func(t *testing.T) {
			f := &fakeServer{err: status.Error(tc.code, "boom")}
			c := newBufClient(t, f)
			_, err := c.Select(context.Background(), Query{Collection: CollectionUsers})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMapError_Other(t *testing.T) {
	assert.Nil(t, mapError(nil))

	err := mapError(status.Error(codes.Internal, "x"))
	assert.Contains(t, err.Error(), "rpc error")

	err = mapError(context.DeadlineExceeded)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}
