package dataservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const DefaultCallTimeout = 10 * time.Second

type GRPCClient struct {
	endpointURL string
	serviceKey  string
	timeout     time.Duration
	conn        *grpc.ClientConn
}

var _ Client = (*GRPCClient)(nil)

// NewGRPCClient dials endpointURL lazily. serviceKey is sent as the
// authorization metadata on every call.
func NewGRPCClient(endpointURL, serviceKey string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	c := &GRPCClient{endpointURL: endpointURL, serviceKey: serviceKey, timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.serviceKeyInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func withServiceKey(ctx context.Context, key string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, key)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) serviceKeyInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.serviceKey != "" {
		ctx = withServiceKey(ctx, c.serviceKey)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) Select(ctx context.Context, q Query) ([]Row, error) {
	req, err := EncodeQuery(q)
	if err != nil {
		return nil, err
	}
	resp, err := c.invoke(ctx, MethodSelect, req)
	if err != nil {
		return nil, err
	}
	return DecodeRows(resp)
}

func (c *GRPCClient) Insert(ctx context.Context, collection string, row Row) (Row, error) {
	req, err := EncodeMutation(Mutation{Collection: collection, Values: row})
	if err != nil {
		return nil, err
	}
	resp, err := c.invoke(ctx, MethodInsert, req)
	if err != nil {
		return nil, err
	}
	return DecodeRow(resp)
}

func (c *GRPCClient) Update(ctx context.Context, collection string, filters []Filter, values Row) (int64, error) {
	req, err := EncodeMutation(Mutation{Collection: collection, Filters: filters, Values: values})
	if err != nil {
		return 0, err
	}
	resp, err := c.invoke(ctx, MethodUpdate, req)
	if err != nil {
		return 0, err
	}
	return DecodeAffected(resp)
}

func (c *GRPCClient) Delete(ctx context.Context, collection string, filters []Filter) (int64, error) {
	req, err := EncodeMutation(Mutation{Collection: collection, Filters: filters})
	if err != nil {
		return 0, err
	}
	resp, err := c.invoke(ctx, MethodDelete, req)
	if err != nil {
		return 0, err
	}
	return DecodeAffected(resp)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.invoke(ctx, MethodPing, &structpb.Struct{})
	if err != nil {
		return err
	}
	if s, _ := resp.AsMap()["status"].(string); s != "OK" {
		return common.ErrStoreUnavailable
	}
	return nil
}

func (c *GRPCClient) Authenticate(ctx context.Context, email, password string) (Row, error) {
	req, err := EncodeCredentials(email, password)
	if err != nil {
		return nil, err
	}
	resp, err := c.invoke(ctx, MethodAuthenticate, req)
	if err != nil {
		return nil, err
	}
	return DecodeRow(resp)
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", common.ErrStoreUnavailable, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", common.ErrInvalidToken, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrForbidden, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
