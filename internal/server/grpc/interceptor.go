package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/dmitrijs2005/prestigeforum/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const roleKey ctxKey = "role"

// RoleFromContext returns the role of the service key that authorized the
// call, or "" for unauthenticated methods.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// serviceKeyInterceptor requires a valid service key on every method except
// Ping. The key may be sent bare or with a "Bearer " prefix.
func (s *GRPCServer) serviceKeyInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if info.FullMethod == dataservice.MethodPing {
		return handler(ctx, req)
	}

	var key string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			key = strings.TrimSpace(strings.TrimPrefix(values[0], "Bearer "))
		}
	}
	if len(key) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing service key")
	}

	role, err := auth.GetRoleFromToken(key, s.jwtSecret)
	if err != nil {
		s.logger.Warn(ctx, "service key rejected", "method", info.FullMethod, "error", err)
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "service key expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid service key")
	}

	return handler(context.WithValue(ctx, roleKey, role), req)
}
