package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/cryptox"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStatus maps repository errors to gRPC status codes. Unexpected errors
// are logged and reported without detail.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, dataservice.ErrMalformedMessage),
		errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrUnknownColumn),
		errors.Is(err, common.ErrUnknownCollect):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrForbidden):
		s.logger.Warn(ctx, "data service call denied", "method", method, "role", RoleFromContext(ctx), "error", err)
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	s.logger.Error(ctx, "data service call failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) Select(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	q, err := dataservice.DecodeQuery(req)
	if err != nil {
		return nil, s.toStatus(ctx, "Select", err)
	}

	rows, err := s.repo.Select(ctx, q)
	if err != nil {
		return nil, s.toStatus(ctx, "Select", err)
	}
	stripHidden(q.Collection, rows...)

	resp, err := dataservice.EncodeRows(rows)
	if err != nil {
		return nil, s.toStatus(ctx, "Select", err)
	}
	return resp, nil
}

func (s *GRPCServer) Insert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	mu, err := dataservice.DecodeMutation(req)
	if err != nil {
		return nil, s.toStatus(ctx, "Insert", err)
	}

	if err := checkAdminColumns(ctx, mu.Collection, mu.Values); err != nil {
		return nil, s.toStatus(ctx, "Insert", err)
	}
	if err := checkInsertScore(ctx, mu.Collection, mu.Values); err != nil {
		return nil, s.toStatus(ctx, "Insert", err)
	}

	row, err := s.repo.Insert(ctx, mu.Collection, mu.Values)
	if err != nil {
		return nil, s.toStatus(ctx, "Insert", err)
	}
	stripHidden(mu.Collection, row)

	s.logger.Debug(ctx, "row inserted", "collection", mu.Collection, "id", row["id"])

	resp, err := dataservice.EncodeRow(row)
	if err != nil {
		return nil, s.toStatus(ctx, "Insert", err)
	}
	return resp, nil
}

func (s *GRPCServer) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	mu, err := dataservice.DecodeMutation(req)
	if err != nil {
		return nil, s.toStatus(ctx, "Update", err)
	}

	if err := checkAdminColumns(ctx, mu.Collection, mu.Values); err != nil {
		return nil, s.toStatus(ctx, "Update", err)
	}
	if err := s.checkUpdateScore(ctx, mu.Collection, mu.Filters, mu.Values); err != nil {
		return nil, s.toStatus(ctx, "Update", err)
	}

	n, err := s.repo.Update(ctx, mu.Collection, mu.Filters, mu.Values)
	if err != nil {
		return nil, s.toStatus(ctx, "Update", err)
	}

	resp, err := dataservice.EncodeAffected(n)
	if err != nil {
		return nil, s.toStatus(ctx, "Update", err)
	}
	return resp, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	mu, err := dataservice.DecodeMutation(req)
	if err != nil {
		return nil, s.toStatus(ctx, "Delete", err)
	}

	n, err := s.repo.Delete(ctx, mu.Collection, mu.Filters)
	if err != nil {
		return nil, s.toStatus(ctx, "Delete", err)
	}

	resp, err := dataservice.EncodeAffected(n)
	if err != nil {
		return nil, s.toStatus(ctx, "Delete", err)
	}
	return resp, nil
}

// Ping reports OK only when the database answers.
func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "database ping failed", "error", err)
		return nil, status.Error(codes.Unavailable, "database unavailable")
	}
	return structpb.NewStruct(map[string]any{"status": "OK"})
}

// Authenticate checks a password against the stored hash so the hash never
// leaves the server. Unknown email and wrong password both answer NotFound.
func (s *GRPCServer) Authenticate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email, password, err := dataservice.DecodeCredentials(req)
	if err != nil {
		return nil, s.toStatus(ctx, "Authenticate", err)
	}

	rows, err := s.repo.Select(ctx, dataservice.Query{
		Collection: dataservice.CollectionUsers,
		Filters:    []dataservice.Filter{dataservice.Eq("email", common.NormalizeEmail(email))},
		Limit:      1,
	})
	if err != nil {
		return nil, s.toStatus(ctx, "Authenticate", err)
	}
	if len(rows) == 0 {
		return nil, s.toStatus(ctx, "Authenticate", common.ErrorNotFound)
	}

	hash, _ := rows[0]["password_hash"].(string)
	ok, err := cryptox.VerifyPassword(hash, []byte(password))
	if err != nil {
		return nil, s.toStatus(ctx, "Authenticate", err)
	}
	if !ok {
		return nil, s.toStatus(ctx, "Authenticate", common.ErrorNotFound)
	}

	stripHidden(dataservice.CollectionUsers, rows[0])
	resp, err := dataservice.EncodeRow(rows[0])
	if err != nil {
		return nil, s.toStatus(ctx, "Authenticate", err)
	}
	return resp, nil
}
