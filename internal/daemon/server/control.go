package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/easycue/easycue/internal/control"
	"github.com/easycue/easycue/internal/daemon/supervisor"
	"github.com/easycue/easycue/internal/models"
)

type controlService struct {
	ctrl Controller
}

var _ control.ServiceControlServer = (*controlService)(nil)

func (s *controlService) StartService(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return stringResult(s.ctrl.Start())
}

func (s *controlService) StopService(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return stringResult(s.ctrl.Stop())
}

func (s *controlService) ToggleService(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return stringResult(s.ctrl.Toggle())
}

func (s *controlService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	info, err := control.EncodeInfo(s.ctrl.Snapshot())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return info, nil
}

func (s *controlService) CopyAddress(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(models.ServiceAddress), nil
}

func stringResult(msg string, err error) (*wrapperspb.StringValue, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(msg), nil
}

// toStatus maps supervisor errors to gRPC status codes.
func toStatus(err error) error {
	var spawnErr *supervisor.SpawnError
	var termErr *supervisor.TerminateError

	switch {
	case errors.As(err, &spawnErr):
		return status.Error(codes.Unavailable, err.Error())
	case errors.As(err, &termErr):
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, supervisor.ErrShutdown):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}
