package transport

import (
	"context"
	"errors"

	"github.com/signalsfoundry/radar-track-ingest/protocol"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrEmptyFrame is returned when a submission carries no bytes.
var ErrEmptyFrame = errors.New("empty frame")

// ToStatusError maps ingest errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrEmptyFrame),
		errors.Is(err, protocol.ErrFrameTooShort),
		errors.Is(err, protocol.ErrTargetCount),
		errors.Is(err, protocol.ErrFrameTruncated):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
