package api

import (
	"context"
	"errors"

	"github.com/solatis/shelfwright/internal/codec"
	"github.com/solatis/shelfwright/internal/core/db"
	"github.com/solatis/shelfwright/internal/types"
	"github.com/solatis/shelfwright/internal/workspace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Auth errors are mapped in the auth interceptor.
var (
	notFound = []error{
		types.ErrUnknownRod,
		types.ErrUnknownPlate,
		db.ErrNotFound,
		errSessionNotFound,
	}
	invalidArgument = []error{
		types.ErrUnknownSKU,
		types.ErrInvalidDirection,
		codec.ErrInvalidDesign,
		codec.ErrUnsupportedVersion,
	}
	failedPrecondition = []error{
		types.ErrRodCount,
		types.ErrUnsortedRods,
		types.ErrSpanMismatch,
		types.ErrNoAttachment,
		types.ErrAttachmentOccupied,
		types.ErrNoMatchingSKU,
		types.ErrNoAdjacentRod,
		types.ErrNotAdjacent,
		types.ErrHeightMismatch,
		types.ErrNotStacked,
		types.ErrRodOverlap,
		types.ErrAttachmentLost,
		types.ErrIllegalGhost,
		workspace.ErrNothingToUndo,
		workspace.ErrNothingToRedo,
		errNoStore,
	}
)

// toStatus maps domain errors onto gRPC codes. Errors that already carry a
// status pass through unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, errTooManySessions):
		return status.Error(codes.ResourceExhausted, err.Error())
	case isAny(err, notFound):
		return status.Error(codes.NotFound, err.Error())
	case isAny(err, invalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case isAny(err, failedPrecondition):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	// Invariant violations and store failures.
	return status.Error(codes.Internal, err.Error())
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
