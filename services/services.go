// Package services holds the gRPC service implementations of metal-server
package services

import (
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
)

type MetaObject interface {
	GetMeta() *types.Meta
}

type Service interface {
	Register(*grpc.Server) error
}

var ErrNoName = errors.New("object has no name")

// EnsureMeta stamps timestamps and bumps the revision of entity before it is saved
func EnsureMeta(entity MetaObject) error {
	if entity.GetMeta() == nil {
		return ErrNoName
	}
	entity.GetMeta().Touch(time.Now().UTC())
	return nil
}

// HandleError logs err and converts it into a gRPC status error. Errors that
// already carry a status code keep it.
func HandleError(log logger.Logger, err error, msg string, keysAndValues ...any) error {
	def := []any{"error", err.Error()}
	def = append(def, keysAndValues...)
	log.Error(msg, def...)
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, repository.ErrConflict) {
		return status.Error(codes.Aborted, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
