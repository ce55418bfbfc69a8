package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect codes.Code
	}{
		{name: "not found", err: fmt.Errorf("node: %w", repository.ErrNotFound), expect: codes.NotFound},
		{name: "conflict", err: fmt.Errorf("node: %w", repository.ErrConflict), expect: codes.Aborted},
		{name: "status kept", err: status.Error(codes.InvalidArgument, "bad"), expect: codes.InvalidArgument},
		{name: "other", err: errors.New("disk full"), expect: codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleError(&logger.DevNullLogger{}, tt.err, "failed")
			assert.Equal(t, tt.expect, status.Code(err))
		})
	}
}
