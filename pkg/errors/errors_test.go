package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/pkg/repository"
)

func Test_RepositoryNotFound(t *testing.T) {
	tests := []struct {
		name   string
		expect error
		input  func() error
	}{
		{
			name:   "in-memory repo should return not found error",
			expect: repository.ErrNotFound,
			input: func() error {
				zoneStore := repository.NewZoneInMemRepo()
				_, err := zoneStore.Get(context.Background(), "non-existent-zone")
				return err
			},
		},
		{
			name:   "badger repo should return not found error",
			expect: repository.ErrNotFound,
			input: func() error {
				db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
				if err != nil {
					return err
				}
				defer db.Close()
				nodeStore := repository.NewNodeBadgerRepository(db)
				_, err = nodeStore.Get(context.Background(), "non-existent-node")
				return err
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.ErrorIs(t, test.input(), test.expect, test.name)
		})
	}
}

func Test_StatusCodes(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{name: "not found", err: status.Error(codes.NotFound, "x"), check: IsNotFound, want: true},
		{name: "already exists", err: status.Error(codes.AlreadyExists, "x"), check: IsAlreadyExists, want: true},
		{name: "invalid argument", err: status.Error(codes.InvalidArgument, "x"), check: IsInvalidArgument, want: true},
		{name: "failed precondition", err: status.Error(codes.FailedPrecondition, "x"), check: IsFailedPrecondition, want: true},
		{name: "wrong code", err: status.Error(codes.Internal, "x"), check: IsNotFound, want: false},
		{name: "plain error", err: errors.New("x"), check: IsNotFound, want: false},
		{name: "nil error", err: nil, check: IsInvalidArgument, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func Test_Message(t *testing.T) {
	assert.Equal(t, "zone missing", Message(status.Error(codes.NotFound, "zone missing")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "", Message(nil))
}
