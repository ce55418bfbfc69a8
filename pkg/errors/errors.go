// Package errors inspects gRPC status errors returned by the metal services
package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func hasCode(err error, code codes.Code) bool {
	if err == nil {
		return false
	}
	if st, ok := status.FromError(err); ok {
		return st.Code() == code
	}
	return false
}

func IsNotFound(err error) bool {
	return hasCode(err, codes.NotFound)
}

func IsAlreadyExists(err error) bool {
	return hasCode(err, codes.AlreadyExists)
}

func IsInvalidArgument(err error) bool {
	return hasCode(err, codes.InvalidArgument)
}

func IsFailedPrecondition(err error) bool {
	return hasCode(err, codes.FailedPrecondition)
}

// Message returns the status message of err, or err.Error() for non-status errors
func Message(err error) string {
	if err == nil {
		return ""
	}
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	return err.Error()
}
