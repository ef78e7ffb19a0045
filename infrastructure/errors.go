package infrastructure

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnauthenticated = status.Error(codes.Unauthenticated, "unauthenticated")
	ErrNotFound        = status.Error(codes.NotFound, "not found")
	ErrForbidden       = status.Error(codes.PermissionDenied, "forbidden")
	ErrConflict        = status.Error(codes.AlreadyExists, "conflict")
	ErrStorage         = status.Error(codes.Internal, "storage failure")
	ErrInvalidInput    = status.Error(codes.InvalidArgument, "invalid input")

	ErrMissingToken = errors.New("missing access token")
	ErrInvalidToken = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token has expired")
)

var taxonomy = []error{
	ErrUnauthenticated,
	ErrNotFound,
	ErrForbidden,
	ErrConflict,
	ErrInvalidInput,
	ErrStorage,
}

// Code resolves the taxonomy code carried by err. Errors outside the
// taxonomy are treated as internal.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	for _, sentinel := range taxonomy {
		if errors.Is(err, sentinel) {
			return status.Code(sentinel)
		}
	}
	if errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired) {
		return codes.Unauthenticated
	}
	return codes.Internal
}

func HTTPStatus(err error) int {
	switch Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.InvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Storage wraps a failed durable-store call so callers can match ErrStorage
// while the cause stays inspectable.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storageError{op: op, cause: err}
}

type storageError struct {
	op    string
	cause error
}

func (e *storageError) Error() string { return e.op + ": " + e.cause.Error() }

func (e *storageError) Unwrap() []error { return []error{ErrStorage, e.cause} }

// PublicMessage is the client-facing text for err. Internal causes are never
// exposed.
func PublicMessage(err error) string {
	for _, sentinel := range taxonomy {
		if errors.Is(err, sentinel) {
			if sentinel == ErrStorage {
				break
			}
			return status.Convert(sentinel).Message()
		}
	}
	switch {
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return err.Error()
	case Code(err) == codes.Unauthenticated:
		return "unauthenticated"
	}
	return "internal server error"
}
