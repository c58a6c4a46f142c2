package catalog

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// Result is the outcome of a Service call. Message is always set and is fit
// to show to a user. Err is nil on success and otherwise wraps one of the
// sentinel errors in pkg/types.
type Result[T any] struct {
	Value   T
	Message string
	Err     error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// msgUnavailable replaces the message of every storage fault.
const msgUnavailable = "the catalog is temporarily unavailable, try again later"

// domainErrors are the failures a caller can act on. Anything else is a
// storage fault.
var domainErrors = []error{
	types.ErrDuplicateUsername,
	types.ErrMissingRequiredField,
	types.ErrNotFound,
	types.ErrPermissionDenied,
	types.ErrMalformedRow,
	types.ErrInvalidRole,
	types.ErrLastAdmin,
	types.ErrSessionClosed,
	types.ErrInvalidPassword,
	ErrUnsupportedFormat,
}

func isFault(err error) bool {
	if errors.Is(err, types.ErrStorageUnavailable) {
		return true
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return false
		}
	}
	return true
}

func succeeded[T any](v T, format string, args ...any) Result[T] {
	return Result[T]{Value: v, Message: fmt.Sprintf(format, args...)}
}

// fail builds a failure result carrying v. Storage faults are logged at
// error level and their message is replaced by a generic one; denials are
// logged at warn level.
func fail[T any](log zerolog.Logger, v T, err error) Result[T] {
	switch {
	case isFault(err):
		log.Error().Err(err).Msg("storage fault")
		if !errors.Is(err, types.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
		}
		return Result[T]{Value: v, Message: msgUnavailable, Err: err}
	case errors.Is(err, types.ErrPermissionDenied):
		log.Warn().Err(err).Msg("denied")
	default:
		log.Debug().Err(err).Msg("rejected")
	}
	return Result[T]{Value: v, Message: err.Error(), Err: err}
}

// denied wraps types.ErrPermissionDenied with the action that was refused.
func denied(action string) error {
	return fmt.Errorf("%w: %s", types.ErrPermissionDenied, action)
}
