package core

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Every error returned by storage and services wraps exactly one
// of these so callers can classify it with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrReferentialConflict = errors.New("referential conflict")
	ErrStorage             = errors.New("storage error")
	ErrTimeout             = errors.New("request timed out")
)

// Kind names used in API envelopes and log fields.
const (
	KindValidation = "validation_error"
	KindNotFound   = "not_found_error"
	KindConflict   = "conflict_error"
	KindStorage    = "storage_error"
	KindTimeout    = "timeout_error"
	KindCanceled   = "canceled_error"
	KindInternal   = "internal_error"
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrReferentialConflict, fmt.Sprintf(format, args...))
}

// StorageErr wraps an underlying driver error. A nil err yields nil.
func StorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// KindOf classifies err. Context deadline errors count as timeouts; a
// cancelled context means the caller went away.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrReferentialConflict):
		return KindConflict
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}
