package fleet

import (
	"errors"
	"strings"

	"fleetops-service/internal/model"
)

var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
)

type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindValidationFailed   ErrorKind = "ValidationFailed"
	KindPreconditionFailed ErrorKind = "PreconditionFailed"
	KindInvalidTransition  ErrorKind = "InvalidTransition"
	KindForbidden          ErrorKind = "Forbidden"
	KindConflict           ErrorKind = "Conflict"
	KindNotFound           ErrorKind = "NotFound"
	KindInternal           ErrorKind = "Internal"
)

// KindOf maps an error returned by this package to its kind. Errors from
// outside the taxonomy are reported as KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidationFailed):
		return KindValidationFailed
	case errors.Is(err, ErrPreconditionFailed):
		return KindPreconditionFailed
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Retryable reports whether the caller may retry after re-reading the snapshot.
func (k ErrorKind) Retryable() bool {
	return k == KindConflict
}

// ValidationError carries the field violations that rejected an entity.
type ValidationError struct {
	Violations []model.FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func validationError(vs []model.FieldViolation) error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: vs}
}
