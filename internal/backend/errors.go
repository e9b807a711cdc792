package backend

import (
	"errors"

	"github.com/dshills/dashflow/internal/model"
)

// Kind classifies backend failures.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
)

// Error is returned by every Backend implementation.
type Error struct {
	Kind Kind

	// Op is the backend operation, e.g. "GetDashboard".
	Op string

	// Ref is the object the operation addressed, if any.
	Ref model.Ref

	// Err is the underlying cause. It may be nil.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := "backend: " + e.Op + ": " + string(e.Kind)
	if !e.Ref.IsZero() {
		msg += " " + e.Ref.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a backend error.
func NewError(kind Kind, op string, ref model.Ref, err error) *Error {
	return &Error{Kind: kind, Op: op, Ref: ref, Err: err}
}

// KindOf returns the kind of a backend error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsNotFound returns true if err is a not-found backend error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAuth returns true if err is an authentication backend error.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsValidation returns true if err is a validation backend error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNetwork returns true if err is a network backend error.
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }
