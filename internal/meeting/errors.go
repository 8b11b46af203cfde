package meeting

import "errors"

// Kind is the semantic category of a lifecycle error
type Kind int

const (
	KindInternal      Kind = iota // unexpected store or broker failure
	KindValidation                // malformed or out-of-bounds input
	KindNotFound                  // meeting or participant absent
	KindForbidden                 // caller is not the host
	KindUnauthorized              // operation needs an authenticated caller
	KindConflict                  // state already reached, e.g. participant already left
	KindCodeExhausted             // no free room code within the retry budget
	KindUnavailable               // media broker unconfigured or unreachable
)

// Error is returned by every Service operation that fails for a domain reason
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, KindInternal for errors that are not *Error
func KindOf(err error) Kind {
	var merr *Error
	if errors.As(err, &merr) {
		return merr.Kind
	}
	return KindInternal
}

func NewValidationError(message string, err ...error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: errors.Join(err...)}
}

func NewForbiddenError(message string, err ...error) *Error {
	return &Error{Kind: KindForbidden, Message: message, Err: errors.Join(err...)}
}

func NewUnauthorizedError(message string, err ...error) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: errors.Join(err...)}
}

func NewCodeExhaustedError(message string, err ...error) *Error {
	return &Error{Kind: KindCodeExhausted, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: errors.Join(err...)}
}
