package model

import "errors"

// Error kinds. Services wrap these so handlers can map them to HTTP status
// codes without knowing where the failure came from.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")
)

// Error carries a kind, a user-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewError returns an Error of the given kind with a user-facing message.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError is NewError with a cause attached for logging.
func WrapError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidInput(msg string) *Error { return NewError(ErrInvalidInput, msg) }
func BadRequest(msg string) *Error   { return NewError(ErrBadRequest, msg) }
func Unauthorized(msg string) *Error { return NewError(ErrUnauthorized, msg) }
func Forbidden(msg string) *Error    { return NewError(ErrForbidden, msg) }
func NotFound(msg string) *Error     { return NewError(ErrNotFound, msg) }
func Conflict(msg string) *Error     { return NewError(ErrConflict, msg) }

// Message returns the user-facing message of err, falling back to the text of
// its kind. Unknown errors yield "".
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	for _, kind := range []error{ErrInvalidInput, ErrBadRequest, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrTooManyRequests} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ""
}
