package service

import "errors"

// Error kinds.  Handlers map each to one HTTP status; the detail travels in
// Error.
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
)

// Error pairs an error kind with the message shown to the client.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, detail string) error { return &Error{Kind: kind, Detail: detail} }

// Detail returns the client-facing message of err, or fallback when err
// carries none.
func Detail(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return fallback
}
