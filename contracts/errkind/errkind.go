// Package errkind holds the error kinds shared by every service. Each domain
// sentinel wraps exactly one kind, so callers can branch on
// errors.Is(err, errkind.ErrInvalidState) without knowing the sentinel.
package errkind

import "errors"

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidState        = errors.New("invalid state")
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrInvalidInput covers malformed requests rejected before any state is read.
	ErrInvalidInput = errors.New("invalid input")
)

var names = []struct {
	kind error
	name string
}{
	{ErrUnauthenticated, "unauthenticated"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidState, "invalid_state"},
	{ErrNotFound, "not_found"},
	{ErrConstraintViolation, "constraint_violation"},
	{ErrInvalidInput, "invalid_input"},
}

type kindError struct {
	kind    error
	message string
}

func (e *kindError) Error() string { return e.message }

func (e *kindError) Unwrap() error { return e.kind }

// New returns a sentinel whose message is message and which matches kind
// under errors.Is.
func New(kind error, message string) error {
	return &kindError{kind: kind, message: message}
}

// Name returns the wire name of the kind err wraps, or "" when err carries
// no kind.
func Name(err error) string {
	for _, entry := range names {
		if errors.Is(err, entry.kind) {
			return entry.name
		}
	}
	return ""
}
