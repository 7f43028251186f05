package errkind

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewKeepsMessageAndMatchesKind(t *testing.T) {
	locked := New(ErrInvalidState, "event is not open for voting")
	if locked.Error() != "event is not open for voting" {
		t.Fatalf("unexpected message %q", locked.Error())
	}
	wrapped := fmt.Errorf("cast vote: %w", locked)
	if !errors.Is(wrapped, locked) || !errors.Is(wrapped, ErrInvalidState) {
		t.Fatalf("expected wrapped error to match sentinel and kind")
	}
	if errors.Is(wrapped, ErrConstraintViolation) {
		t.Fatalf("error must carry a single kind")
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrUnauthenticated, "x"), "unauthenticated"},
		{New(ErrUnauthorized, "x"), "unauthorized"},
		{New(ErrInvalidState, "x"), "invalid_state"},
		{New(ErrNotFound, "x"), "not_found"},
		{New(ErrConstraintViolation, "x"), "constraint_violation"},
		{New(ErrInvalidInput, "x"), "invalid_input"},
		{errors.New("connection refused"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Name(tt.err); got != tt.want {
			t.Fatalf("Name(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
