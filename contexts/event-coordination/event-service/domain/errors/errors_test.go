package errors

import (
	stderrors "errors"
	"testing"

	"meetfix/contracts/errkind"
)

func TestSentinelKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{ErrEventLocked, errkind.ErrInvalidState},
		{ErrNoSlots, errkind.ErrInvalidState},
		{ErrSlotNotFound, errkind.ErrNotFound},
		{ErrNotEventOwner, errkind.ErrUnauthorized},
		{ErrUnauthenticated, errkind.ErrUnauthenticated},
		{ErrConflict, errkind.ErrConstraintViolation},
	}
	for _, tt := range tests {
		if !stderrors.Is(tt.err, tt.kind) {
			t.Fatalf("%q does not carry kind %q", tt.err, tt.kind)
		}
	}
	if stderrors.Is(ErrEventLocked, errkind.ErrNotFound) {
		t.Fatalf("event locked must not match not found")
	}
}
