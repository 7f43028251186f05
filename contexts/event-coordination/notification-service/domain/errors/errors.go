package errors

import "meetfix/contracts/errkind"

var (
	ErrUnauthenticated      = errkind.New(errkind.ErrUnauthenticated, "authenticated user is required")
	ErrNotificationNotFound = errkind.New(errkind.ErrNotFound, "notification not found")
	ErrEventNotFinalized    = errkind.New(errkind.ErrInvalidState, "packed up event has no finalized date")
	ErrEventDedupeConflict  = errkind.New(errkind.ErrConstraintViolation, "event dedupe payload mismatch")
	ErrInvalidRequest       = errkind.New(errkind.ErrInvalidInput, "invalid notification request")
)
