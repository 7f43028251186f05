package errors

import "meetfix/contracts/errkind"

var (
	ErrUnauthenticated     = errkind.New(errkind.ErrUnauthenticated, "authenticated user is required")
	ErrNotGroupMember      = errkind.New(errkind.ErrUnauthorized, "user is not a member of the event group")
	ErrNotItemCreator      = errkind.New(errkind.ErrUnauthorized, "only the item creator can delete it")
	ErrItemNotFound        = errkind.New(errkind.ErrNotFound, "bring item not found")
	ErrEventNotFound       = errkind.New(errkind.ErrNotFound, "event not found")
	ErrClaimLimitReached   = errkind.New(errkind.ErrInvalidState, "claim limit reached")
	ErrConflict            = errkind.New(errkind.ErrConstraintViolation, "bring item conflict")
	ErrEventDedupeConflict = errkind.New(errkind.ErrConstraintViolation, "event dedupe payload mismatch")
	ErrInvalidItemRequest  = errkind.New(errkind.ErrInvalidInput, "invalid bring item request")
)
