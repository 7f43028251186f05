package errors

import "meetfix/contracts/errkind"

// Sentinels grouped by kind.
var (
	ErrUnauthenticated = errkind.New(errkind.ErrUnauthenticated, "authentication required")

	ErrNotGroupMember = errkind.New(errkind.ErrUnauthorized, "not a member of this group")
	ErrNotGroupOwner  = errkind.New(errkind.ErrUnauthorized, "only the group owner can do this")

	ErrGroupNotFound      = errkind.New(errkind.ErrNotFound, "group not found")
	ErrInviteCodeNotFound = errkind.New(errkind.ErrNotFound, "invite code not found")

	ErrGroupFull            = errkind.New(errkind.ErrInvalidState, "group is full")
	ErrOwnerCannotLeave     = errkind.New(errkind.ErrInvalidState, "owner cannot leave the group")
	ErrMaxMembersBelowCount = errkind.New(errkind.ErrInvalidState, "max members below current member count")

	ErrConflict            = errkind.New(errkind.ErrConstraintViolation, "conflict")
	ErrInviteCodeExhausted = errkind.New(errkind.ErrConstraintViolation, "could not allocate a unique invite code")
	ErrIdempotencyConflict = errkind.New(errkind.ErrConstraintViolation, "idempotency key conflict")
	ErrRequestInProgress   = errkind.New(errkind.ErrConstraintViolation, "request with this idempotency key is in progress")

	ErrInvalidRequest         = errkind.New(errkind.ErrInvalidInput, "invalid request")
	ErrIdempotencyKeyRequired = errkind.New(errkind.ErrInvalidInput, "idempotency key required")
)
