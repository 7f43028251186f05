package errors

import "meetfix/contracts/errkind"

var (
	ErrUnauthenticated = errkind.New(errkind.ErrUnauthenticated, "authenticated user is required")

	ErrNotGroupMember = errkind.New(errkind.ErrUnauthorized, "user is not a member of the event group")
	ErrNotEventOwner  = errkind.New(errkind.ErrUnauthorized, "only the event creator can perform this action")

	ErrEventNotFound    = errkind.New(errkind.ErrNotFound, "event not found")
	ErrSlotNotFound     = errkind.New(errkind.ErrNotFound, "time slot not found for event")
	ErrActivityNotFound = errkind.New(errkind.ErrNotFound, "activity not found for event")
	ErrTimelineNotFound = errkind.New(errkind.ErrNotFound, "timeline not found")
	ErrNoFinalizedEvent = errkind.New(errkind.ErrNotFound, "no finalized event found")

	ErrEventLocked            = errkind.New(errkind.ErrInvalidState, "event is not open for voting")
	ErrInvalidStateTransition = errkind.New(errkind.ErrInvalidState, "invalid event state transition")
	ErrNoSlots                = errkind.New(errkind.ErrInvalidState, "event has no time slots")
	ErrEventNotFinalized      = errkind.New(errkind.ErrInvalidState, "event is not finalized")
	ErrOptionLimitReached     = errkind.New(errkind.ErrInvalidState, "event option limit reached")

	ErrConflict            = errkind.New(errkind.ErrConstraintViolation, "event conflict")
	ErrIdempotencyConflict = errkind.New(errkind.ErrConstraintViolation, "idempotency key conflict")
	ErrIdempotencyKeyInUse = errkind.New(errkind.ErrConstraintViolation, "idempotency key already recorded")

	ErrInvalidEventInput      = errkind.New(errkind.ErrInvalidInput, "invalid event input")
	ErrInvalidVoteInput       = errkind.New(errkind.ErrInvalidInput, "invalid vote input")
	ErrIdempotencyKeyRequired = errkind.New(errkind.ErrInvalidInput, "idempotency key is required")
)
