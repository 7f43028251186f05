package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	domainerrors "meetfix/contexts/event-coordination/notification-service/domain/errors"
	"meetfix/contexts/event-coordination/notification-service/ports"
)

const defaultDedupTTL = 7 * 24 * time.Hour

// reserve records the envelope in the dedup store and reports whether it was
// already handled.
func reserve(ctx context.Context, dedup ports.EventDedupStore, event ports.EventEnvelope, now time.Time, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	sum := sha256.Sum256(event.Data)
	return dedup.ReserveEvent(ctx, event.EventID, hex.EncodeToString(sum[:]), now.Add(ttl))
}

// release undoes the reservation of a failed attempt so the redelivered
// envelope runs again.
func release(ctx context.Context, dedup ports.EventDedupStore, event ports.EventEnvelope, logger *slog.Logger) {
	if err := dedup.ReleaseEvent(ctx, event.EventID); err != nil {
		logger.Error("event dedupe release failed",
			"event", "notification_dedupe_release_failed",
			"module", "event-coordination/notification-service",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
	}
}

// retryable reports whether a failed attempt can succeed on redelivery.
// Malformed payloads and packed-up events without a date stay reserved.
func retryable(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return false
	case errors.Is(err, domainerrors.ErrEventNotFinalized):
		return false
	}
	return true
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
