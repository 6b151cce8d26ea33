package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evermois/checkout-bridge/pkg/redis"
)

const guardScope = "stripe-webhook"

// EventGuard short-circuits byte-identical redeliveries by marking event
// ids in Redis. It is a fast path only; the authoritative duplicate check
// is the commerce-side order lookup in the synthesizer.
type EventGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewEventGuard builds the delivery deduplication guard.
func NewEventGuard(store redis.IdempotencyStore, ttl time.Duration) (*EventGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &EventGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark returns true when the event id was seen before, marking it
// otherwise.
func (g *EventGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(guardScope, eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Release forgets a marked event id so a failed delivery can be retried.
func (g *EventGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(guardScope, eventID)
	return g.store.Del(ctx, key)
}
