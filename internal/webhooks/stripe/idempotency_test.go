package stripewebhook

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("evm:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func TestEventGuardMarksOnce(t *testing.T) {
	guard, err := NewEventGuard(newInMemoryStore(), time.Minute)
	if err != nil {
		t.Fatalf("NewEventGuard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Fatal("first delivery must not be marked as seen")
	}

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Fatal("second delivery must be marked as seen")
	}
}

func TestEventGuardRelease(t *testing.T) {
	guard, err := NewEventGuard(newInMemoryStore(), time.Minute)
	if err != nil {
		t.Fatalf("NewEventGuard: %v", err)
	}
	ctx := context.Background()

	if _, err := guard.CheckAndMark(ctx, "evt_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := guard.Release(ctx, "evt_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Fatal("released event id should be markable again")
	}
}

func TestEventGuardValidation(t *testing.T) {
	if _, err := NewEventGuard(nil, time.Minute); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewEventGuard(newInMemoryStore(), -time.Second); err == nil {
		t.Fatal("expected error for negative ttl")
	}

	guard, _ := NewEventGuard(newInMemoryStore(), time.Minute)
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty event id")
	}
	if err := guard.Release(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty event id")
	}
}
