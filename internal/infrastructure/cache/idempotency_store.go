// Package cache holds the Redis-backed request plumbing: the
// idempotency response store and the rate-limit counters
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix  = "idem:"
	idempotencyLockPrefix = "idem:lock:"

	// responses replay for a day, long enough to cover client retry
	// policies without pinning stale writes forever
	defaultResponseTTL = 24 * time.Hour

	// the in-flight lock outlives any sane handler but not a wedged one
	defaultLockTTL = 30 * time.Second
)

// StoredResponse is the captured outcome of a completed request,
// replayed verbatim for duplicate submissions
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore persists first-response captures per tenant and
// idempotency key, with a short lock marking requests still in flight
type IdempotencyStore struct {
	client      *redis.Client
	responseTTL time.Duration
	lockTTL     time.Duration
}

// NewIdempotencyStore creates a store on an existing Redis client
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client:      client,
		responseTTL: defaultResponseTTL,
		lockTTL:     defaultLockTTL,
	}
}

func responseKey(tenantID uuid.UUID, key string) string {
	return fmt.Sprintf("%s%s:%s", idempotencyKeyPrefix, tenantID, key)
}

func lockKey(tenantID uuid.UUID, key string) string {
	return fmt.Sprintf("%s%s:%s", idempotencyLockPrefix, tenantID, key)
}

// Get returns the stored response for this tenant and key, or nil when
// none has been captured yet
func (s *IdempotencyStore) Get(ctx context.Context, tenantID uuid.UUID, key string) (*StoredResponse, error) {
	data, err := s.client.Get(ctx, responseKey(tenantID, key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency capture: %w", err)
	}

	var resp StoredResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency capture: %w", err)
	}
	return &resp, nil
}

// Lock claims the in-flight marker for this tenant and key. It returns
// false when another request already holds it
func (s *IdempotencyStore) Lock(ctx context.Context, tenantID uuid.UUID, key string) (bool, error) {
	acquired, err := s.client.SetNX(ctx, lockKey(tenantID, key), "1", s.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire idempotency lock: %w", err)
	}
	return acquired, nil
}

// Unlock releases the in-flight marker
func (s *IdempotencyStore) Unlock(ctx context.Context, tenantID uuid.UUID, key string) error {
	if err := s.client.Del(ctx, lockKey(tenantID, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency lock: %w", err)
	}
	return nil
}

// Store captures a completed response for replay
func (s *IdempotencyStore) Store(ctx context.Context, tenantID uuid.UUID, key string, resp *StoredResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency capture: %w", err)
	}
	if err := s.client.Set(ctx, responseKey(tenantID, key), data, s.responseTTL).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency capture: %w", err)
	}
	return nil
}
