package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idempotency record states.
const (
	IdempotencyStatePending   = "pending"
	IdempotencyStateCompleted = "completed"
)

// IdempotencyRecord is what Redis remembers about an idempotency key.
type IdempotencyRecord struct {
	State  string          `json:"state"`
	Result json.RawMessage `json:"result,omitempty"`
}

// IdempotencyRepository reserves and completes idempotency keys in Redis.
type IdempotencyRepository struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyRepository constructs the repository. With a nil client every key is
// reservable and nothing is remembered.
func NewIdempotencyRepository(client *redis.Client, prefix string) *IdempotencyRepository {
	if prefix == "" {
		prefix = "idempotency"
	}
	return &IdempotencyRepository{client: client, prefix: prefix}
}

func (r *IdempotencyRepository) key(key string) string {
	return r.prefix + ":" + key
}

// Reserve marks the key as pending. It returns false when the key is already known.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	payload, err := json.Marshal(IdempotencyRecord{State: IdempotencyStatePending})
	if err != nil {
		return false, err
	}
	ok, err := r.client.SetNX(ctx, r.key(key), payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Load returns the record stored for key, or nil when the key is unknown.
func (r *IdempotencyRepository) Load(ctx context.Context, key string) (*IdempotencyRecord, error) {
	if r.client == nil {
		return nil, nil
	}
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}
	var record IdempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &record, nil
}

// Complete stores the result of the operation guarded by key.
func (r *IdempotencyRepository) Complete(ctx context.Context, key string, result json.RawMessage, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(IdempotencyRecord{State: IdempotencyStateCompleted, Result: result})
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release forgets a key so that a failed operation can be retried.
func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
