package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

type idempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Load(ctx context.Context, key string) (*repository.IdempotencyRecord, error)
	Complete(ctx context.Context, key string, result json.RawMessage, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// IdempotencyService remembers the result of mutating requests keyed by the
// client's Idempotency-Key so retries replay instead of re-running.
type IdempotencyService struct {
	store  idempotencyStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdempotencyService constructs the guard.
func NewIdempotencyService(store idempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotencyService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotencyService{store: store, ttl: ttl, logger: logger}
}

// runIdempotent runs fn at most once per scope and key. A completed key replays
// the stored result; a pending key is rejected; a failed run frees the key.
func runIdempotent[T any](ctx context.Context, guard *IdempotencyService, scope, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if guard == nil || guard.store == nil || key == "" {
		return fn(ctx)
	}
	fullKey := scope + ":" + key

	record, err := guard.store.Load(ctx, fullKey)
	if err != nil {
		return zero, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check idempotency key")
	}
	if record != nil {
		return replay[T](guard, fullKey, record)
	}

	reserved, err := guard.store.Reserve(ctx, fullKey, guard.ttl)
	if err != nil {
		return zero, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve idempotency key")
	}
	if !reserved {
		return zero, appErrors.ErrDuplicateRequest
	}

	result, err := fn(ctx)
	if err != nil {
		if releaseErr := guard.store.Release(context.WithoutCancel(ctx), fullKey); releaseErr != nil {
			guard.logger.Warn("release idempotency key failed", zap.String("key", fullKey), zap.Error(releaseErr))
		}
		return zero, err
	}

	payload, err := json.Marshal(result)
	if err == nil {
		err = guard.store.Complete(context.WithoutCancel(ctx), fullKey, payload, guard.ttl)
	}
	if err != nil {
		guard.logger.Warn("complete idempotency key failed", zap.String("key", fullKey), zap.Error(err))
	}
	return result, nil
}

func replay[T any](guard *IdempotencyService, key string, record *repository.IdempotencyRecord) (T, error) {
	var result T
	if record.State != repository.IdempotencyStateCompleted {
		return result, appErrors.ErrDuplicateRequest
	}
	if err := json.Unmarshal(record.Result, &result); err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replay idempotent result")
	}
	guard.logger.Debug("replayed idempotent request", zap.String("key", key))
	return result, nil
}
