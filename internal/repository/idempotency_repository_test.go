package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepositoryLifecycle(t *testing.T) {
	server, client := newMiniRedis(t)
	repo := NewIdempotencyRepository(client, "")
	ctx := context.Background()

	ok, err := repo.Reserve(ctx, "promote:key-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, "promote:key-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	record, err := repo.Load(ctx, "promote:key-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, IdempotencyStatePending, record.State)

	require.NoError(t, repo.Complete(ctx, "promote:key-1", json.RawMessage(`{"student_id":"s1"}`), time.Hour))
	record, err = repo.Load(ctx, "promote:key-1")
	require.NoError(t, err)
	assert.Equal(t, IdempotencyStateCompleted, record.State)
	assert.JSONEq(t, `{"student_id":"s1"}`, string(record.Result))

	server.FastForward(2 * time.Hour)
	record, err = repo.Load(ctx, "promote:key-1")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestIdempotencyRepositoryRelease(t *testing.T) {
	_, client := newMiniRedis(t)
	repo := NewIdempotencyRepository(client, "idem")
	ctx := context.Background()

	ok, err := repo.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Release(ctx, "k"))

	ok, err = repo.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdempotencyRepositoryWithoutClient(t *testing.T) {
	repo := NewIdempotencyRepository(nil, "")
	ok, err := repo.Reserve(context.Background(), "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	record, err := repo.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Nil(t, record)
}
