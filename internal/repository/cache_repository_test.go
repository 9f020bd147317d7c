package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	server, client := newMiniRedis(t)
	repo := NewCacheRepository(client, "catalog", nil)
	ctx := context.Background()

	var out []models.Semester
	assert.ErrorIs(t, repo.Get(ctx, "semesters:y1", &out), appErrors.ErrCacheMiss)

	in := []models.Semester{{ID: "s1", AcademicYearID: "y1", Name: "Semester 1"}}
	require.NoError(t, repo.Set(ctx, "semesters:y1", in, time.Minute))
	assert.True(t, server.Exists("catalog:semesters:y1"))

	require.NoError(t, repo.Get(ctx, "semesters:y1", &out))
	assert.Equal(t, in, out)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	server, client := newMiniRedis(t)
	repo := NewCacheRepository(client, "catalog", nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "semesters:y1", []string{"a"}, time.Minute))
	require.NoError(t, repo.Set(ctx, "semesters:y2", []string{"b"}, time.Minute))
	require.NoError(t, repo.Set(ctx, "years:c1", []string{"c"}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "semesters:*"))
	assert.False(t, server.Exists("catalog:semesters:y1"))
	assert.False(t, server.Exists("catalog:semesters:y2"))
	assert.True(t, server.Exists("catalog:years:c1"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "catalog", nil)
	var out string
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", "v", time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
}
