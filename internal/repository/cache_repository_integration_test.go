//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestCacheRepositoryAgainstRedis(t *testing.T) {
	client := startRedis(t)
	repo := NewCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	key := "cosmetologia-2024"
	types := []models.CourseTypeRecord{{ID: 7, Name: "Cosmetología", CatalogKey: &key, Status: models.CourseTypeStatusActive}}
	require.NoError(t, repo.Set(ctx, "catalog:course-types", types, time.Minute))
	require.NoError(t, repo.Set(ctx, "catalog:other", []string{"x"}, time.Minute))

	var cached []models.CourseTypeRecord
	require.NoError(t, repo.Get(ctx, "catalog:course-types", &cached))
	assert.Equal(t, types, cached)

	ttl, err := client.TTL(ctx, cacheNamespace+"catalog:course-types").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, repo.DeleteByPattern(ctx, "catalog:*"))
	err = repo.Get(ctx, "catalog:course-types", &cached)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	err = repo.Get(ctx, "catalog:other", &cached)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}
