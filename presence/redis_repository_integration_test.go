//go:build integration

package presence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisRepository_ListSince(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
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

	repo, err := NewRedisRepository(client, WithRedisKey("test:presence"))
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	recent := uuid.New()
	stale := uuid.New()
	require.NoError(t, repo.Touch(ctx, stale, now.Add(-11*time.Minute)))
	require.NoError(t, repo.Touch(ctx, recent, now.Add(-20*time.Minute)))
	require.NoError(t, repo.Touch(ctx, recent, now.Add(-9*time.Minute)))

	entries, err := repo.ListSince(ctx, now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, recent, entries[0].ActorID)
	require.True(t, entries[0].LastActiveAt.Equal(now.Add(-9*time.Minute)))

	removed, err := repo.Prune(ctx, now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}
