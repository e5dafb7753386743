package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sharewalk/pkg/adapters/redis"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunCheckpointStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.CheckpointKey, []byte("blob")))
	_, err := store.Get(ctx, domain.CheckpointKey)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Get(ctx, domain.CheckpointKey)
	assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "checkpoint", []byte("x")))
	assert.True(t, mr.Exists("custom:app:checkpoint"), "Expected key with custom prefix to exist")

	require.NoError(t, store.Delete(ctx, "checkpoint"))
	assert.False(t, mr.Exists("custom:app:checkpoint"))
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	require.NoError(t, store.Set(context.Background(), domain.CheckpointKey, []byte("x")))
	assert.True(t, mr.Exists(redis.DefaultPrefix+domain.CheckpointKey))
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	mr.Close()

	_, err := store.Get(context.Background(), domain.CheckpointKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCheckpointNotFound)
}
