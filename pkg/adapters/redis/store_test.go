package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func gold(n string) *domain.Blackboard {
	return domain.NewBlackboard(domain.Variable{Name: "gold", Kind: domain.KindInt, Value: n})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunBlackboardStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "shop", gold("5")))

	ids, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, ids, "shop")

	// miniredis expires keys on FastForward, the index is pruned by wall clock.
	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, "shop")
	assert.ErrorIs(t, err, domain.ErrBlackboardNotFound)

	time.Sleep(1200 * time.Millisecond)
	ids, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "shop", gold("1")))

	assert.True(t, mr.Exists("custom:app:shop"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	ids, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"shop"}, ids)
}
