package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/partyplaylist/backend/src/domain"
	"github.com/partyplaylist/backend/src/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRotationCache(t *testing.T) *RotationCacheRepository {
	rdb := testutil.SetupTestRedis(t)
	prefix := "test_rotation:" + uuid.NewString()
	t.Cleanup(func() {
		rdb.Del(context.Background(), prefix+":lock")
	})
	return NewRotationCacheRepository(rdb, prefix, 5*time.Second)
}

func TestRotationCacheRepository_Acquire(t *testing.T) {
	cache := newTestRotationCache(t)
	ctx := context.Background()

	release, acquired, err := cache.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// a second holder is refused while the lease is held
	_, acquired, err = cache.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, release(ctx))

	release, acquired, err = cache.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, release(ctx))
}

func TestRotationCacheRepository_ReleaseKeepsForeignLease(t *testing.T) {
	cache := newTestRotationCache(t)
	ctx := context.Background()

	release, acquired, err := cache.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// the lease expired and someone else took it
	require.NoError(t, cache.redis.Set(ctx, cache.lockKey, "other-holder", 5*time.Second).Err())

	require.NoError(t, release(ctx))

	holder, err := cache.redis.Get(ctx, cache.lockKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-holder", holder)
}

func TestRotationCacheRepository_PublishSubscribe(t *testing.T) {
	cache := newTestRotationCache(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := cache.Subscribe(ctx)
	require.NoError(t, err)

	sent := domain.RotationEvent{
		Type:        domain.RotationEventActivated,
		ChallengeID: 42,
		TickID:      uuid.New(),
		At:          time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Publish(ctx, sent))

	select {
	case got := <-events:
		assert.Equal(t, sent.Type, got.Type)
		assert.Equal(t, sent.ChallengeID, got.ChallengeID)
		assert.Equal(t, sent.TickID, got.TickID)
		assert.True(t, sent.At.Equal(got.At))
	case <-ctx.Done():
		t.Fatal("rotation event not received")
	}

	cancel()
	for range events {
	}
}
