package availability

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/schedengine/internal/timeutil"
)

func newTestCache(t *testing.T) (*SlotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSlotCache(client, time.Minute), mr
}

func TestSlotCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	resourceID := uuid.New()
	date := timeutil.DateYMD(2024, time.March, 4)
	slots := []timeutil.TimeOfDay{tod("09:00"), tod("09:30"), tod("14:00")}

	_, hit, err := cache.Get(ctx, resourceID, date, 30)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, resourceID, date, 30, slots))

	got, hit, err := cache.Get(ctx, resourceID, date, 30)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, slots, got)
}

func TestSlotCacheKeysScopedByDuration(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	resourceID := uuid.New()
	date := timeutil.DateYMD(2024, time.March, 4)

	require.NoError(t, cache.Set(ctx, resourceID, date, 30, []timeutil.TimeOfDay{tod("09:00")}))

	_, hit, err := cache.Get(ctx, resourceID, date, 60)
	require.NoError(t, err)
	assert.False(t, hit, "a 60-minute lookup must not reuse 30-minute slots")
}

func TestSlotCacheInvalidateDropsAllDurations(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	resourceID := uuid.New()
	other := uuid.New()
	date := timeutil.DateYMD(2024, time.March, 4)

	require.NoError(t, cache.Set(ctx, resourceID, date, 30, []timeutil.TimeOfDay{tod("09:00")}))
	require.NoError(t, cache.Set(ctx, resourceID, date, 60, []timeutil.TimeOfDay{tod("10:00")}))
	require.NoError(t, cache.Set(ctx, other, date, 30, []timeutil.TimeOfDay{tod("11:00")}))

	require.NoError(t, cache.Invalidate(ctx, resourceID, date))

	for _, dur := range []int{30, 60} {
		_, hit, err := cache.Get(ctx, resourceID, date, dur)
		require.NoError(t, err)
		assert.False(t, hit, "duration %d should be invalidated", dur)
	}
	_, hit, err := cache.Get(ctx, other, date, 30)
	require.NoError(t, err)
	assert.True(t, hit, "other resources must keep their entries")
}

func TestSlotCacheEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	resourceID := uuid.New()
	date := timeutil.DateYMD(2024, time.March, 4)

	require.NoError(t, cache.Set(ctx, resourceID, date, 30, []timeutil.TimeOfDay{tod("09:00")}))
	mr.FastForward(2 * time.Minute)

	_, hit, err := cache.Get(ctx, resourceID, date, 30)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSlotCacheNilSafe(t *testing.T) {
	var cache *SlotCache
	ctx := context.Background()
	resourceID := uuid.New()
	date := timeutil.DateYMD(2024, time.March, 4)

	_, hit, err := cache.Get(ctx, resourceID, date, 30)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, cache.Set(ctx, resourceID, date, 30, nil))
	require.NoError(t, cache.Invalidate(ctx, resourceID, date))
}
