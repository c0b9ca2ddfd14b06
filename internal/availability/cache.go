package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/schedengine/internal/timeutil"
)

// SlotCache memoizes computed day slots in Redis. Entries are keyed by
// resource, date and slot duration and expire on TTL; any write to a
// resource's day must call Invalidate so stale slots never survive a booking.
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlotCache returns a cache, or nil when no client is configured so
// callers can treat the cache as optional.
func NewSlotCache(client *redis.Client, ttl time.Duration) *SlotCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &SlotCache{client: client, ttl: ttl}
}

func slotKey(resourceID uuid.UUID, date time.Time, slotMinutes int) string {
	return fmt.Sprintf("schedengine:slots:%s:%s:%d", resourceID, date.Format("2006-01-02"), slotMinutes)
}

func invalidationPattern(resourceID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("schedengine:slots:%s:%s:*", resourceID, date.Format("2006-01-02"))
}

// Get returns the cached slots for the key, reporting a miss as (nil, false).
func (c *SlotCache) Get(ctx context.Context, resourceID uuid.UUID, date time.Time, slotMinutes int) ([]timeutil.TimeOfDay, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, slotKey(resourceID, date, slotMinutes)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("availability: cache get: %w", err)
	}
	var minutes []int
	if err := json.Unmarshal(raw, &minutes); err != nil {
		return nil, false, fmt.Errorf("availability: cache decode: %w", err)
	}
	slots := make([]timeutil.TimeOfDay, len(minutes))
	for i, m := range minutes {
		slots[i] = timeutil.TimeOfDay(m)
	}
	return slots, true, nil
}

// Set stores the computed slots with the configured TTL.
func (c *SlotCache) Set(ctx context.Context, resourceID uuid.UUID, date time.Time, slotMinutes int, slots []timeutil.TimeOfDay) error {
	if c == nil {
		return nil
	}
	minutes := make([]int, len(slots))
	for i, s := range slots {
		minutes[i] = s.Minutes()
	}
	raw, err := json.Marshal(minutes)
	if err != nil {
		return fmt.Errorf("availability: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, slotKey(resourceID, date, slotMinutes), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("availability: cache set: %w", err)
	}
	return nil
}

// Invalidate drops every cached duration for the resource's day.
func (c *SlotCache) Invalidate(ctx context.Context, resourceID uuid.UUID, date time.Time) error {
	if c == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, invalidationPattern(resourceID, date), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("availability: cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("availability: cache invalidate: %w", err)
	}
	return nil
}
