package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dineflow/reserva-backend/utils"
)

const availabilityTTL = 5 * time.Minute

// AvailabilityCache is a Redis materialization of availability results. It is
// an optimization only - the database remains the source of truth - so every
// Redis failure degrades to a live computation and is merely logged. Entries
// are short-lived and invalidated whenever a booking changes the slot map.
type AvailabilityCache struct {
	rdb *redis.Client
}

// NewAvailabilityCache returns nil when addr is empty, which disables caching
// entirely; callers treat a nil cache as "always miss".
func NewAvailabilityCache(addr string) *AvailabilityCache {
	if addr == "" {
		return nil
	}
	return &AvailabilityCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func availabilityKey(restaurantID uint, date string) string {
	return fmt.Sprintf("availability:%d:%s", restaurantID, date)
}

func (c *AvailabilityCache) Get(restaurantID uint, date string) (*AvailabilityResult, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, err := c.rdb.Get(ctx, availabilityKey(restaurantID, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			utils.ErrorLogger.Printf("availability cache get: %v", err)
		}
		return nil, false
	}
	var res AvailabilityResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false
	}
	return &res, true
}

func (c *AvailabilityCache) Put(restaurantID uint, date string, res *AvailabilityResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := c.rdb.Set(ctx, availabilityKey(restaurantID, date), raw, availabilityTTL).Err(); err != nil {
		utils.ErrorLogger.Printf("availability cache put: %v", err)
	}
}

func (c *AvailabilityCache) Invalidate(restaurantID uint, date string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := c.rdb.Del(ctx, availabilityKey(restaurantID, date)).Err(); err != nil {
		utils.ErrorLogger.Printf("availability cache invalidate: %v", err)
	}
}
