// Package cache keeps restaurant aggregates in redis in front of the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"orderdesk/internal/events"
	"orderdesk/internal/models"
)

// RestaurantStore is the source of truth behind the cache.
type RestaurantStore interface {
	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
}

// Restaurants is a read-through cache. Redis failures degrade to direct store reads.
type Restaurants struct {
	store  RestaurantStore
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRestaurants wraps store. A nil client or non-positive ttl disables caching.
func NewRestaurants(store RestaurantStore, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Restaurants {
	return &Restaurants{
		store:  store,
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func restaurantKey(id int64) string {
	return fmt.Sprintf("orderdesk:restaurant:%d", id)
}

// GetRestaurant returns the cached aggregate or loads and caches it.
func (c *Restaurants) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	var r models.Restaurant
	if c.readCache(ctx, restaurantKey(id), &r) {
		return &r, nil
	}

	loaded, err := c.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, restaurantKey(id), loaded)
	return loaded, nil
}

// Invalidate drops the cached aggregate after a write.
func (c *Restaurants) Invalidate(ctx context.Context, id int64) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Del(ctx, restaurantKey(id)).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("restaurant_id", id).Msg("cache invalidation failed")
	}
}

// Ping checks redis, used by the readiness probe.
func (c *Restaurants) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

func (c *Restaurants) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

func (c *Restaurants) readCache(ctx context.Context, key string, out any) bool {
	if !c.enabled() {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Restaurants) writeCache(ctx context.Context, key string, val any) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Subscribe drops the cached aggregate whenever a restaurant change is published.
func (c *Restaurants) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.RestaurantChanged, func(ev events.Event) error {
		c.Invalidate(context.Background(), ev.RestaurantID)
		return nil
	})
}
