// Package cache keeps reconstructed routes of completed rides in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"trip_tracker/internal/services"
)

const keyPrefix = "route:"

func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

type RouteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRouteCache stores entries for ttl; ttl <= 0 keeps them until evicted.
func NewRouteCache(rdb *redis.Client, ttl time.Duration) *RouteCache {
	return &RouteCache{rdb: rdb, ttl: ttl}
}

func (c *RouteCache) Get(ctx context.Context, rideID string) (*services.Route, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+rideID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var route services.Route
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, false, err
	}
	return &route, true, nil
}

func (c *RouteCache) Set(ctx context.Context, route *services.Route) error {
	raw, err := json.Marshal(route)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, keyPrefix+route.Ride.ID, raw, ttl).Err()
}

var _ services.RouteCache = (*RouteCache)(nil)
