package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/domain"
)

const routeKeyPrefix = "collection:route:"

// RouteCache stores snapshots of closed routes. Open routes are never
// cached because their totals change with every payment.
type RouteCache interface {
	// Get returns the cached route, or nil when there is no entry.
	Get(ctx context.Context, routeID string) (*domain.CollectionRoute, error)
	Set(ctx context.Context, route *domain.CollectionRoute) error
	Delete(ctx context.Context, routeID string) error
}

// Connect opens a redis client and verifies it answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type redisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRouteCache(client *redis.Client, ttl time.Duration) RouteCache {
	return &redisRouteCache{client: client, ttl: ttl}
}

func (c *redisRouteCache) Get(ctx context.Context, routeID string) (*domain.CollectionRoute, error) {
	raw, err := c.client.Get(ctx, routeKeyPrefix+routeID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var route domain.CollectionRoute
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, fmt.Errorf("decode cached route %s: %w", routeID, err)
	}
	return &route, nil
}

func (c *redisRouteCache) Set(ctx context.Context, route *domain.CollectionRoute) error {
	if route.IsOpen() {
		return nil
	}
	raw, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, routeKeyPrefix+route.ID, raw, c.ttl).Err()
}

func (c *redisRouteCache) Delete(ctx context.Context, routeID string) error {
	return c.client.Del(ctx, routeKeyPrefix+routeID).Err()
}

// NoopRouteCache is used when redis is disabled.
type NoopRouteCache struct{}

func (NoopRouteCache) Get(context.Context, string) (*domain.CollectionRoute, error) { return nil, nil }
func (NoopRouteCache) Set(context.Context, *domain.CollectionRoute) error           { return nil }
func (NoopRouteCache) Delete(context.Context, string) error                         { return nil }
