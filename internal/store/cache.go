package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ludimus/places-backend/pkg/clients/redis"
	"github.com/ludimus/places-backend/pkg/models"
)

// DefaultCacheTTL bounds how stale a cached rating view may get when an
// invalidation is lost.
const DefaultCacheTTL = 5 * time.Minute

// Cache keys. Views are cached per requesting user because the own
// rating column differs between users. A generation counter embedded in
// every key invalidates all user variants at once on any write.
const (
	cacheKeyGeneration = "places:gen"
	cacheKeyPrefix     = "places:view:"
)

// cachedRepository decorates a Repository with a read-through cache for
// the rating views. Writes bump the generation counter so every cached
// view, regardless of user, falls out of date immediately. Cache
// failures are logged and otherwise ignored; the database remains the
// source of truth.
type cachedRepository struct {
	Repository

	cache *redis.Client
	ttl   time.Duration
}

// NewCached wraps inner with a redis read-through cache. A zero ttl
// falls back to [DefaultCacheTTL].
func NewCached(inner Repository, cache *redis.Client, ttl time.Duration) Repository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &cachedRepository{Repository: inner, cache: cache, ttl: ttl}
}

func (c *cachedRepository) GetPlaceWithRating(ctx context.Context, id, userID string) (*models.PlaceWithRating, error) {
	key := c.viewKey(ctx, "place:"+id+":"+userID)

	var cached models.PlaceWithRating
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	place, err := c.Repository.GetPlaceWithRating(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, place)
	return place, nil
}

func (c *cachedRepository) ListPlaces(ctx context.Context, userID string) ([]*models.PlaceWithRating, error) {
	key := c.viewKey(ctx, "list:"+userID)

	var cached []*models.PlaceWithRating
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	places, err := c.Repository.ListPlaces(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, places)
	return places, nil
}

func (c *cachedRepository) CreatePlace(ctx context.Context, place *models.Place) error {
	if err := c.Repository.CreatePlace(ctx, place); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *cachedRepository) UpdatePlace(ctx context.Context, place *models.Place) error {
	if err := c.Repository.UpdatePlace(ctx, place); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *cachedRepository) DeletePlace(ctx context.Context, id string) error {
	if err := c.Repository.DeletePlace(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *cachedRepository) RatePlace(ctx context.Context, rating *models.Rating) (*models.PlaceWithRating, error) {
	place, err := c.Repository.RatePlace(ctx, rating)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return place, nil
}

// viewKey builds a cache key scoped to the current generation. An
// unreadable generation yields a key under generation "0", which the
// next invalidation moves past.
func (c *cachedRepository) viewKey(ctx context.Context, suffix string) string {
	gen, err := c.cache.Get(ctx, cacheKeyGeneration)
	if err != nil {
		gen = "0"
	}
	return cacheKeyPrefix + gen + ":" + suffix
}

// lookup reads a cached view into target. A miss or a decode failure
// reports false and the caller falls through to the database.
func (c *cachedRepository) lookup(ctx context.Context, key string, target any) bool {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logCacheError(ctx, "get", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		logCacheError(ctx, "decode", key, err)
		return false
	}
	return true
}

func (c *cachedRepository) fill(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		logCacheError(ctx, "encode", key, err)
		return
	}
	if err := c.cache.Set(ctx, key, string(raw), c.ttl); err != nil {
		logCacheError(ctx, "set", key, err)
	}
}

// invalidate moves the generation forward, orphaning every cached view.
// Orphaned keys expire through their TTL.
func (c *cachedRepository) invalidate(ctx context.Context) {
	if err := c.cache.Set(ctx, cacheKeyGeneration,
		time.Now().UTC().Format(time.RFC3339Nano), 0); err != nil {
		logCacheError(ctx, "invalidate", cacheKeyGeneration, err)
	}
}

func logCacheError(ctx context.Context, op, key string, err error) {
	slog.WarnContext(ctx, "store: cache operation failed",
		"op", op, "key", key, "error", err)
}
