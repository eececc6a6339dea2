package service

import (
	"context"
	"time"

	"promptionary/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// cachedList is a list as stored in the cache, tagged with the generation it was read under
type cachedList[T any] struct {
	Generation string `json:"generation"`
	Items      []T    `json:"items"`
}

func generationKey(key string) string {
	return key + ":generation"
}

// loadList serves a cached list only when its generation is still current.
// On a miss it reads through load and stores the result under the generation
// seen before the read, so a fill that raced a write is never served.
func loadList[T any](ctx context.Context, cache utils.Cache, ttl time.Duration, key string, load func() ([]T, error)) ([]T, error) {
	var generation string
	_, genErr := cache.Get(ctx, generationKey(key), &generation)
	if genErr != nil {
		logrus.WithError(genErr).WithField("key", key).Warn("Cache generation read failed")
	} else {
		var cached cachedList[T]
		if ok, err := cache.Get(ctx, key, &cached); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Cache read failed")
		} else if ok && cached.Generation == generation {
			return cached.Items, nil
		}
	}

	items, err := load()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	if genErr == nil {
		if err := cache.Set(ctx, key, cachedList[T]{Generation: generation, Items: items}, ttl); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Cache write failed")
		}
	}
	return items, nil
}

// invalidate moves each list to a new generation and drops the cached copy.
// A cache failure is logged and never fails the write.
func invalidate(ctx context.Context, cache utils.Cache, keys ...string) {
	for _, key := range keys {
		// No TTL, the marker must outlive every list stored under it
		if err := cache.Set(ctx, generationKey(key), uuid.NewString(), 0); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to advance cache generation")
		}
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		logrus.WithError(err).WithField("keys", keys).Warn("Failed to invalidate cache")
	}
}
