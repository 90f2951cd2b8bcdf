// Package cache keeps recent lookup results in Redis so repeated queries skip
// rescoring the reference tables.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"catalog-lookup-workers/internal/common/logger"
	"catalog-lookup-workers/internal/common/metrics"
)

const keyPrefix = "lookup"

// Key identifies one cached lookup. Dataset is the fingerprint of the table
// the lookup ran against, so entries written for an older load are never read
// back after the table changes.
type Key struct {
	Kind     string
	Dataset  string
	Strategy string
	N        int
	Query    string
}

// String renders the Redis key. The query is hashed so keys stay short and
// free of separators.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d:%016x", keyPrefix, k.Kind, k.Dataset, k.Strategy, k.N, xxhash.Sum64String(k.Query))
}

// Results is a cache-aside store for lookup results. A Results built with a
// nil client is disabled: Get always misses and Set does nothing.
type Results struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewResults(client *redis.Client, ttl time.Duration, log logger.Logger) *Results {
	return &Results{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// Enabled reports whether a Redis client is attached.
func (r *Results) Enabled() bool {
	return r != nil && r.client != nil
}

// Get decodes the cached value for key into dest and reports whether it was
// found. Redis and decode errors count as misses.
func (r *Results) Get(ctx context.Context, key Key, dest interface{}) bool {
	if !r.Enabled() {
		return false
	}

	raw, err := r.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WithError(err).Warn("result cache read failed", map[string]interface{}{
				"key": key.String(),
			})
		}
		metrics.LookupCacheEvents.WithLabelValues(key.Kind, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		r.logger.WithError(err).Warn("result cache entry is corrupt", map[string]interface{}{
			"key": key.String(),
		})
		metrics.LookupCacheEvents.WithLabelValues(key.Kind, "miss").Inc()
		return false
	}

	metrics.LookupCacheEvents.WithLabelValues(key.Kind, "hit").Inc()
	return true
}

// Set stores value under key with the configured TTL. Failures are logged.
func (r *Results) Set(ctx context.Context, key Key, value interface{}) {
	if !r.Enabled() {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		r.logger.WithError(err).Warn("result cache encode failed", map[string]interface{}{
			"key": key.String(),
		})
		return
	}

	if err := r.client.Set(ctx, key.String(), raw, r.ttl).Err(); err != nil {
		r.logger.WithError(err).Warn("result cache write failed", map[string]interface{}{
			"key": key.String(),
		})
	}
}
