package videos

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vidgallery/backend/internal/cache"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/metrics"
)

// DefaultMetadataTTL bounds how long provider responses are reused.
const DefaultMetadataTTL = time.Hour

// CachingProvider wraps another Provider with a shared TTL cache. Concurrent
// misses for the same URL within this process share one upstream call;
// separate processes may still both fetch.
type CachingProvider struct {
	base  Provider
	store cache.Store
	ttl   time.Duration
	group singleflight.Group
}

// NewCachingProvider returns a Provider that caches usable lookups for ttl.
func NewCachingProvider(base Provider, store cache.Store, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	if store == nil {
		store = cache.Noop{}
	}
	return &CachingProvider{base: base, store: store, ttl: ttl}
}

// CacheKey is the store key for a provider URL.
func CacheKey(url string) string {
	sum := md5.Sum([]byte(url))
	return "provider:" + hex.EncodeToString(sum[:])
}

// Name implements Provider.
func (c *CachingProvider) Name() string {
	if c == nil || c.base == nil {
		return "unknown"
	}
	return c.base.Name()
}

// Lookup returns cached metadata when available, otherwise it delegates to the
// underlying provider and stores the result.
func (c *CachingProvider) Lookup(ctx context.Context, url string) (Metadata, error) {
	if c == nil || c.base == nil {
		return Metadata{}, ErrProviderUnavailable
	}

	name := c.base.Name()
	key := CacheKey(url)

	if raw, ok := c.store.Get(ctx, key); ok {
		var meta Metadata
		if err := json.Unmarshal(raw, &meta); err == nil {
			metrics.RecordProviderLookup(name, "hit")
			return meta, nil
		}
		c.store.Delete(ctx, key)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		ctx, span := logging.StartSpan(ctx, "provider."+name)
		defer span.End()

		start := time.Now()
		meta, err := c.base.Lookup(ctx, url)
		metrics.ObserveProviderLatency(name, time.Since(start))
		if err != nil {
			if !errors.Is(err, ErrInvalidURL) {
				span.Fail(err)
			}
			return Metadata{}, err
		}

		raw, err := json.Marshal(meta)
		if err != nil {
			return Metadata{}, err
		}
		c.store.Set(ctx, key, raw, c.ttl)
		return meta, nil
	})
	if err != nil {
		metrics.RecordProviderLookup(name, "error")
		logging.FromContext(ctx).Warn("provider lookup failed",
			slog.String("provider", name),
			slog.Any("error", err),
		)
		return Metadata{}, err
	}

	metrics.RecordProviderLookup(name, "miss")
	return v.(Metadata), nil
}
