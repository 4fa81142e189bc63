package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vidgallery/backend/internal/auth"
	"github.com/vidgallery/backend/internal/cache"
	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/db"
	"github.com/vidgallery/backend/internal/handlers"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/middleware"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/player"
	"github.com/vidgallery/backend/internal/repositories"
	"github.com/vidgallery/backend/internal/storage"
	"github.com/vidgallery/backend/internal/videos"
)

// cleanupFunc releases a resource acquired while wiring dependencies.
type cleanupFunc func(context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup stops background workers and closes the cache.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, cleanupFunc, error) {
	logger := logging.FromContext(ctx)

	var cleanups []cleanupFunc
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (handlers.Dependencies, cleanupFunc, error) {
		_ = cleanup(ctx)
		return handlers.Dependencies{}, nil, err
	}

	base := config.DefaultSettings()
	if cfg.SettingsFile != "" {
		loaded, err := config.LoadSettingsFile(cfg.SettingsFile)
		if err != nil {
			return fail(err)
		}
		base = loaded
	}

	store, closeStore, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeStore)

	client := videos.NewClient(cfg.ProviderTimeout, videos.DefaultEndpoints())
	metadata := videos.NewService(videos.ServiceConfig{
		Client:           client,
		Store:            store,
		TTL:              cfg.MetadataCacheTTL,
		VimeoAccessToken: base.API.VimeoAccessToken,
	})

	videoRepo := repositories.NewPostgresVideoRepository(pool)
	userRepo := repositories.NewPostgresUserRepository(pool)
	settings := repositories.NewPostgresSettingsSource(pool, base, 0)
	downloads := player.NewDownloads(store, cfg.SiteURL, 0)

	hls := &player.WordPressHLS{Client: client.HTTP, Store: store, Updater: videoRepo}
	opts := []player.Option{player.WithSourceFilter(hls.Filter)}

	if strings.TrimSpace(cfg.ObjectStore.Bucket) != "" {
		assets, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return fail(fmt.Errorf("configure thumbnail storage: %w", err))
		}
		importer := videos.NewThumbnailImporter(metadata, client, assets, videoRepo, videos.ThumbnailImporterConfig{
			QueueSize: cfg.Thumbnails.QueueSize,
			Workers:   cfg.Thumbnails.Workers,
			Timeout:   cfg.ProviderTimeout,
		}, logger)
		cleanups = append(cleanups, importer.Shutdown)
		opts = append(opts, player.WithSettingsFilter(thumbnailImportFilter(settings, importer)))
	}

	resolver := player.NewResolver(player.Config{
		Videos:    videoRepo,
		Settings:  settings,
		Metadata:  metadata,
		Downloads: downloads,
		SiteURL:   cfg.SiteURL,
	}, opts...)

	sessions := auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, repositories.NewPostgresSessionStore(pool), store)

	checks := map[string]handlers.HealthCheck{"database": databaseCheck(pool)}
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		checks["cache"] = pinger.Ping
	}

	return handlers.Dependencies{
		Users:              userRepo,
		Sessions:           sessions,
		Videos:             videoRepo,
		Player:             resolver,
		Downloads:          downloads,
		Settings:           settings,
		AuthRateLimiter:    middleware.NewRateLimiterFromConfig(cfg.RateLimit),
		CounterRateLimiter: middleware.NewRateLimiterFromConfig(cfg.RateLimit),
		HealthChecks:       checks,
	}, cleanup, nil
}

// databaseCheck pings a pooled connection.
func databaseCheck(pool db.Pool) handlers.HealthCheck {
	return func(ctx context.Context) error {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire connection: %w", err)
		}
		defer conn.Release()
		return conn.Ping(ctx)
	}
}

// buildCache selects the shared cache backend.
func buildCache(ctx context.Context, cfg config.CacheConfig) (cache.Store, cleanupFunc, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		store := cache.NewMemoryStore(cfg.CleanupInterval)
		return store, func(context.Context) error { return store.Close() }, nil
	case "redis":
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { return store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// thumbnailEnqueuer accepts thumbnail jobs without blocking.
type thumbnailEnqueuer interface {
	Offer(job videos.ThumbnailJob) bool
}

// thumbnailImportFilter queues a copy of the provider thumbnail for stored
// videos that have no poster yet, when external image download is enabled.
func thumbnailImportFilter(settings config.SettingsSource, importer thumbnailEnqueuer) player.SettingsFilter {
	return func(ctx context.Context, video *models.Video, _ *player.Settings) {
		if video == nil {
			return
		}
		job, ok := videos.ThumbnailJobFor(*video)
		if !ok {
			return
		}
		site, err := settings.Settings(ctx)
		if err != nil || !site.FeaturedImages.DownloadExternalImages {
			return
		}
		if importer.Offer(job) {
			logging.FromContext(ctx).Debug("queued thumbnail import", "videoId", video.ID, "type", job.Type)
		}
	}
}
