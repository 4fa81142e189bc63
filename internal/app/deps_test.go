package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/videos"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		SiteURL:          "https://example.com",
		ProviderTimeout:  time.Second,
		MetadataCacheTTL: time.Minute,
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
		Cache:            config.CacheConfig{Backend: "memory"},
		RateLimit:        config.RateLimitConfig{Requests: 10, Window: time.Second, Burst: 5, TTL: time.Minute},
		Thumbnails:       config.ThumbnailConfig{Workers: 1, QueueSize: 4},
	}
}

func TestBuildDependencies(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cleanup(ctx); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	}()

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Player == nil {
		t.Fatal("expected player resolver to be configured")
	}
	if deps.Downloads == nil {
		t.Fatal("expected download resolver to be configured")
	}
	if deps.Settings == nil {
		t.Fatal("expected settings source to be configured")
	}
	if deps.AuthRateLimiter == nil || deps.CounterRateLimiter == nil {
		t.Fatal("expected rate limiters to be configured")
	}
	if _, ok := deps.HealthChecks["database"]; !ok {
		t.Fatal("expected database health check")
	}
	if _, ok := deps.HealthChecks["cache"]; ok {
		t.Fatal("memory cache should not register a health check")
	}
	if err := deps.HealthChecks["database"](context.Background()); err == nil {
		t.Fatal("expected database check to surface acquire failure")
	}
}

func TestBuildDependenciesRedisCache(t *testing.T) {
	server := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Cache = config.CacheConfig{Backend: "redis", RedisAddr: server.Addr()}

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	check, ok := deps.HealthChecks["cache"]
	if !ok {
		t.Fatal("expected redis health check")
	}
	if err := check(context.Background()); err != nil {
		t.Fatalf("cache check: %v", err)
	}
	if err := cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestBuildDependenciesFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "memcached"
	if _, _, err := buildDependencies(context.Background(), fakePool{}, cfg); err == nil {
		t.Fatal("expected unknown cache backend to fail")
	}

	cfg = testConfig()
	cfg.SettingsFile = filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(cfg.SettingsFile, []byte("player: [unclosed"), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	if _, _, err := buildDependencies(context.Background(), fakePool{}, cfg); err == nil {
		t.Fatal("expected malformed settings file to fail")
	}
}

type enqueuerStub struct {
	jobs []videos.ThumbnailJob
}

func (e *enqueuerStub) Offer(job videos.ThumbnailJob) bool {
	e.jobs = append(e.jobs, job)
	return true
}

func TestThumbnailImportFilter(t *testing.T) {
	enabled := config.DefaultSettings()
	enabled.FeaturedImages.DownloadExternalImages = true

	video := &models.Video{ID: 7, Type: models.TypeYouTube, YouTube: "https://youtu.be/abc"}

	tests := []struct {
		name     string
		settings config.Settings
		video    *models.Video
		want     []videos.ThumbnailJob
	}{
		{name: "enabled", settings: enabled, video: video, want: []videos.ThumbnailJob{{VideoID: 7, Type: models.TypeYouTube, URL: "https://youtu.be/abc"}}},
		{name: "disabled", settings: config.DefaultSettings(), video: video},
		{name: "inline player", settings: enabled},
		{name: "poster present", settings: enabled, video: &models.Video{ID: 7, Type: models.TypeYouTube, YouTube: "https://youtu.be/abc", Poster: "/p.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer := &enqueuerStub{}
			filter := thumbnailImportFilter(config.StaticSettings(tt.settings), importer)

			filter(context.Background(), tt.video, nil)

			if diff := cmp.Diff(tt.want, importer.jobs); diff != "" {
				t.Fatalf("unexpected jobs (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_views.sql", "0001_init.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "archive.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if diff := cmp.Diff([]string{"0001_init.sql", "0002_views.sql"}, got); diff != "" {
		t.Fatalf("unexpected migrations (-want +got):\n%s", diff)
	}

	if _, err := listMigrations(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestSeedFileAndResolveDir(t *testing.T) {
	if got := seedFile("dev"); got != "dev_seed.sql" {
		t.Fatalf("unexpected seed file %q", got)
	}
	if got := seedFile("demo.sql"); got != "demo.sql" {
		t.Fatalf("unexpected seed file %q", got)
	}

	if got, err := resolveDir("/srv/migrations"); err != nil || got != "/srv/migrations" {
		t.Fatalf("expected absolute dir unchanged, got %q (%v)", got, err)
	}
	got, err := resolveDir("migrations")
	if err != nil {
		t.Fatalf("resolve dir: %v", err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "migrations" {
		t.Fatalf("unexpected resolved dir %q", got)
	}
}

func TestShouldRetryMigration(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "serialization failure", err: fmt.Errorf("apply: %w", &pgconn.PgError{Code: "40001"}), want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetryMigration(tt.err); got != tt.want {
				t.Fatalf("shouldRetryMigration(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMigrationBackoff(t *testing.T) {
	if got := migrationBackoff(1); got != migrationBaseBackoff {
		t.Fatalf("unexpected first backoff %s", got)
	}
	if got := migrationBackoff(2); got != 2*migrationBaseBackoff {
		t.Fatalf("unexpected second backoff %s", got)
	}
	if got := migrationBackoff(10); got != migrationMaxBackoff {
		t.Fatalf("expected backoff to be capped, got %s", got)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without command")
	}
	if err := Run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
