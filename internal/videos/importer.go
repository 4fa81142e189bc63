package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vidgallery/backend/internal/metrics"
	"github.com/vidgallery/backend/internal/models"
)

// AssetStorage persists imported files and returns their public location.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// PosterUpdater records the imported poster on the video.
type PosterUpdater interface {
	SetPoster(ctx context.Context, videoID int64, poster string) error
}

// ThumbnailSource resolves the remote thumbnail of a provider URL.
type ThumbnailSource interface {
	Thumbnail(ctx context.Context, typ, url string) string
}

// AssetFetcher downloads a remote file.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, string, error)
}

// ThumbnailImporterConfig controls the concurrency characteristics of the importer.
type ThumbnailImporterConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// ThumbnailJob asks for the provider thumbnail of a video to be copied into
// object storage.
type ThumbnailJob struct {
	VideoID int64
	Type    string
	URL     string
}

// ThumbnailImporter copies provider thumbnails into object storage in the
// background and records them as the video poster.
type ThumbnailImporter struct {
	source  ThumbnailSource
	fetcher AssetFetcher
	storage AssetStorage
	updater PosterUpdater
	logger  *slog.Logger
	timeout time.Duration

	jobs    chan ThumbnailJob
	pending sync.Map
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

var errImporterClosed = errors.New("thumbnail importer closed")

// NewThumbnailImporter starts cfg.Workers goroutines that drain the job queue
// until Shutdown.
func NewThumbnailImporter(source ThumbnailSource, fetcher AssetFetcher, storage AssetStorage, updater PosterUpdater, cfg ThumbnailImporterConfig, logger *slog.Logger) *ThumbnailImporter {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	imp := &ThumbnailImporter{
		source:  source,
		fetcher: fetcher,
		storage: storage,
		updater: updater,
		logger:  logger,
		timeout: cfg.Timeout,
		jobs:    make(chan ThumbnailJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	imp.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go imp.worker()
	}

	return imp
}

// Enqueue schedules a thumbnail import. It blocks while the queue is full.
func (i *ThumbnailImporter) Enqueue(ctx context.Context, job ThumbnailJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errImporterClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errImporterClosed
	case i.jobs <- job:
		return nil
	}
}

// Offer queues job without blocking. It reports false when the job was not
// queued, including when a job for the same video is still waiting or running.
func (i *ThumbnailImporter) Offer(job ThumbnailJob) bool {
	if i.ctx.Err() != nil {
		return false
	}
	if _, loaded := i.pending.LoadOrStore(job.VideoID, struct{}{}); loaded {
		return false
	}

	select {
	case i.jobs <- job:
		return true
	default:
		i.pending.Delete(job.VideoID)
		return false
	}
}

// Shutdown stops accepting jobs and waits for in-flight work to finish.
func (i *ThumbnailImporter) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *ThumbnailImporter) worker() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		case job := <-i.jobs:
			i.handleJob(job)
		}
	}
}

func (i *ThumbnailImporter) handleJob(job ThumbnailJob) {
	defer i.pending.Delete(job.VideoID)

	logger := i.logger.With(slog.Int64("videoId", job.VideoID), slog.String("type", job.Type))

	if i.source == nil || i.fetcher == nil || i.storage == nil || i.updater == nil {
		logger.Error("thumbnail importer missing dependencies")
		metrics.RecordThumbnailImport("misconfigured")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	location, err := i.importThumbnail(ctx, job)
	if err != nil {
		logger.Warn("thumbnail import failed", slog.String("url", job.URL), slog.Any("error", err))
		metrics.RecordThumbnailImport("failed")
		return
	}

	logger.Info("thumbnail imported", slog.String("location", location))
	metrics.RecordThumbnailImport("imported")
}

func (i *ThumbnailImporter) importThumbnail(ctx context.Context, job ThumbnailJob) (string, error) {
	remote := i.source.Thumbnail(ctx, job.Type, job.URL)
	if remote == "" {
		return "", ErrNoMetadata
	}

	body, _, err := i.fetcher.Fetch(ctx, remote)
	if err != nil {
		return "", fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer body.Close()

	prefixed := &prefixedStorage{prefix: path.Join("posters", strconv.FormatInt(job.VideoID, 10)), base: i.storage}
	location, err := prefixed.Save(ctx, thumbnailName(remote), body)
	if err != nil {
		return "", err
	}

	if err := i.updater.SetPoster(ctx, job.VideoID, location); err != nil {
		return "", fmt.Errorf("record poster: %w", err)
	}
	return location, nil
}

// ThumbnailJobFor returns the import job for a stored provider video that has
// no poster yet.
func ThumbnailJobFor(v models.Video) (ThumbnailJob, bool) {
	if v.ID == 0 || strings.TrimSpace(v.Poster) != "" {
		return ThumbnailJob{}, false
	}

	var src string
	switch v.Type {
	case models.TypeYouTube:
		src = v.YouTube
	case models.TypeVimeo:
		src = v.Vimeo
	case models.TypeDailymotion:
		src = v.Dailymotion
	case models.TypeRumble:
		src = v.Rumble
	case models.TypeEmbedCode:
		src = v.EmbedCode
	}
	if strings.TrimSpace(src) == "" {
		return ThumbnailJob{}, false
	}
	return ThumbnailJob{VideoID: v.ID, Type: v.Type, URL: src}, true
}

// thumbnailName derives an object name from the remote URL, defaulting to a jpg.
func thumbnailName(remote string) string {
	name := "thumbnail.jpg"
	if u, err := url.Parse(remote); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	if path.Ext(name) == "" {
		name += ".jpg"
	}
	return name
}

type prefixedStorage struct {
	prefix string
	base   AssetStorage
}

func (p *prefixedStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if p.base == nil {
		return "", fmt.Errorf("prefix storage: %w", ErrAssetStorageUnavailable)
	}
	key := path.Join(p.prefix, name)
	if strings.TrimSpace(key) == "" {
		return "", errors.New("prefix storage: empty key")
	}
	return p.base.Save(ctx, key, r)
}
