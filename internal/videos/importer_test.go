package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/models"
)

type assetStorageStub struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (s *assetStorageStub) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[name] = data
	return fmt.Sprintf("https://cdn.example.com/%s", name), nil
}

func (s *assetStorageStub) get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[name]
	return data, ok
}

type posterUpdaterStub struct {
	mu      sync.Mutex
	posters map[int64]string
	err     error
}

func (s *posterUpdaterStub) SetPoster(_ context.Context, videoID int64, poster string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.posters == nil {
		s.posters = make(map[int64]string)
	}
	s.posters[videoID] = poster
	return nil
}

func (s *posterUpdaterStub) poster(videoID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posters[videoID]
}

type thumbnailSourceStub map[string]string

func (s thumbnailSourceStub) Thumbnail(_ context.Context, _ string, url string) string {
	return s[url]
}

type fetcherStub struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fetcherStub) Fetch(_ context.Context, url string) (io.ReadCloser, string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, "", f.err
	}
	return io.NopCloser(strings.NewReader("image:" + url)), "image/jpeg", nil
}

func (f *fetcherStub) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func shutdown(t *testing.T, imp *ThumbnailImporter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := imp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestThumbnailImporterSuccess(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	source := thumbnailSourceStub{"https://vimeo.com/76979871": "https://i.vimeocdn.com/video/large.jpg?isnew=1"}
	storage := &assetStorageStub{}
	updater := &posterUpdaterStub{}
	imp := NewThumbnailImporter(source, &fetcherStub{}, storage, updater, ThumbnailImporterConfig{QueueSize: 1, Workers: 2}, logging.Discard())

	if err := imp.Enqueue(context.Background(), ThumbnailJob{VideoID: 42, Type: ProviderVimeo, URL: "https://vimeo.com/76979871"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return updater.poster(42) != "" }, time.Second)
	shutdown(t, imp)

	if got := updater.poster(42); got != "https://cdn.example.com/posters/42/large.jpg" {
		t.Fatalf("unexpected poster %q", got)
	}
	data, ok := storage.get("posters/42/large.jpg")
	if !ok || !strings.HasPrefix(string(data), "image:") {
		t.Fatalf("expected stored image, got %q ok=%v", data, ok)
	}
}

func TestThumbnailImporterFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	source := thumbnailSourceStub{"https://rumble.com/v1": "https://sp.rmbl.ws/t"}
	fetcher := &fetcherStub{err: ErrProviderUnavailable}
	updater := &posterUpdaterStub{}
	imp := NewThumbnailImporter(source, fetcher, &assetStorageStub{}, updater, ThumbnailImporterConfig{}, nil)

	// unknown url: no thumbnail, fetcher is never called
	if err := imp.Enqueue(context.Background(), ThumbnailJob{VideoID: 1, Type: ProviderRumble, URL: "https://rumble.com/unknown"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := imp.Enqueue(context.Background(), ThumbnailJob{VideoID: 2, Type: ProviderRumble, URL: "https://rumble.com/v1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return fetcher.count() == 1 }, time.Second)
	shutdown(t, imp)

	if updater.poster(1) != "" || updater.poster(2) != "" {
		t.Fatal("expected no posters recorded on failure")
	}
}

func TestThumbnailImporterEnqueueAfterShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	imp := NewThumbnailImporter(thumbnailSourceStub{}, &fetcherStub{}, &assetStorageStub{}, &posterUpdaterStub{}, ThumbnailImporterConfig{Workers: 1}, nil)
	shutdown(t, imp)

	err := imp.Enqueue(context.Background(), ThumbnailJob{VideoID: 1})
	if !errors.Is(err, errImporterClosed) {
		t.Fatalf("expected closed error got %v", err)
	}
}

func TestThumbnailImporterEnqueueHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	imp := NewThumbnailImporter(thumbnailSourceStub{}, &fetcherStub{}, &assetStorageStub{}, &posterUpdaterStub{}, ThumbnailImporterConfig{Workers: 1}, nil)
	defer shutdown(t, imp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := imp.Enqueue(ctx, ThumbnailJob{VideoID: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error got %v", err)
	}
}

func TestThumbnailName(t *testing.T) {
	cases := map[string]string{
		"https://img.youtube.com/vi/abc/maxresdefault.jpg": "maxresdefault.jpg",
		"https://sp.rmbl.ws/t":                             "t.jpg",
		"https://example.com/":                             "thumbnail.jpg",
	}
	for in, want := range cases {
		if got := thumbnailName(in); got != want {
			t.Errorf("thumbnailName(%q) = %q want %q", in, got, want)
		}
	}
}

type blockingSource struct {
	release chan struct{}
}

func (s blockingSource) Thumbnail(ctx context.Context, _ string, url string) string {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return url + ".jpg"
}

func TestThumbnailImporterOfferSkipsPendingVideo(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	source := blockingSource{release: make(chan struct{})}
	updater := &posterUpdaterStub{}
	imp := NewThumbnailImporter(source, &fetcherStub{}, &assetStorageStub{}, updater, ThumbnailImporterConfig{QueueSize: 4, Workers: 1}, logging.Discard())

	job := ThumbnailJob{VideoID: 5, Type: ProviderYouTube, URL: "https://youtu.be/abc"}
	if !imp.Offer(job) {
		t.Fatal("expected first offer to be accepted")
	}
	if imp.Offer(job) {
		t.Fatal("expected duplicate offer to be rejected while pending")
	}

	close(source.release)
	waitForCondition(t, func() bool { return updater.poster(5) != "" }, time.Second)
	waitForCondition(t, func() bool { return imp.Offer(job) }, time.Second)

	shutdown(t, imp)
	if imp.Offer(ThumbnailJob{VideoID: 6}) {
		t.Fatal("expected offer after shutdown to be rejected")
	}
}

func TestThumbnailJobFor(t *testing.T) {
	job, ok := ThumbnailJobFor(models.Video{ID: 3, Type: models.TypeVimeo, Vimeo: "https://vimeo.com/76979871"})
	if !ok || job != (ThumbnailJob{VideoID: 3, Type: models.TypeVimeo, URL: "https://vimeo.com/76979871"}) {
		t.Fatalf("unexpected job %+v ok=%v", job, ok)
	}

	for _, v := range []models.Video{
		{ID: 3, Type: models.TypeVimeo, Vimeo: "https://vimeo.com/1", Poster: "/p.jpg"},
		{ID: 3, Type: models.TypeDefault, MP4: "/a.mp4"},
		{ID: 0, Type: models.TypeYouTube, YouTube: "https://youtu.be/x"},
		{ID: 3, Type: models.TypeFacebook, Facebook: "https://facebook.com/v/1"},
	} {
		if _, ok := ThumbnailJobFor(v); ok {
			t.Errorf("expected no job for %+v", v)
		}
	}
}

func waitForCondition(t *testing.T, predicate func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
