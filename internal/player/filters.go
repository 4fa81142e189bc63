package player

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vidgallery/backend/internal/cache"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/models"
)

// SourceFilter transforms the native sources before controls are computed.
// video is nil for inline requests.
type SourceFilter func(ctx context.Context, video *models.Video, sources []Source) []Source

// SettingsFilter adjusts the final settings in place.
type SettingsFilter func(ctx context.Context, video *models.Video, settings *Settings)

// MP4Updater persists a rewritten mp4 URL on a stored video.
type MP4Updater interface {
	UpdateMP4(ctx context.Context, videoID int64, mp4 string) error
}

const hlsCheckTTL = time.Hour

// WordPressHLS upgrades mp4 files hosted on videos.files.wordpress.com to the
// HLS manifest served next to them. The manifest is requested once; the answer
// is cached and written back to the video as an "isnew" query parameter.
type WordPressHLS struct {
	Client  *http.Client
	Store   cache.Store
	Updater MP4Updater
}

// Filter implements SourceFilter.
func (w *WordPressHLS) Filter(ctx context.Context, video *models.Video, sources []Source) []Source {
	mp4, ok := findSource(sources, "mp4")
	if !ok {
		return sources
	}
	if _, ok := findSource(sources, "hls"); ok {
		return sources
	}
	if !strings.Contains(mp4.Src, "videos.files.wordpress.com") || !strings.Contains(mp4.Src, ".mp4") {
		return sources
	}

	hlsSrc := strings.Replace(mp4.Src, ".mp4", ".master.m3u8", 1)

	var hasHLS bool
	if flag, ok := isNewFlag(mp4.Src); ok {
		hasHLS = flag
	} else {
		hasHLS = w.manifestExists(ctx, hlsSrc)
		if video != nil && video.Type == models.TypeDefault && w.Updater != nil {
			marked := withIsNew(mp4.Src, hasHLS)
			if err := w.Updater.UpdateMP4(ctx, video.ID, marked); err != nil {
				logging.FromContext(ctx).Warn("record hls availability failed", "videoId", video.ID, "error", err)
			}
		}
	}

	if !hasHLS {
		return sources
	}
	hls := Source{Format: "hls", Type: MimeType("hls", hlsSrc), Src: hlsSrc}
	return append([]Source{hls}, sources...)
}

func isNewFlag(src string) (bool, bool) {
	u, err := url.Parse(src)
	if err != nil || !u.Query().Has("isnew") {
		return false, false
	}
	return CoerceInt(u.Query().Get("isnew")) != 0, true
}

func withIsNew(src string, on bool) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	q := u.Query()
	if on {
		q.Set("isnew", "1")
	} else {
		q.Set("isnew", "0")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (w *WordPressHLS) manifestExists(ctx context.Context, manifest string) bool {
	store := w.Store
	if store == nil {
		store = cache.Noop{}
	}
	sum := md5.Sum([]byte(manifest))
	key := "hls:" + hex.EncodeToString(sum[:])
	if cached, ok := store.Get(ctx, key); ok {
		return string(cached) == "1"
	}

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifest, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		logging.FromContext(ctx).Warn("hls manifest request failed", "url", manifest, "error", err)
		return false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()

	ok := resp.StatusCode == http.StatusOK
	value := []byte("0")
	if ok {
		value = []byte("1")
	}
	store.Set(ctx, key, value, hlsCheckTTL)
	return ok
}
