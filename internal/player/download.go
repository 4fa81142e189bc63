package player

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vidgallery/backend/internal/access"
	"github.com/vidgallery/backend/internal/cache"
	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/repositories"
)

// DefaultDownloadTTL bounds how long an inline download token stays valid.
const DefaultDownloadTTL = time.Hour

var (
	// ErrDownloadNotFound is returned when a download id resolves to no file.
	ErrDownloadNotFound = errors.New("download not found")
	// ErrDownloadForbidden is returned when the viewer may not fetch the file.
	ErrDownloadForbidden = errors.New("download forbidden")
)

// Reasons attached to ErrDownloadForbidden besides access decision reasons.
const (
	ReasonUnpublished      = "unpublished"
	ReasonDownloadDisabled = "download_disabled"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Downloads issues and resolves the ids used by the download endpoint.
// Stored videos use their numeric id; inline sources get a temporary token.
type Downloads struct {
	store   cache.Store
	siteURL string
	ttl     time.Duration
}

// NewDownloads returns a Downloads that keeps tokens in store.
func NewDownloads(store cache.Store, siteURL string, ttl time.Duration) *Downloads {
	if store == nil {
		store = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultDownloadTTL
	}
	return &Downloads{store: store, siteURL: strings.TrimRight(siteURL, "/"), ttl: ttl}
}

func downloadKey(token string) string {
	return "download:" + token
}

// URL returns the download link for a stored video.
func (d *Downloads) URL(videoID int64) string {
	return d.siteURL + "/download?vdl=" + strconv.FormatInt(videoID, 10)
}

// TokenURL registers path under its md5 token and returns the download link.
// The same path always yields the same token.
func (d *Downloads) TokenURL(ctx context.Context, path string) string {
	sum := md5.Sum([]byte(path))
	token := hex.EncodeToString(sum[:])
	d.store.Set(ctx, downloadKey(token), []byte(path), d.ttl)
	return d.siteURL + "/download?vdl=" + token
}

// downloadEnabled applies the per-video download option over the global
// player setting.
func downloadEnabled(site config.Settings, video models.Video) bool {
	flag := site.Player.Flag("download")
	if v, ok := video.Options["download"]; ok {
		flag = v
	}
	return flag > 0
}

// CanDownload reports whether viewer may fetch the file of a stored video,
// and the reason when not. The video must be visible to the viewer and have
// downloads enabled.
func CanDownload(site config.Settings, video models.Video, viewer access.Viewer) (bool, string) {
	policy, item := PolicyFrom(site.Restrictions), ItemFrom(video)
	if !video.Published() && !access.CanReadUnpublished(policy, item, viewer) {
		return false, ReasonUnpublished
	}
	if decision := access.Evaluate(policy, item, viewer); !decision.Allowed {
		return false, decision.Reason
	}
	if !downloadEnabled(site, video) {
		return false, ReasonDownloadDisabled
	}
	return true, ""
}

// Resolve maps a download id back to the file URL. Numeric ids are checked
// with CanDownload for viewer; tokens were only issued to viewers allowed to
// play the source.
func (d *Downloads) Resolve(ctx context.Context, vdl string, videos VideoStore, site config.Settings, viewer access.Viewer) (string, error) {
	vdl = strings.TrimSpace(vdl)
	if vdl == "" {
		return "", ErrDownloadNotFound
	}

	var file string
	if id, err := strconv.ParseInt(vdl, 10, 64); err == nil {
		video, err := videos.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return "", ErrDownloadNotFound
			}
			return "", fmt.Errorf("find video: %w", err)
		}
		if ok, reason := CanDownload(site, video, viewer); !ok {
			return "", fmt.Errorf("%w: %s", ErrDownloadForbidden, reason)
		}
		file = MakeURLAbsolute(video.MP4, d.siteURL)
	} else {
		raw, ok := d.store.Get(ctx, downloadKey(vdl))
		if !ok {
			return "", ErrDownloadNotFound
		}
		file = string(raw)
	}

	file = whitespaceRun.ReplaceAllString(strings.TrimSpace(removeQueryArgs(file, "isnew")), "%20")
	if file == "" {
		return "", ErrDownloadNotFound
	}
	if u, err := url.Parse(file); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrDownloadNotFound
	}
	return file, nil
}
