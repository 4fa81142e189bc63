package player

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vidgallery/backend/internal/access"
	"github.com/vidgallery/backend/internal/cache"
	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/models"
)

func newTestDownloads(t *testing.T) *Downloads {
	t.Helper()
	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { store.Close() })
	return NewDownloads(store, "https://example.com/", 0)
}

func downloadSettings() config.Settings {
	settings := config.DefaultSettings()
	settings.Player.Controls = append(settings.Player.Controls, "download")
	return settings
}

func TestDownloadsStoredVideo(t *testing.T) {
	d := newTestDownloads(t)
	videos := &videoStoreStub{videos: map[int64]models.Video{
		7: {ID: 7, MP4: "/uploads/my clip.mp4?isnew=1"},
	}}

	if got := d.URL(7); got != "https://example.com/download?vdl=7" {
		t.Fatalf("unexpected download url %s", got)
	}

	file, err := d.Resolve(context.Background(), "7", videos, downloadSettings(), access.Viewer{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if file != "https://example.com/uploads/my%20clip.mp4" {
		t.Fatalf("unexpected file %s", file)
	}

	if _, err := d.Resolve(context.Background(), "8", videos, downloadSettings(), access.Viewer{}); !errors.Is(err, ErrDownloadNotFound) {
		t.Fatalf("expected ErrDownloadNotFound, got %v", err)
	}
}

func TestDownloadsStoreError(t *testing.T) {
	d := newTestDownloads(t)
	boom := errors.New("db down")

	_, err := d.Resolve(context.Background(), "7", &videoStoreStub{err: boom}, downloadSettings(), access.Viewer{})
	if !errors.Is(err, boom) || errors.Is(err, ErrDownloadNotFound) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestDownloadsToken(t *testing.T) {
	d := newTestDownloads(t)
	ctx := context.Background()

	first := d.TokenURL(ctx, "https://cdn.example.com/a.mp4")
	second := d.TokenURL(ctx, "https://cdn.example.com/a.mp4")
	if first != second {
		t.Fatalf("token must be stable: %s != %s", first, second)
	}

	token := strings.TrimPrefix(first, "https://example.com/download?vdl=")
	if len(token) != 32 {
		t.Fatalf("unexpected token %q", token)
	}

	file, err := d.Resolve(ctx, token, &videoStoreStub{}, config.DefaultSettings(), access.Viewer{})
	if err != nil || file != "https://cdn.example.com/a.mp4" {
		t.Fatalf("resolve token: %q %v", file, err)
	}

	for _, vdl := range []string{"", "  ", "deadbeef"} {
		if _, err := d.Resolve(ctx, vdl, &videoStoreStub{}, config.DefaultSettings(), access.Viewer{}); !errors.Is(err, ErrDownloadNotFound) {
			t.Errorf("Resolve(%q) = %v, want ErrDownloadNotFound", vdl, err)
		}
	}
}

func TestDownloadsRejectsNonHTTP(t *testing.T) {
	d := newTestDownloads(t)
	ctx := context.Background()

	url := d.TokenURL(ctx, "ftp://files.example.com/a.mp4")
	token := strings.TrimPrefix(url, "https://example.com/download?vdl=")

	if _, err := d.Resolve(ctx, token, &videoStoreStub{}, config.DefaultSettings(), access.Viewer{}); !errors.Is(err, ErrDownloadNotFound) {
		t.Fatalf("expected ErrDownloadNotFound, got %v", err)
	}
}

func TestDownloadsWithoutStore(t *testing.T) {
	d := NewDownloads(nil, "https://example.com", 0)
	url := d.TokenURL(context.Background(), "https://cdn.example.com/a.mp4")
	token := strings.TrimPrefix(url, "https://example.com/download?vdl=")

	if _, err := d.Resolve(context.Background(), token, &videoStoreStub{}, config.DefaultSettings(), access.Viewer{}); !errors.Is(err, ErrDownloadNotFound) {
		t.Fatalf("noop store must not resolve tokens, got %v", err)
	}
}

func TestDownloadsStoredVideoChecksViewer(t *testing.T) {
	d := newTestDownloads(t)
	restricted := downloadSettings()
	restricted.Restrictions.Enabled = true
	restricted.Restrictions.AccessControl = int(access.ModeLoggedInWithRoles)

	videos := &videoStoreStub{videos: map[int64]models.Video{
		9:  {ID: 9, MP4: "https://cdn.example.com/secret.mp4", AccessControl: -1},
		10: {ID: 10, MP4: "https://cdn.example.com/off.mp4", AccessControl: -1, Options: map[string]int{"download": 0}},
		11: {ID: 11, MP4: "https://cdn.example.com/draft.mp4", AccessControl: -1, Status: models.StatusPrivate, AuthorID: "author"},
	}}
	member := access.Viewer{UserID: "u1", Roles: []string{"subscriber"}}

	tests := []struct {
		name    string
		vdl     string
		site    config.Settings
		viewer  access.Viewer
		want    string
		wantErr error
	}{
		{name: "restricted for anonymous", vdl: "9", site: restricted, wantErr: ErrDownloadForbidden},
		{name: "allowed for member", vdl: "9", site: restricted, viewer: member, want: "https://cdn.example.com/secret.mp4"},
		{name: "downloads disabled globally", vdl: "9", site: config.DefaultSettings(), viewer: member, wantErr: ErrDownloadForbidden},
		{name: "disabled per video", vdl: "10", site: downloadSettings(), viewer: member, wantErr: ErrDownloadForbidden},
		{name: "unpublished for others", vdl: "11", site: downloadSettings(), viewer: member, wantErr: ErrDownloadForbidden},
		{name: "unpublished for author", vdl: "11", site: downloadSettings(), viewer: access.Viewer{UserID: "author"}, want: "https://cdn.example.com/draft.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := d.Resolve(context.Background(), tt.vdl, videos, tt.site, tt.viewer)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || file != "" {
					t.Fatalf("expected %v, got %q %v", tt.wantErr, file, err)
				}
				return
			}
			if err != nil || file != tt.want {
				t.Fatalf("resolve: got %q %v, want %q", file, err, tt.want)
			}
		})
	}
}

func TestCanDownloadReasons(t *testing.T) {
	site := downloadSettings()
	site.Restrictions.Enabled = true
	site.Restrictions.AccessControl = int(access.ModeLoggedInWithRoles)

	if ok, reason := CanDownload(site, models.Video{ID: 1, AccessControl: -1}, access.Viewer{}); ok || reason != access.ReasonNotLoggedIn {
		t.Fatalf("unexpected decision %v %q", ok, reason)
	}
	if ok, reason := CanDownload(downloadSettings(), models.Video{ID: 1, Status: models.StatusPrivate}, access.Viewer{}); ok || reason != ReasonUnpublished {
		t.Fatalf("unexpected decision %v %q", ok, reason)
	}
	if ok, reason := CanDownload(config.DefaultSettings(), models.Video{ID: 1, Options: map[string]int{"download": 1}}, access.Viewer{}); !ok || reason != "" {
		t.Fatalf("per-video option should enable download, got %v %q", ok, reason)
	}
}
