package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidgallery/backend/internal/access"
	"github.com/vidgallery/backend/internal/cache"
	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/player"
)

type downloadsStub struct {
	err error
}

func (d downloadsStub) Resolve(context.Context, string, player.VideoStore, config.Settings, access.Viewer) (string, error) {
	return "", d.err
}

func downloadSettings() config.Settings {
	settings := config.DefaultSettings()
	settings.Player.Controls = append(settings.Player.Controls, "download")
	return settings
}

func TestDownloadHandlerRedirects(t *testing.T) {
	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	downloads := player.NewDownloads(store, "https://example.com", 0)
	videos := newVideoStoreStub(models.Video{ID: 7, MP4: "/uploads/clip.mp4?isnew=1"})
	handler := DownloadHandler{Downloads: downloads, Videos: videos, Settings: config.StaticSettings(downloadSettings())}

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "stored video", target: "/download?vdl=7", want: "https://example.com/uploads/clip.mp4"},
		{name: "inline token", target: "/download?vdl=TOKEN", want: "https://cdn.example.com/a%20b.mp4"},
	}

	tokenURL := downloads.TokenURL(context.Background(), "https://cdn.example.com/a b.mp4")
	token := tokenURL[len("https://example.com/download?vdl="):]

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.target
			if target == "/download?vdl=TOKEN" {
				target = "/download?vdl=" + token
			}

			rec := httptest.NewRecorder()
			handler.Download(rec, httptest.NewRequest(http.MethodGet, target, nil))

			if rec.Code != http.StatusFound {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusFound)
			}
			if got := rec.Header().Get("Location"); got != tt.want {
				t.Fatalf("unexpected location: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestDownloadHandlerEnforcesAccess(t *testing.T) {
	store := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	restricted := downloadSettings()
	restricted.Restrictions.Enabled = true
	restricted.Restrictions.AccessControl = int(access.ModeLoggedInWithRoles)

	videos := newVideoStoreStub(
		models.Video{ID: 9, MP4: "https://cdn.example.com/secret.mp4", AccessControl: -1},
		models.Video{ID: 10, MP4: "https://cdn.example.com/off.mp4", AccessControl: -1, Options: map[string]int{"download": 0}},
	)
	member := models.User{ID: "u-1", Email: "member@example.com", Roles: []string{"subscriber"}}
	handler := DownloadHandler{
		Downloads: player.NewDownloads(store, "https://example.com", 0),
		Videos:    videos,
		Settings:  config.StaticSettings(restricted),
		Viewers:   newViewers("member-token", member),
	}

	tests := []struct {
		name  string
		vdl   int64
		token string
		want  int
	}{
		{name: "anonymous denied", vdl: 9, want: http.StatusForbidden},
		{name: "member allowed", vdl: 9, token: "member-token", want: http.StatusFound},
		{name: "per-video download off", vdl: 10, token: "member-token", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/download?vdl=%d", tt.vdl), nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			handler.Download(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusForbidden && rec.Header().Get("Location") != "" {
				t.Fatal("refused downloads must not reveal the file location")
			}
		})
	}
}

func TestDownloadHandlerFailures(t *testing.T) {
	settings := config.StaticSettings(config.DefaultSettings())

	tests := []struct {
		name    string
		handler DownloadHandler
		want    int
	}{
		{name: "missing dependencies", handler: DownloadHandler{}, want: http.StatusInternalServerError},
		{name: "not found", handler: DownloadHandler{Downloads: downloadsStub{err: player.ErrDownloadNotFound}, Videos: newVideoStoreStub(), Settings: settings}, want: http.StatusNotFound},
		{name: "forbidden", handler: DownloadHandler{Downloads: downloadsStub{err: player.ErrDownloadForbidden}, Videos: newVideoStoreStub(), Settings: settings}, want: http.StatusForbidden},
		{name: "store failure", handler: DownloadHandler{Downloads: downloadsStub{err: errors.New("boom")}, Videos: newVideoStoreStub(), Settings: settings}, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler.Download(rec, httptest.NewRequest(http.MethodGet, "/download?vdl=1", nil))

			if rec.Code != tt.want {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, tt.want)
			}
		})
	}
}
