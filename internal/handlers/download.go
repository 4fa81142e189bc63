package handlers

import (
	"errors"
	"net/http"

	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/player"
)

// DownloadHandler redirects download links to the underlying mp4 file.
type DownloadHandler struct {
	Downloads DownloadResolver
	Videos    player.VideoStore
	Settings  config.SettingsSource
	Viewers   viewerResolver
}

// Download handles GET /download?vdl=<id|token>. Stored videos are only
// served to viewers allowed to play them and with downloads enabled.
func (h DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Downloads == nil || h.Videos == nil || h.Settings == nil {
		logger.Error("download dependencies unavailable",
			"hasDownloads", h.Downloads != nil,
			"hasVideos", h.Videos != nil,
			"hasSettings", h.Settings != nil,
		)
		http.Error(w, "download service unavailable", http.StatusInternalServerError)
		return
	}

	site, err := h.Settings.Settings(ctx)
	if err != nil {
		logger.Error("load settings failed", "error", err)
		http.Error(w, "download service unavailable", http.StatusInternalServerError)
		return
	}

	vdl := r.URL.Query().Get("vdl")
	file, err := h.Downloads.Resolve(ctx, vdl, h.Videos, site, h.Viewers.viewer(r))
	switch {
	case err == nil:
		http.Redirect(w, r, file, http.StatusFound)
	case errors.Is(err, player.ErrDownloadNotFound):
		logger.Warn("download not found", "vdl", vdl)
		http.Error(w, "File is not readable or not found.", http.StatusNotFound)
	case errors.Is(err, player.ErrDownloadForbidden):
		logger.Warn("download refused", "vdl", vdl, "error", err)
		http.Error(w, "You do not have permission to download this file.", http.StatusForbidden)
	default:
		logger.Error("resolve download failed", "error", err)
		http.Error(w, "unable to resolve download", http.StatusInternalServerError)
	}
}
