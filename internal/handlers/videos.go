package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/metrics"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/repositories"
	"github.com/vidgallery/backend/internal/videos"
)

// ViewsCookie remembers the videos a browser has already been counted for.
const ViewsCookie = "aiovg_videos_views"

const viewsCookieMaxAge = 30 * 24 * time.Hour

// VideoHandler records views and reactions on stored videos.
type VideoHandler struct {
	Videos      VideoStore
	Settings    config.SettingsSource
	Viewers     viewerResolver
	RateLimiter RateLimiter
}

// Views handles POST /api/v1/videos/{id}/views. A browser is counted once per
// video unless the views cookie is disabled in the privacy settings. An
// optional duration in seconds fills an empty stored duration.
func (h VideoHandler) Views(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	if !guardRate(w, r, h.RateLimiter, "views") {
		return
	}

	id, err := parseVideoID(r.PathValue("id"))
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		return
	}
	if err != nil {
		logger.Error("views video lookup failed", "videoId", id, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to record view"})
		return
	}

	useCookie := true
	if h.Settings != nil {
		site, err := h.Settings.Settings(ctx)
		if err != nil {
			logger.Warn("views settings unavailable", "error", err)
		} else {
			useCookie = !slices.Contains(site.Privacy.DisableCookies, ViewsCookie)
		}
	}

	views := video.Views
	counted := false
	visited := visitedVideos(r)
	if !useCookie || !slices.Contains(visited, id) {
		views, err = h.Videos.IncrementViews(ctx, id)
		if err != nil {
			logger.Error("increment views failed", "videoId", id, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to record view"})
			return
		}
		counted = true
		metrics.RecordVideoEvent("view")

		if useCookie {
			setVisitedVideos(w, append(visited, id))
		}
	}

	if duration := videos.HumanDuration(int(durationSeconds(r))); duration != "" && strings.TrimSpace(video.Duration) == "" {
		if err := h.Videos.SetDuration(ctx, id, duration); err != nil {
			logger.Warn("store reported duration failed", "videoId", id, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, viewsResponse{Views: views, Counted: counted})
}

// Likes handles POST /api/v1/videos/{id}/likes. Repeating the current
// reaction withdraws it.
func (h VideoHandler) Likes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	if !guardRate(w, r, h.RateLimiter, "likes") {
		return
	}

	id, err := parseVideoID(r.PathValue("id"))
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	viewer := h.Viewers.viewer(r)
	if !viewer.LoggedIn() {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return
	}

	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reaction payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action != models.ReactionLike && action != models.ReactionDislike {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "action must be like or dislike"})
		return
	}

	counts, err := h.Videos.React(ctx, id, viewer.UserID, action)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("record reaction failed", "videoId", id, "userId", viewer.UserID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to record reaction"})
		return
	}

	if counts.Reaction != "" {
		metrics.RecordVideoEvent(counts.Reaction)
	}

	respondJSON(ctx, w, http.StatusOK, counts)
}

type viewsResponse struct {
	Views   int64 `json:"views"`
	Counted bool  `json:"counted"`
}

type reactionRequest struct {
	Action string `json:"action"`
}

// visitedVideos reads the pipe separated id list of the views cookie.
func visitedVideos(r *http.Request) []int64 {
	cookie, err := r.Cookie(ViewsCookie)
	if err != nil {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(cookie.Value, "|") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func setVisitedVideos(w http.ResponseWriter, ids []int64) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ViewsCookie,
		Value:    strings.Join(parts, "|"),
		Path:     "/",
		MaxAge:   int(viewsCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// durationSeconds reads the optional duration from the query string or a
// JSON body.
func durationSeconds(r *http.Request) float64 {
	raw := r.URL.Query().Get("duration")
	if raw == "" && r.Body != nil {
		var body struct {
			Duration json.Number `json:"duration"`
		}
		data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
		if err == nil && len(data) > 0 && json.Unmarshal(data, &body) == nil {
			raw = body.Duration.String()
		}
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return seconds
}
