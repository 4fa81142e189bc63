package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/player"
)

// ConsentCookie is set by the client once the viewer accepts third-party cookies.
const ConsentCookie = "aiovg_gdpr_consent"

var errInvalidVideoID = errors.New("invalid video id")

// PlayerHandler serves resolved player settings.
type PlayerHandler struct {
	Resolver PlayerResolver
	Viewers  viewerResolver
}

// Settings handles GET /api/v1/player/{id} and GET /api/v1/player.
func (h PlayerHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Resolver == nil {
		logger.Error("player resolver unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "player service unavailable"})
		return
	}

	req, err := h.playerRequest(r)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := h.Resolver.Resolve(ctx, req)
	if err != nil {
		logger.Error("resolve player failed", "videoId", req.VideoID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to resolve player"})
		return
	}

	if res.Mode == player.ModeEmpty {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "no playable video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, res)
}

// playerRequest reads the video id from the path or the id parameter, falling
// back to inline sources when neither is set.
func (h PlayerHandler) playerRequest(r *http.Request) (player.Request, error) {
	q := r.URL.Query()

	rawID := r.PathValue("id")
	if rawID == "" {
		rawID = q.Get("id")
	}

	req := player.Request{
		Overrides:    player.ParseOverrides(q),
		Viewer:       h.Viewers.viewer(r),
		ReferenceID:  strings.TrimSpace(q.Get("uid")),
		ConsentGiven: consentGiven(r),
	}

	if rawID != "" {
		id, err := parseVideoID(rawID)
		if err != nil {
			return player.Request{}, err
		}
		req.VideoID = id
		return req, nil
	}

	req.Inline = player.ParseAttributes(q)
	return req, nil
}

func parseVideoID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidVideoID
	}
	return id, nil
}

func consentGiven(r *http.Request) bool {
	cookie, err := r.Cookie(ConsentCookie)
	if err != nil {
		return false
	}
	return player.CoerceInt(cookie.Value) > 0
}
