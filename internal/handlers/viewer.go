package handlers

import (
	"net/http"
	"strings"

	"github.com/vidgallery/backend/internal/access"
	"github.com/vidgallery/backend/internal/logging"
)

// viewerResolver identifies the user behind a request from its bearer token.
type viewerResolver struct {
	Sessions SessionManager
	Users    UserStore
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// viewer returns the anonymous viewer when the request carries no valid token.
func (v viewerResolver) viewer(r *http.Request) access.Viewer {
	token := bearerToken(r)
	if token == "" || v.Sessions == nil || v.Users == nil {
		return access.Viewer{}
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, err := v.Sessions.Authenticate(ctx, token)
	if err != nil {
		logger.Debug("bearer token rejected", "error", err)
		return access.Viewer{}
	}

	user, err := v.Users.FindByID(ctx, userID)
	if err != nil {
		logger.Warn("viewer lookup failed", "userId", userID, "error", err)
		return access.Viewer{}
	}

	return access.Viewer{UserID: user.ID, Roles: user.Roles}
}
