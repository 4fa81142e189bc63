package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidgallery/backend/internal/auth"
	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/repositories"
)

const minPasswordLength = 8

// AuthHandler signs gallery viewers up and in. Every successful response
// carries the viewer's roles, which decide access to restricted videos.
type AuthHandler struct {
	Users       UserStore
	Sessions    SessionManager
	Settings    config.SettingsSource
	RateLimiter RateLimiter
	NowFunc     func() time.Time
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// viewerProfile describes the signed-in viewer as the access rules see them.
type viewerProfile struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Manager bool     `json:"manager"`
}

type authResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
	Viewer viewerProfile        `json:"viewer"`
}

// Login handles POST /api/v1/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.begin(w, r, "login")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := h.Users.FindByEmail(ctx, creds.Email)
	if err != nil {
		logger.Warn("login user lookup failed", "email", creds.Email, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issue(ctx, w, http.StatusOK, user)
}

// SignUp handles POST /api/v1/auth/signup. New accounts get the role named
// by the general settings.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.begin(w, r, "signup")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, err := mail.ParseAddress(creds.Email); err != nil {
		logger.Warn("signup invalid email", "email", creds.Email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(creds.Password) < minPasswordLength {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	switch _, err := h.Users.FindByEmail(ctx, creds.Email); {
	case err == nil:
		respondError(ctx, w, http.StatusConflict, "account already exists")
		return
	case !errors.Is(err, repositories.ErrNotFound):
		logger.Error("signup user lookup failed", "error", err, "email", creds.Email)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     creds.Email,
		Password:  string(hashed),
		Roles:     []string{h.defaultRole(ctx)},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "account already exists")
			return
		}
		logger.Error("signup failed to create user", "error", err, "email", creds.Email)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	h.issue(ctx, w, http.StatusCreated, user)
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token is rotated
// and the viewer's current roles are returned with the new pair.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			status = http.StatusUnauthorized
		}
		logger.Warn("refresh failed", "error", err, "status", status)
		respondError(ctx, w, status, "unable to refresh session")
		return
	}

	userID, err := h.Sessions.Authenticate(ctx, tokens.AccessToken)
	if err != nil {
		logger.Error("refreshed access token rejected", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}
	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNotFound) {
			status = http.StatusUnauthorized
		}
		logger.Warn("refresh user lookup failed", "userId", userID, "error", err)
		respondError(ctx, w, status, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens, Viewer: h.profile(ctx, user)})
}

// begin runs the checks shared by login and signup and decodes the
// credentials. It writes the error response and returns false on failure.
func (h AuthHandler) begin(w http.ResponseWriter, r *http.Request, scope string) (credentials, bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return credentials{}, false
	}
	if !guardRate(w, r, h.RateLimiter, scope) {
		return credentials{}, false
	}

	ctx := r.Context()
	if h.Users == nil || h.Sessions == nil {
		logging.FromContext(ctx).Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return credentials{}, false
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		logging.FromContext(ctx).Warn("invalid credentials payload", "scope", scope, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return credentials{}, false
	}
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))
	if creds.Email == "" || creds.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return credentials{}, false
	}
	return creds, true
}

// issue opens a session for user and writes it with the viewer profile.
func (h AuthHandler) issue(ctx context.Context, w http.ResponseWriter, status int, user models.User) {
	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondJSON(ctx, w, status, authResponse{Tokens: tokens, Viewer: h.profile(ctx, user)})
}

func (h AuthHandler) profile(ctx context.Context, user models.User) viewerProfile {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return viewerProfile{
		ID:      user.ID,
		Email:   user.Email,
		Roles:   roles,
		Manager: lo.Some(roles, lo.Compact(h.site(ctx).Restrictions.ManagerRoles)),
	}
}

func (h AuthHandler) defaultRole(ctx context.Context) string {
	if role := strings.TrimSpace(h.site(ctx).General.DefaultRole); role != "" {
		return role
	}
	return config.DefaultRole
}

// site returns the current settings, falling back to the defaults when the
// source is missing or failing.
func (h AuthHandler) site(ctx context.Context) config.Settings {
	if h.Settings == nil {
		return config.DefaultSettings()
	}
	site, err := h.Settings.Settings(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("load settings failed, using defaults", "error", err)
		return config.DefaultSettings()
	}
	return site
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
