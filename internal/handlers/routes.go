package handlers

import (
	"net/http"

	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/metrics"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	viewers := viewerResolver{Sessions: deps.Sessions, Users: deps.Users}

	health := HealthHandler{Checks: deps.HealthChecks}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Settings: deps.Settings, RateLimiter: deps.AuthRateLimiter}
	players := PlayerHandler{Resolver: deps.Player, Viewers: viewers}
	embed := EmbedHandler{Player: players, Settings: deps.Settings}
	videos := VideoHandler{Videos: deps.Videos, Settings: deps.Settings, Viewers: viewers, RateLimiter: deps.CounterRateLimiter}
	downloads := DownloadHandler{Downloads: deps.Downloads, Videos: deps.Videos, Settings: deps.Settings, Viewers: viewers}

	mux.HandleFunc("/healthz", health.Handle)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/player", players.Settings)
	mux.HandleFunc("/api/v1/player/{id}", players.Settings)
	mux.HandleFunc("/player", embed.Page)
	mux.HandleFunc("/player/{id}", embed.Page)
	mux.HandleFunc("/api/v1/videos/{id}/views", videos.Views)
	mux.HandleFunc("/api/v1/videos/{id}/likes", videos.Likes)
	mux.HandleFunc("/download", downloads.Download)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users              UserStore
	Sessions           SessionManager
	Videos             VideoStore
	Player             PlayerResolver
	Downloads          DownloadResolver
	Settings           config.SettingsSource
	AuthRateLimiter    RateLimiter
	CounterRateLimiter RateLimiter
	HealthChecks       map[string]HealthCheck
}
