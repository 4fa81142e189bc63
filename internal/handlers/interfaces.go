package handlers

import (
	"context"

	"github.com/vidgallery/backend/internal/access"
	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/player"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// VideoStore captures the video operations behind the counters endpoints.
type VideoStore interface {
	FindByID(ctx context.Context, id int64) (models.Video, error)
	IncrementViews(ctx context.Context, id int64) (int64, error)
	SetDuration(ctx context.Context, id int64, duration string) error
	React(ctx context.Context, id int64, userID, reaction string) (models.ReactionCounts, error)
}

// PlayerResolver turns a player request into render-ready settings.
type PlayerResolver interface {
	Resolve(ctx context.Context, req player.Request) (player.Result, error)
}

// DownloadResolver maps download ids back to file URLs.
type DownloadResolver interface {
	Resolve(ctx context.Context, vdl string, videos player.VideoStore, site config.Settings, viewer access.Viewer) (string, error)
}
