package repositories

import (
	"context"

	"github.com/vidgallery/backend/internal/models"
)

// VideoRepository exposes data access for gallery videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) (int64, error)
	FindByID(ctx context.Context, id int64) (models.Video, error)
	IncrementViews(ctx context.Context, id int64) (int64, error)
	SetDuration(ctx context.Context, id int64, duration string) error
	SetPoster(ctx context.Context, id int64, poster string) error
	UpdateMP4(ctx context.Context, id int64, mp4 string) error
	React(ctx context.Context, id int64, userID, reaction string) (models.ReactionCounts, error)
}
