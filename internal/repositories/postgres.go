package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidgallery/backend/internal/db"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/videos"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func rolesOrEmpty(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, roles, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Email, user.Password, rolesOrEmpty(user.Roles), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column is one of two constants chosen by the callers above.
	row := conn.QueryRow(ctx, `
        SELECT id::TEXT, email, password_hash, roles, created_at, updated_at
        FROM users
        WHERE `+column+`::TEXT = $1
    `, value)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.Roles, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, roles = $4, updated_at = $5
        WHERE id = $1
    `, user.ID, user.Email, user.Password, rolesOrEmpty(user.Roles), user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for gallery videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `
    id, title, slug, description, COALESCE(author_id::TEXT, ''), status, type,
    mp4, webm, ogv, hls, dash, youtube, vimeo, dailymotion, rumble, facebook, embedcode,
    quality_level, quality_sources, poster, tracks, chapters,
    access_control, restricted_roles, options,
    duration, views, likes, dislikes, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID, &v.Title, &v.Slug, &v.Description, &v.AuthorID, &v.Status, &v.Type,
		&v.MP4, &v.WebM, &v.OGV, &v.HLS, &v.Dash, &v.YouTube, &v.Vimeo, &v.Dailymotion, &v.Rumble, &v.Facebook, &v.EmbedCode,
		&v.QualityLevel, &v.QualitySources, &v.Poster, &v.Tracks, &v.Chapters,
		&v.AccessControl, &v.RestrictedRoles, &v.Options,
		&v.Duration, &v.Views, &v.Likes, &v.Dislikes, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

func jsonList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Create stores a new video and returns its id.
func (r *PostgresVideoRepository) Create(ctx context.Context, v models.Video) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	status := v.Status
	if strings.TrimSpace(status) == "" {
		status = models.StatusPublish
	}
	typ := v.Type
	if strings.TrimSpace(typ) == "" {
		typ = models.TypeDefault
	}
	options := v.Options
	if options == nil {
		options = map[string]int{}
	}

	var id int64
	err = conn.QueryRow(ctx, `
        INSERT INTO videos (
            title, slug, description, author_id, status, type,
            mp4, webm, ogv, hls, dash, youtube, vimeo, dailymotion, rumble, facebook, embedcode,
            quality_level, quality_sources, poster, tracks, chapters,
            access_control, restricted_roles, options, duration
        )
        VALUES ($1, $2, $3, NULLIF($4, '')::UUID, $5, $6,
                $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
                $18, $19, $20, $21, $22,
                $23, $24, $25, $26)
        RETURNING id
    `,
		v.Title, v.Slug, v.Description, v.AuthorID, status, typ,
		v.MP4, v.WebM, v.OGV, v.HLS, v.Dash, v.YouTube, v.Vimeo, v.Dailymotion, v.Rumble, v.Facebook, v.EmbedCode,
		v.QualityLevel, jsonList(v.QualitySources), v.Poster, jsonList(v.Tracks), jsonList(v.Chapters),
		v.AccessControl, rolesOrEmpty(v.RestrictedRoles), options, v.Duration,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return 0, ErrConflict
			case "23503":
				return 0, ErrNotFound
			}
		}
		return 0, fmt.Errorf("insert video: %w", err)
	}

	return id, nil
}

// FindByID loads a single video.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id int64) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	v, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return v, nil
}

// IncrementViews bumps the view counter and returns the new total.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var views int64
	err = conn.QueryRow(ctx, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1
        RETURNING views
    `, id).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment views: %w", err)
	}

	return views, nil
}

// SetDuration records the human readable duration.
func (r *PostgresVideoRepository) SetDuration(ctx context.Context, id int64, duration string) error {
	return r.setColumn(ctx, id, "duration", duration)
}

// SetPoster records the poster image, typically after a thumbnail import.
func (r *PostgresVideoRepository) SetPoster(ctx context.Context, id int64, poster string) error {
	return r.setColumn(ctx, id, "poster", poster)
}

// UpdateMP4 replaces the mp4 source.
func (r *PostgresVideoRepository) UpdateMP4(ctx context.Context, id int64, mp4 string) error {
	return r.setColumn(ctx, id, "mp4", mp4)
}

func (r *PostgresVideoRepository) setColumn(ctx context.Context, id int64, column, value string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET `+column+` = $2, updated_at = NOW()
        WHERE id = $1
    `, id, value)
	if err != nil {
		return fmt.Errorf("update video %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// React records a like or dislike from userID. Repeating the current
// reaction withdraws it; the opposite reaction replaces it.
func (r *PostgresVideoRepository) React(ctx context.Context, id int64, userID, reaction string) (models.ReactionCounts, error) {
	if reaction != models.ReactionLike && reaction != models.ReactionDislike {
		return models.ReactionCounts{}, ErrInvalidReaction
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ReactionCounts{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.ReactionCounts{}, fmt.Errorf("begin reaction transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `
        SELECT reaction
        FROM video_reactions
        WHERE video_id = $1 AND user_id = $2
    `, id, userID).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return models.ReactionCounts{}, fmt.Errorf("select reaction: %w", err)
	}

	next := reaction
	if current == reaction {
		next = ""
		if _, err := tx.Exec(ctx, `
            DELETE FROM video_reactions
            WHERE video_id = $1 AND user_id = $2
        `, id, userID); err != nil {
			return models.ReactionCounts{}, fmt.Errorf("delete reaction: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx, `
            INSERT INTO video_reactions (video_id, user_id, reaction)
            VALUES ($1, $2, $3)
            ON CONFLICT (video_id, user_id)
            DO UPDATE SET reaction = EXCLUDED.reaction, created_at = NOW()
        `, id, userID, reaction); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return models.ReactionCounts{}, ErrNotFound
			}
			return models.ReactionCounts{}, fmt.Errorf("upsert reaction: %w", err)
		}
	}

	counts := models.ReactionCounts{Reaction: next}
	err = tx.QueryRow(ctx, `
        UPDATE videos
        SET likes = (SELECT count(*) FROM video_reactions WHERE video_id = $1 AND reaction = 'like'),
            dislikes = (SELECT count(*) FROM video_reactions WHERE video_id = $1 AND reaction = 'dislike')
        WHERE id = $1
        RETURNING likes, dislikes
    `, id).Scan(&counts.Likes, &counts.Dislikes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ReactionCounts{}, ErrNotFound
		}
		return models.ReactionCounts{}, fmt.Errorf("update reaction counts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.ReactionCounts{}, fmt.Errorf("commit reaction: %w", err)
	}

	return counts, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ videos.PosterUpdater = (*PostgresVideoRepository)(nil)
