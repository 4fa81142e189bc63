package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/db"
	"github.com/vidgallery/backend/internal/logging"
)

// DefaultSettingsRefresh is how long loaded settings are served before the
// options table is read again.
const DefaultSettingsRefresh = 30 * time.Second

// PostgresSettingsSource layers the options table over a base Settings value.
// Each row stores one section (player, restrictions, privacy, ...) as a JSON
// object; keys absent from the row keep their base value.
type PostgresSettingsSource struct {
	pool    db.Pool
	base    config.Settings
	refresh time.Duration
	now     func() time.Time

	mu       sync.Mutex
	current  config.Settings
	loadedAt time.Time
	loaded   bool
}

// NewPostgresSettingsSource constructs a settings source backed by PostgreSQL.
func NewPostgresSettingsSource(pool db.Pool, base config.Settings, refresh time.Duration) *PostgresSettingsSource {
	if refresh <= 0 {
		refresh = DefaultSettingsRefresh
	}
	return &PostgresSettingsSource{
		pool:    pool,
		base:    base.Clone(),
		refresh: refresh,
		now:     time.Now,
	}
}

// Settings implements config.SettingsSource. When a reload fails after a
// successful one, the previous settings are served and the error is logged.
func (s *PostgresSettingsSource) Settings(ctx context.Context) (config.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && s.now().Sub(s.loadedAt) < s.refresh {
		return s.current.Clone(), nil
	}

	settings, err := s.load(ctx)
	if err != nil {
		if s.loaded {
			logging.FromContext(ctx).Warn("reload settings failed, serving previous", "error", err)
			return s.current.Clone(), nil
		}
		return config.Settings{}, err
	}

	s.current = settings
	s.loadedAt = s.now()
	s.loaded = true
	return settings.Clone(), nil
}

// Invalidate forces the next Settings call to read the options table.
func (s *PostgresSettingsSource) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func (s *PostgresSettingsSource) load(ctx context.Context) (config.Settings, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return config.Settings{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT name, value
        FROM options
        ORDER BY name
    `)
	if err != nil {
		return config.Settings{}, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	settings := s.base.Clone()
	for rows.Next() {
		var (
			name  string
			value []byte
		)
		if err := rows.Scan(&name, &value); err != nil {
			return config.Settings{}, fmt.Errorf("scan option: %w", err)
		}
		if err := settings.MergeSection(name, value); err != nil {
			if errors.Is(err, config.ErrUnknownSection) {
				continue
			}
			return config.Settings{}, err
		}
	}

	if err := rows.Err(); err != nil {
		return config.Settings{}, fmt.Errorf("iterate options: %w", err)
	}

	return settings, nil
}

// SaveSection stores one settings section and invalidates the loaded copy.
func (s *PostgresSettingsSource) SaveSection(ctx context.Context, name string, section any) error {
	candidate := s.base.Clone()
	raw, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("encode %s settings: %w", name, err)
	}
	if err := candidate.MergeSection(name, raw); err != nil {
		return err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO options (name, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (name)
        DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `, name, string(raw)); err != nil {
		return fmt.Errorf("upsert option %s: %w", name, err)
	}

	s.Invalidate()
	return nil
}

var _ config.SettingsSource = (*PostgresSettingsSource)(nil)
