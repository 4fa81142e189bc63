package videos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vidgallery/backend/internal/cache"
	"github.com/vidgallery/backend/internal/models"
)

// Service answers thumbnail, duration and id questions for every supported
// provider. It never returns errors: a failed lookup is an empty answer.
type Service struct {
	providers map[string]Provider
}

// ServiceConfig wires the default provider set.
type ServiceConfig struct {
	Client           *Client
	Store            cache.Store
	TTL              time.Duration
	VimeoAccessToken string
}

// NewService builds the cached YouTube, Vimeo, Dailymotion and Rumble providers.
func NewService(cfg ServiceConfig) *Service {
	client := cfg.Client
	if client == nil {
		client = NewClient(0, DefaultEndpoints())
	}

	return NewServiceWithProviders(
		NewCachingProvider(&YouTubeProvider{Client: client}, cfg.Store, cfg.TTL),
		NewCachingProvider(&VimeoProvider{Client: client, AccessToken: cfg.VimeoAccessToken}, cfg.Store, cfg.TTL),
		NewCachingProvider(&DailymotionProvider{Client: client}, cfg.Store, cfg.TTL),
		NewCachingProvider(&RumbleProvider{Client: client}, cfg.Store, cfg.TTL),
	)
}

// NewServiceWithProviders registers providers by Name.
func NewServiceWithProviders(providers ...Provider) *Service {
	s := &Service{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	return s
}

// resolve maps an embedcode source onto the provider of its iframe.
func resolve(typ, raw string) (string, string) {
	if typ == models.TypeEmbedCode {
		src := ExtractIframeSrc(raw)
		if src == "" {
			return "", ""
		}
		return TypeForURL(src), src
	}
	return typ, raw
}

// Lookup returns provider metadata for url; ok is false on any failure.
func (s *Service) Lookup(ctx context.Context, typ, raw string) (Metadata, bool) {
	if s == nil || strings.TrimSpace(raw) == "" {
		return Metadata{}, false
	}
	typ, raw = resolve(typ, raw)
	p, ok := s.providers[typ]
	if !ok {
		return Metadata{}, false
	}
	meta, err := p.Lookup(ctx, raw)
	if err != nil {
		return Metadata{}, false
	}
	return meta, true
}

// Thumbnail returns the provider thumbnail for url, or "".
func (s *Service) Thumbnail(ctx context.Context, typ, raw string) string {
	meta, _ := s.Lookup(ctx, typ, raw)
	return meta.ThumbnailURL
}

// Duration returns the human-readable duration of url, or "".
func (s *Service) Duration(ctx context.Context, typ, raw string) string {
	typ, raw = resolve(typ, raw)
	if typ == ProviderYouTube {
		return ""
	}
	meta, _ := s.Lookup(ctx, typ, raw)
	return HumanDuration(int(meta.Duration))
}

// VimeoID parses the id locally for player.vimeo.com URLs and falls back to
// the (cached) provider lookup otherwise.
func (s *Service) VimeoID(ctx context.Context, raw string) string {
	if strings.Contains(raw, "player.vimeo.com") {
		if id := VimeoPlayerID(raw); id != "" {
			return id
		}
	}
	meta, ok := s.Lookup(ctx, ProviderVimeo, raw)
	if ok && meta.VideoID != "" {
		return meta.VideoID
	}
	return vimeoNumericTail(raw)
}

// RumbleEmbedURL returns the iframe src advertised by Rumble's oEmbed markup.
func (s *Service) RumbleEmbedURL(ctx context.Context, raw string) string {
	if strings.Contains(raw, "rumble.com/embed/") {
		return raw
	}
	meta, _ := s.Lookup(ctx, ProviderRumble, raw)
	return ExtractIframeSrc(meta.HTML)
}

// HumanDuration formats seconds as H:MM:SS, or MM:SS under an hour.
// Non-positive input yields "".
func HumanDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
