package player

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vidgallery/backend/internal/access"
	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/metrics"
	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/repositories"
	"github.com/vidgallery/backend/internal/videos"
)

// PostType is reported in the settings of stored videos.
const PostType = "aiovg_videos"

// DefaultRatio is the aspect ratio (height as a percentage of width) used
// when neither the request nor the settings provide one.
const DefaultRatio = 56.25

var playbackRates = []float64{0.5, 0.75, 1, 1.5, 2}

// VideoStore loads stored videos.
type VideoStore interface {
	FindByID(ctx context.Context, id int64) (models.Video, error)
}

// MetadataService answers provider questions. Failures are empty strings.
type MetadataService interface {
	Thumbnail(ctx context.Context, typ, url string) string
	VimeoID(ctx context.Context, url string) string
	RumbleEmbedURL(ctx context.Context, url string) string
}

// Config wires a Resolver.
type Config struct {
	Videos    VideoStore
	Settings  config.SettingsSource
	Metadata  MetadataService
	Downloads *Downloads
	SiteURL   string
	// PlayerBase is the URL of the standalone player page. Defaults to
	// SiteURL + "/player".
	PlayerBase string
}

// Resolver computes player settings.
type Resolver struct {
	videos          VideoStore
	settings        config.SettingsSource
	metadata        MetadataService
	downloads       *Downloads
	siteURL         string
	playerBase      string
	sourceFilters   []SourceFilter
	settingsFilters []SettingsFilter
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithSourceFilter appends a source filter. Filters run in registration order.
func WithSourceFilter(f SourceFilter) Option {
	return func(r *Resolver) {
		r.sourceFilters = append(r.sourceFilters, f)
	}
}

// WithSettingsFilter appends a settings filter. Filters run in registration order.
func WithSettingsFilter(f SettingsFilter) Option {
	return func(r *Resolver) {
		r.settingsFilters = append(r.settingsFilters, f)
	}
}

// NewResolver constructs a Resolver.
func NewResolver(cfg Config, opts ...Option) *Resolver {
	site := strings.TrimRight(cfg.SiteURL, "/")
	base := cfg.PlayerBase
	if base == "" {
		base = site + "/player"
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.StaticSettings(config.DefaultSettings())
	}
	downloads := cfg.Downloads
	if downloads == nil {
		downloads = NewDownloads(nil, site, 0)
	}

	r := &Resolver{
		videos:     cfg.Videos,
		settings:   settings,
		metadata:   cfg.Metadata,
		downloads:  downloads,
		siteURL:    site,
		playerBase: base,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PolicyFrom converts the restriction settings into an access policy.
func PolicyFrom(s config.RestrictionSettings) access.Policy {
	return access.Policy{
		Enabled:      s.Enabled,
		Mode:         access.Mode(s.AccessControl),
		Roles:        s.RestrictedRoles,
		ManagerRoles: s.ManagerRoles,
	}
}

// ItemFrom extracts the access metadata of a video.
func ItemFrom(v models.Video) access.Item {
	return access.Item{
		ID:       v.ID,
		AuthorID: v.AuthorID,
		Mode:     access.Mode(v.AccessControl),
		Roles:    v.RestrictedRoles,
	}
}

// Resolve produces the player for req. Invalid input and unknown videos
// yield ModeEmpty; only store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	ctx, span := logging.StartSpan(ctx, "player.resolve")
	defer span.End()

	res, err := r.resolve(ctx, req)
	if err != nil {
		span.Fail(err)
		return Result{}, err
	}

	metrics.RecordResolution(string(res.Mode))
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, req Request) (Result, error) {
	hasID := req.VideoID != 0
	if hasID == req.Inline.HasSource() {
		return Result{Mode: ModeEmpty}, nil
	}

	site, err := r.settings.Settings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load settings: %w", err)
	}

	s := &resolution{req: req, site: site}

	if hasID {
		if r.videos == nil {
			return Result{Mode: ModeEmpty}, nil
		}
		video, err := r.videos.FindByID(ctx, req.VideoID)
		if errors.Is(err, repositories.ErrNotFound) {
			return Result{Mode: ModeEmpty}, nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("find video %d: %w", req.VideoID, err)
		}
		s.video = &video

		policy, item := PolicyFrom(site.Restrictions), ItemFrom(video)
		if !video.Published() && !access.CanReadUnpublished(policy, item, req.Viewer) {
			logging.FromContext(ctx).Info("unpublished video hidden", "videoId", video.ID, "status", video.Status)
			return Result{Mode: ModeEmpty}, nil
		}

		decision := access.Evaluate(policy, item, req.Viewer)
		metrics.RecordAccessDecision(decision.Allowed, decision.Reason)
		if !decision.Allowed {
			logging.FromContext(ctx).Info("playback restricted",
				"videoId", video.ID,
				"reason", decision.Reason,
			)
			return s.restricted(), nil
		}
	}

	return r.build(ctx, s), nil
}

// resolution carries the inputs of a single Resolve call.
type resolution struct {
	req   Request
	site  config.Settings
	video *models.Video
}

// flag applies the precedence request > video options > global settings.
func (s *resolution) flag(key string) int {
	if v, ok := s.req.Overrides.Flag(key); ok {
		return v
	}
	if s.video != nil {
		if v, ok := s.video.Options[key]; ok {
			return v
		}
	}
	return s.site.Player.Flag(key)
}

func (s *resolution) on(key string) bool {
	return s.flag(key) != 0
}

func (s *resolution) ratio() float64 {
	if s.req.Overrides.Ratio > 0 {
		return s.req.Overrides.Ratio
	}
	if s.site.Player.Ratio > 0 {
		return s.site.Player.Ratio
	}
	return DefaultRatio
}

func (s *resolution) container() Container {
	width := s.site.Player.Width
	if s.req.Overrides.Width > 0 {
		width = s.req.Overrides.Width
	}
	c := Container{MaxWidth: "100%", PaddingBottom: s.ratio()}
	if width > 0 {
		c.MaxWidth = strconv.Itoa(width) + "px"
	}
	return c
}

func (s *resolution) restricted() Result {
	message := strings.TrimSpace(s.site.Restrictions.RestrictedMessage)
	if message == "" {
		message = config.DefaultRestrictedMessage
	}
	return Result{
		Mode:      ModeRestricted,
		Title:     RestrictedLabel(s.video.Title, s.site.Restrictions),
		Container: s.container(),
		Message:   message,
	}
}

func (s *resolution) baseSettings() *Settings {
	settings := &Settings{
		UID:          s.req.ReferenceID,
		CCLoadPolicy: s.flag("cc_load_policy"),
		Hotkeys:      s.site.Player.Flag("hotkeys"),
	}
	if s.video != nil {
		settings.PostID = s.video.ID
		settings.PostType = PostType
	}
	if s.on("autoadvance") {
		settings.Autoadvance = 1
	}
	return settings
}

func (s *resolution) iframeFlags() iframeFlags {
	return iframeFlags{
		autoplay:    s.on("autoplay"),
		loop:        s.on("loop"),
		muted:       s.on("muted"),
		playsinline: s.site.Player.Playsinline,
		captions:    s.on("cc_load_policy"),
	}
}

// cookieConsent asks the client to collect consent before loading a
// third-party player.
func (s *resolution) cookieConsent(settings *Settings, provider string) {
	if provider != "youtube" && provider != "vimeo" {
		return
	}
	if !s.site.Privacy.ShowConsent || s.req.ConsentGiven || s.on("nocookie") {
		return
	}
	settings.CookieConsent = 1
}

func (r *Resolver) build(ctx context.Context, s *resolution) Result {
	res := Result{Container: s.container()}

	var sources []Source
	if s.video != nil {
		res.Title = s.video.Title
		if s.video.Type == models.TypeEmbedCode {
			return r.embedCode(ctx, s, res)
		}
		sources = storedSources(*s.video, r.siteURL)
	} else {
		sources = inlineSources(s.req.Inline, r.siteURL)
	}
	if len(sources) == 0 {
		res.Mode = ModeEmpty
		return res
	}

	res.Poster = r.poster(ctx, s, sources)

	if provider, src := iframeProvider(sources, s.site.Player.NativeControls); provider != "" {
		iframe := iframeURL(ctx, r.metadata, provider, src, s.iframeFlags())
		if iframe == "" {
			res.Mode = ModeEmpty
			return res
		}
		settings := s.baseSettings()
		settings.Iframe = iframe
		if provider == "youtube" {
			settings.Start, settings.End = youTubeOffsets(src)
		}
		s.cookieConsent(settings, provider)
		r.runSettingsFilters(ctx, s, settings)

		res.Mode = ModeIframe
		res.Settings = settings
		return res
	}

	for _, filter := range r.sourceFilters {
		sources = filter(ctx, s.video, sources)
	}
	if len(sources) == 0 {
		res.Mode = ModeEmpty
		return res
	}

	settings, attrs := r.videoJS(ctx, s, sources, res)
	r.runSettingsFilters(ctx, s, settings)

	res.Mode = ModeVideoJS
	res.Settings = settings
	res.Attributes = attrs
	return res
}

func (r *Resolver) embedCode(ctx context.Context, s *resolution, res Result) Result {
	markup := strings.TrimSpace(s.video.EmbedCode)
	if markup == "" {
		res.Mode = ModeEmpty
		return res
	}

	res.Poster = r.poster(ctx, s, nil)

	if videos.HasScript(markup) {
		res.Mode = ModeEmbedCode
		res.EmbedHTML = markup
		return res
	}

	src := videos.ExtractIframeSrc(markup)
	if src == "" {
		res.Mode = ModeEmpty
		return res
	}

	settings := s.baseSettings()
	settings.Iframe = src
	r.runSettingsFilters(ctx, s, settings)

	res.Mode = ModeIframe
	res.Settings = settings
	return res
}

func (r *Resolver) runSettingsFilters(ctx context.Context, s *resolution, settings *Settings) {
	for _, filter := range r.settingsFilters {
		filter(ctx, s.video, settings)
	}
}

// poster picks the request poster, then the stored poster, then the
// provider thumbnail.
func (r *Resolver) poster(ctx context.Context, s *resolution, sources []Source) string {
	if s.req.Overrides.Poster != "" {
		return MakeURLAbsolute(s.req.Overrides.Poster, r.siteURL)
	}
	if s.video != nil && s.video.Poster != "" {
		return MakeURLAbsolute(s.video.Poster, r.siteURL)
	}
	if r.metadata == nil {
		return ""
	}
	if s.video != nil && s.video.Type == models.TypeEmbedCode {
		return r.metadata.Thumbnail(ctx, models.TypeEmbedCode, s.video.EmbedCode)
	}
	for _, provider := range []string{"youtube", "vimeo", "dailymotion", "rumble"} {
		if src, ok := findSource(sources, provider); ok {
			return r.metadata.Thumbnail(ctx, provider, src.Src)
		}
	}
	return ""
}

func (r *Resolver) vimeoID(ctx context.Context, src string) string {
	if r.metadata != nil {
		return r.metadata.VimeoID(ctx, src)
	}
	return videos.VimeoPlayerID(src)
}

// videoJS assembles the settings of the built-in player.
func (r *Resolver) videoJS(ctx context.Context, s *resolution, sources []Source, res Result) (*Settings, []Attribute) {
	player := s.site.Player
	settings := s.baseSettings()

	theme := "default"
	if player.Theme == "custom" {
		theme = "custom"
	}
	controls := BuildControls(s.on, sources, theme)

	opts := &Options{
		ControlBar:                ControlBar{Children: controls.Children},
		LiveUI:                    true,
		PlaybackRates:             playbackRates,
		TechCanOverridePoster:     true,
		SuppressNotSupportedError: true,
		Autoplay:                  s.on("autoplay"),
	}
	settings.Player = opts
	settings.Sources = sources

	playsinline := player.Flag("playsinline")

	if yt, ok := findSource(sources, "youtube"); ok {
		opts.TechOrder = []string{"youtube"}
		opts.YouTube = &YouTubeTech{IVLoadPolicy: 3, Playsinline: playsinline}
		settings.Start, settings.End = youTubeOffsets(yt.Src)
		s.cookieConsent(settings, "youtube")
	}

	if vm, ok := findSource(sources, "vimeo"); ok {
		opts.TechOrder = []string{"vimeo2"}
		opts.Vimeo = &VimeoTech{Playsinline: playsinline}
		if strings.Contains(vm.Src, "player.vimeo.com") {
			if id := r.vimeoID(ctx, vm.Src); id != "" {
				vm.Src = "https://vimeo.com/" + id
				settings.Sources = setSource(settings.Sources, vm)
			}
		}
		s.cookieConsent(settings, "vimeo")
	}

	if s.video != nil {
		if (settings.CCLoadPolicy == 1 || s.on("tracks")) && len(s.video.Tracks) > 0 {
			for _, t := range s.video.Tracks {
				t.Src = MakeURLAbsolute(t.Src, r.siteURL)
				settings.Tracks = append(settings.Tracks, t)
			}
		}
		if s.on("chapters") {
			settings.Chapters = MergeChapters(ExtractChapters(s.video.Description), s.video.Chapters)
		}
	}

	if s.on("share") {
		page := SharePage{URL: r.pageURL(s), Title: res.Title, Image: res.Poster}
		if s.video != nil {
			page.Description = s.video.Description
		}
		if buttons := ShareButtons(s.site.SocialShare, page); len(buttons) > 0 {
			settings.Share = 1
			settings.ShareButtons = buttons
		}
	}

	if s.on("embed") {
		settings.Embed = 1
		settings.EmbedCode = EmbedCode(r.embedURL(s), res.Title, s.ratio())
	}

	if mp4, ok := findSource(sources, "mp4"); ok && s.on("download") {
		if s.video != nil && downloadEnabled(s.site, *s.video) {
			settings.Download = &Download{URL: r.downloads.URL(s.video.ID)}
		} else {
			settings.Download = &Download{URL: r.downloads.TokenURL(ctx, mp4.Src)}
		}
	}

	r.branding(s.site.Branding, settings)

	return settings, r.attributes(s, theme, controls, res.Poster)
}

func (r *Resolver) branding(b config.BrandingSettings, settings *Settings) {
	if b.ShowLogo && b.LogoImage != "" {
		logo := &Logo{
			Image:    MakeURLAbsolute(b.LogoImage, r.siteURL),
			Link:     b.LogoLink,
			Position: b.LogoPosition,
			Margin:   b.LogoMargin,
		}
		if logo.Link == "" {
			logo.Link = "javascript:void(0)"
		}
		if logo.Margin <= 0 {
			logo.Margin = 15
		}
		settings.Logo = logo
	}

	if b.WatermarkText != "" {
		position := b.WatermarkPosition
		if position == "" {
			position = "bottomright"
		}
		settings.Watermark = &Watermark{Text: b.WatermarkText, Position: position}
	}

	if b.CopyrightText != "" {
		settings.ContextMenu = &ContextMenu{Content: b.CopyrightText}
	}
}

func (r *Resolver) attributes(s *resolution, theme string, controls Controls, poster string) []Attribute {
	id := "player"
	if s.req.ReferenceID != "" {
		id = "aiovg-player-" + s.req.ReferenceID
	}
	classes := append([]string{"video-js", "vjs-fill", "vjs-theme-" + theme}, controls.Classes...)

	attrs := []Attribute{
		{Name: "id", Value: id},
		{Name: "class", Value: strings.Join(classes, " ")},
		{Name: "controls"},
		{Name: "preload", Value: s.site.Player.Preload},
	}
	if s.on("loop") {
		attrs = append(attrs, Attribute{Name: "loop"})
	}
	if s.on("muted") {
		attrs = append(attrs, Attribute{Name: "muted"})
	}
	if s.site.Player.Playsinline {
		attrs = append(attrs, Attribute{Name: "playsinline"})
	}
	if poster != "" {
		attrs = append(attrs, Attribute{Name: "poster", Value: poster})
	}
	if s.site.Branding.CopyrightText != "" {
		attrs = append(attrs,
			Attribute{Name: "controlsList", Value: "nodownload"},
			Attribute{Name: "oncontextmenu", Value: "return false;"},
		)
	}
	return attrs
}

// pageURL is the public page of the video, or the page hosting an inline player.
func (r *Resolver) pageURL(s *resolution) string {
	if s.video == nil {
		return r.embedURL(s)
	}
	slug := s.video.Slug
	if slug == "" {
		slug = strconv.FormatInt(s.video.ID, 10)
	}
	return r.siteURL + "/videos/" + slug
}

// embedURL is the standalone player page offered in the embed code.
func (r *Resolver) embedURL(s *resolution) string {
	if s.req.PageURL != "" {
		return s.req.PageURL
	}
	attrs := make(map[string]string, len(s.req.Inline)+len(s.req.Overrides.Flags))
	for k, v := range s.req.Inline {
		attrs[k] = v
	}
	for k, v := range s.req.Overrides.Flags {
		attrs[k] = strconv.Itoa(v)
	}
	if s.req.Overrides.Poster != "" {
		attrs["poster"] = s.req.Overrides.Poster
	}
	var id int64
	if s.video != nil {
		id = s.video.ID
	}
	return PlayerPageURL(r.playerBase, id, attrs)
}
