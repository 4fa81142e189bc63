package player

import (
	"net/url"
	"path"
	"strings"

	"github.com/vidgallery/backend/internal/models"
	"github.com/vidgallery/backend/internal/videos"
)

// iframeOnly are the providers without a tech for the built-in player.
var iframeOnly = []string{"dailymotion", "rumble", "facebook"}

// FileExt returns the lower-cased extension of the URL path, or "".
func FileExt(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// MimeType infers the mime type of a source of the given format.
func MimeType(format, src string) string {
	switch format {
	case "hls":
		return "application/x-mpegurl"
	case "dash":
		return "application/dash+xml"
	case "youtube", "vimeo", "dailymotion", "rumble", "facebook":
		return "video/" + format
	}
	return "video/" + progressiveExt(src)
}

func progressiveExt(src string) string {
	switch ext := FileExt(src); ext {
	case "webm", "ogv":
		return ext
	}
	return "mp4"
}

// setSource replaces the source with the same format or appends s.
func setSource(sources []Source, s Source) []Source {
	for i := range sources {
		if sources[i].Format == s.Format {
			sources[i] = s
			return sources
		}
	}
	return append(sources, s)
}

// storedSources lists the sources of a video by format, in the order the
// player should try them. Relative URLs are resolved against siteURL.
func storedSources(v models.Video, siteURL string) []Source {
	var sources []Source
	add := func(format, src, label string) {
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}
		src = MakeURLAbsolute(src, siteURL)
		sources = setSource(sources, Source{Format: format, Type: MimeType(format, src), Src: src, Label: label})
	}

	switch v.Type {
	case models.TypeDefault:
		add("mp4", v.MP4, v.QualityLevel)
		add("webm", v.WebM, "")
		add("ogv", v.OGV, "")
		for _, q := range v.QualitySources {
			if q.Quality == "" {
				continue
			}
			add(q.Quality, q.Src, q.Quality)
		}
	case models.TypeAdaptive:
		add("hls", v.HLS, "")
		add("dash", v.Dash, "")
	case models.TypeYouTube:
		add("youtube", videos.ResolveYouTubeURL(v.YouTube), "")
	case models.TypeVimeo:
		add("vimeo", v.Vimeo, "")
	case models.TypeDailymotion:
		add("dailymotion", v.Dailymotion, "")
	case models.TypeRumble:
		add("rumble", v.Rumble, "")
	case models.TypeFacebook:
		add("facebook", v.Facebook, "")
	}
	return sources
}

// inlineSources builds the sources of an inline request. Relative URLs are
// resolved against siteURL.
func inlineSources(attrs Attributes, siteURL string) []Source {
	var sources []Source
	for _, format := range SourceKeys {
		src := strings.TrimSpace(attrs[format])
		if src == "" {
			continue
		}
		src = MakeURLAbsolute(src, siteURL)
		if format == "youtube" {
			src = videos.ResolveYouTubeURL(src)
		}
		sources = append(sources, Source{Format: format, Type: MimeType(format, src), Src: src})
	}
	return sources
}

// iframeProvider returns the provider that must be rendered through its own
// iframe player, or "".
func iframeProvider(sources []Source, native func(provider string) bool) (string, string) {
	for _, provider := range iframeOnly {
		if s, ok := findSource(sources, provider); ok {
			return provider, s.Src
		}
	}
	for _, provider := range []string{"youtube", "vimeo"} {
		if s, ok := findSource(sources, provider); ok && native(provider) {
			return provider, s.Src
		}
	}
	return "", ""
}

func findSource(sources []Source, format string) (Source, bool) {
	for _, s := range sources {
		if s.Format == format {
			return s, true
		}
	}
	return Source{}, false
}

// MakeURLAbsolute prefixes host-less URLs with siteURL.
func MakeURLAbsolute(raw, siteURL string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return raw
	}
	return strings.TrimRight(siteURL, "/") + "/" + strings.TrimLeft(raw, "/")
}
