package videos

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	vimeoPlayerPattern  = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:player\.)?vimeo\.com/(?:[a-z]*/)*([0-9]{6,11})`)
	vimeoHostPattern    = regexp.MustCompile(`(?i)vimeo\.com`)
	dailymotionPattern  = regexp.MustCompile(`^.+dailymotion\.com/(?:embed/)?(?:video|hub)/([^_?#/&]+)[^#]*(?:#video=([^_&]+))?`)
	dailymotionShortURL = regexp.MustCompile(`dai\.ly/([^_?#/&]+)`)
	allDigits           = regexp.MustCompile(`^[0-9]+$`)
)

// YouTubeID extracts the video id from watch, short, embed, shorts and live URLs.
func YouTubeID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	switch host {
	case "youtu.be":
		id, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		return id
	case "youtube.com", "www.youtube.com", "m.youtube.com", "www.youtube-nocookie.com":
	default:
		return ""
	}

	if id := u.Query().Get("v"); id != "" {
		return id
	}

	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	switch segments[0] {
	case "e", "embed", "v", "shorts", "live":
		return segments[1]
	}
	return ""
}

// ResolveYouTubeURL rewrites shorts and live URLs to the canonical watch URL.
// Other URLs are returned unchanged.
func ResolveYouTubeURL(raw string) string {
	if !strings.Contains(raw, "/shorts/") && !strings.Contains(raw, "/live/") {
		return raw
	}
	if id := YouTubeID(raw); id != "" {
		return "https://www.youtube.com/watch?v=" + id
	}
	return raw
}

// VimeoPlayerID parses the id out of a URL without any network calls. It
// only understands the numeric forms used by player.vimeo.com and vimeo.com.
func VimeoPlayerID(raw string) string {
	m := vimeoPlayerPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}

// vimeoNumericTail returns the last all-digit path segment of a vimeo.com URL.
func vimeoNumericTail(raw string) string {
	if !vimeoHostPattern.MatchString(raw) {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if allDigits.MatchString(segments[i]) {
			return segments[i]
		}
	}
	return ""
}

// DailymotionID extracts the id from /video/<id>, /hub/<id>#video=<id> and
// dai.ly/<id> URLs. Malformed URLs yield "".
func DailymotionID(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := dailymotionPattern.FindStringSubmatch(raw); m != nil {
		if m[2] != "" {
			return m[2]
		}
		return m[1]
	}
	if m := dailymotionShortURL.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// TypeForURL guesses the provider of an iframe or page URL.
func TypeForURL(raw string) string {
	switch {
	case strings.Contains(raw, "youtube.com"), strings.Contains(raw, "youtu.be"), strings.Contains(raw, "youtube-nocookie.com"):
		return "youtube"
	case strings.Contains(raw, "vimeo.com"):
		return "vimeo"
	case strings.Contains(raw, "dailymotion.com"), strings.Contains(raw, "dai.ly"):
		return "dailymotion"
	case strings.Contains(raw, "rumble.com"):
		return "rumble"
	case strings.Contains(raw, "facebook.com"):
		return "facebook"
	}
	return ""
}
