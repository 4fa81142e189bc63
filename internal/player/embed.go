package player

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/videos"
)

// PlayerAttributeKeys are the switches ExtractPlayerAttributes understands.
var PlayerAttributeKeys = []string{
	"autoplay", "loop", "muted", "playpause", "current", "progress", "duration",
	"tracks", "chapters", "speed", "quality", "volume", "pip", "fullscreen",
	"share", "embed", "download",
}

// ExtractPlayerAttributes reads "player_<key>" attributes and keeps only the
// values that differ from the global defaults.
func ExtractPlayerAttributes(attrs map[string]string, defaults config.PlayerSettings) map[string]int {
	out := make(map[string]int)
	for _, key := range PlayerAttributeKeys {
		raw, ok := attrs["player_"+key]
		if !ok {
			continue
		}
		if value := CoerceInt(raw); value != defaults.Flag(key) {
			out[key] = value
		}
	}
	return out
}

var (
	encodedPageKeys = map[string]bool{
		"mp4": true, "webm": true, "ogv": true, "hls": true, "dash": true,
		"youtube": true, "vimeo": true, "dailymotion": true, "rumble": true,
		"facebook": true, "poster": true,
	}
	intPageKeys = map[string]bool{
		"autoplay": true, "autoadvance": true, "loop": true, "muted": true,
		"playpause": true, "current": true, "progress": true, "duration": true,
		"tracks": true, "chapters": true, "speed": true, "quality": true,
		"volume": true, "pip": true, "fullscreen": true, "share": true,
		"embed": true, "download": true, "cc_load_policy": true,
	}
)

// PlayerPageURL builds the URL of the standalone player page. Source URLs are
// url-safe base64 encoded; unknown and empty attributes are dropped.
func PlayerPageURL(base string, videoID int64, attrs map[string]string) string {
	page := strings.TrimRight(base, "/")
	if videoID > 0 {
		page += "/id/" + strconv.FormatInt(videoID, 10)
	}

	q := url.Values{}
	for key, value := range attrs {
		if value == "" {
			continue
		}
		switch {
		case key == "uid":
			q.Set(key, value)
		case encodedPageKeys[key]:
			q.Set(key, EncodeURLParam(value))
		case key == "ratio":
			ratio, _ := strconv.ParseFloat(strings.TrimSpace(value), 64)
			q.Set(key, strconv.FormatFloat(ratio, 'f', -1, 64))
		case intPageKeys[key]:
			q.Set(key, strconv.Itoa(CoerceInt(value)))
		}
	}

	if len(q) == 0 {
		return page
	}
	return page + "?" + q.Encode()
}

// removeQueryArgs strips the named parameters from raw.
func removeQueryArgs(raw string, keys ...string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, key := range keys {
		q.Del(key)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// EmbedCode renders the responsive iframe snippet offered to viewers.
func EmbedCode(pageURL, title string, ratio float64) string {
	return fmt.Sprintf(
		`<div style="position:relative;padding-bottom:%s%%;height:0;overflow:hidden;"><iframe src="%s" title="%s" width="100%%" height="100%%" style="position:absolute;width:100%%;height:100%%;top:0px;left:0px;overflow:hidden" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share" allowfullscreen></iframe></div>`,
		strconv.FormatFloat(ratio, 'f', -1, 64),
		html.EscapeString(removeQueryArgs(pageURL, "uid", "autoadvance")),
		html.EscapeString(title),
	)
}

// iframeFlags are the playback switches forwarded to provider players.
type iframeFlags struct {
	autoplay    bool
	loop        bool
	muted       bool
	playsinline bool
	captions    bool
}

func setBool(q url.Values, key string, on bool) {
	if on {
		q.Set(key, "1")
	} else {
		q.Set(key, "0")
	}
}

// iframeURL returns the provider's own player URL for src, or "" when no id
// can be determined.
func iframeURL(ctx context.Context, metadata MetadataService, provider, src string, flags iframeFlags) string {
	q := url.Values{}

	switch provider {
	case "youtube":
		id := videos.YouTubeID(src)
		if id == "" {
			return ""
		}
		setBool(q, "autoplay", flags.autoplay)
		setBool(q, "mute", flags.muted)
		setBool(q, "playsinline", flags.playsinline)
		q.Set("rel", "0")
		q.Set("iv_load_policy", "3")
		if flags.loop {
			q.Set("loop", "1")
			q.Set("playlist", id)
		}
		if flags.captions {
			q.Set("cc_load_policy", "1")
		}
		start, end := youTubeOffsets(src)
		if start != nil {
			q.Set("start", strconv.Itoa(*start))
		}
		if end != nil {
			q.Set("end", strconv.Itoa(*end))
		}
		return "https://www.youtube.com/embed/" + id + "?" + q.Encode()

	case "vimeo":
		var id string
		if metadata != nil {
			id = metadata.VimeoID(ctx, src)
		} else {
			id = videos.VimeoPlayerID(src)
		}
		if id == "" {
			return ""
		}
		if u, err := url.Parse(src); err == nil && u.Query().Get("h") != "" {
			q.Set("h", u.Query().Get("h"))
		}
		setBool(q, "autoplay", flags.autoplay)
		setBool(q, "loop", flags.loop)
		setBool(q, "muted", flags.muted)
		setBool(q, "playsinline", flags.playsinline)
		return "https://player.vimeo.com/video/" + id + "?" + q.Encode()

	case "dailymotion":
		id := videos.DailymotionID(src)
		if id == "" {
			return ""
		}
		setBool(q, "autoplay", flags.autoplay)
		setBool(q, "loop", flags.loop)
		setBool(q, "mute", flags.muted)
		q.Set("queue-enable", "0")
		return "https://www.dailymotion.com/embed/video/" + id + "?" + q.Encode()

	case "rumble":
		embed := src
		if metadata != nil {
			embed = metadata.RumbleEmbedURL(ctx, src)
		}
		if !strings.Contains(embed, "rumble.com/embed/") {
			return ""
		}
		u, err := url.Parse(embed)
		if err != nil {
			return ""
		}
		q = u.Query()
		if flags.autoplay {
			q.Set("autoplay", "2")
		}
		if flags.loop {
			q.Set("loop", "1")
		}
		if flags.muted {
			q.Set("muted", "1")
		}
		u.RawQuery = q.Encode()
		return u.String()

	case "facebook":
		if !strings.Contains(src, "facebook.com") && !strings.Contains(src, "fb.watch") {
			return ""
		}
		q.Set("href", src)
		q.Set("show_text", "0")
		setBool(q, "autoplay", flags.autoplay)
		setBool(q, "mute", flags.muted)
		return "https://www.facebook.com/plugins/video.php?" + q.Encode()
	}

	return ""
}

// youTubeOffsets reads start, t and end from a YouTube URL. t takes
// precedence over start.
func youTubeOffsets(src string) (start, end *int) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, nil
	}
	q := u.Query()
	if q.Has("start") {
		v := CoerceInt(q.Get("start"))
		start = &v
	}
	if q.Has("t") {
		v := CoerceInt(q.Get("t"))
		start = &v
	}
	if q.Has("end") {
		v := CoerceInt(q.Get("end"))
		end = &v
	}
	return start, end
}
