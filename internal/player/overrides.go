package player

import (
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"

	"github.com/vidgallery/backend/internal/videos"
)

// FlagKeys lists the integer switches a request may override.
var FlagKeys = []string{
	"autoplay", "autoadvance", "loop", "muted",
	"playpause", "current", "progress", "duration", "tracks", "chapters",
	"speed", "quality", "volume", "pip", "fullscreen",
	"share", "embed", "download", "cc_load_policy", "nocookie",
}

// SourceKeys lists the inline source attributes, in resolution order.
var SourceKeys = []string{
	"mp4", "webm", "ogv", "hls", "dash",
	"youtube", "vimeo", "dailymotion", "rumble", "facebook",
}

// Overrides are the per-request settings taken from the query string. Only
// keys present in the request are set.
type Overrides struct {
	Flags  map[string]int
	Ratio  float64
	Width  int
	Poster string
}

// Flag returns the overridden value of key and whether the request set it.
func (o Overrides) Flag(key string) (int, bool) {
	v, ok := o.Flags[key]
	return v, ok
}

// Attributes are inline source URLs keyed by format.
type Attributes map[string]string

// HasSource reports whether any playable source is present.
func (a Attributes) HasSource() bool {
	for _, key := range SourceKeys {
		if a[key] != "" {
			return true
		}
	}
	return false
}

// ParseOverrides coerces query parameters into typed overrides.
func ParseOverrides(q url.Values) Overrides {
	o := Overrides{Flags: make(map[string]int)}
	for _, key := range FlagKeys {
		if q.Has(key) {
			o.Flags[key] = CoerceInt(q.Get(key))
		}
	}
	if q.Has("ratio") {
		if ratio, err := strconv.ParseFloat(strings.TrimSpace(q.Get("ratio")), 64); err == nil && ratio > 0 {
			o.Ratio = ratio
		}
	}
	if q.Has("width") {
		o.Width = CoerceInt(q.Get("width"))
	}
	if v := q.Get("poster"); v != "" {
		o.Poster = DecodeURLParam(v)
	}
	return o
}

// ParseAttributes reads the inline sources of a request. Values may be plain
// or url-safe base64 encoded. A generic "src" is filed under the provider its
// host belongs to, or under mp4, unless that key was given explicitly.
func ParseAttributes(q url.Values) Attributes {
	attrs := make(Attributes)
	for _, key := range SourceKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			attrs[key] = DecodeURLParam(v)
		}
	}
	if v := strings.TrimSpace(q.Get("src")); v != "" {
		src := DecodeURLParam(v)
		key := videos.TypeForURL(src)
		if key == "" {
			key = "mp4"
		}
		if _, ok := attrs[key]; !ok {
			attrs[key] = src
		}
	}
	return attrs
}

// CoerceInt converts loosely typed input the way form values are usually
// read: the leading integer wins, "true" is 1 and anything else is 0.
func CoerceInt(raw string) int {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "true", "on", "yes":
		return 1
	case "false", "off", "no", "":
		return 0
	}

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// EncodeURLParam encodes v as url-safe base64 using '-', '_' and '.'.
func EncodeURLParam(v string) string {
	return urlParamReplacer.Replace(base64.StdEncoding.EncodeToString([]byte(v)))
}

// DecodeURLParam reverses EncodeURLParam. Values that already look like
// URLs, or fail to decode, are returned unchanged.
func DecodeURLParam(v string) string {
	if strings.Contains(v, "://") || strings.HasPrefix(v, "/") {
		return v
	}
	decoded, err := base64.StdEncoding.DecodeString(urlParamReverser.Replace(v))
	if err != nil || len(decoded) == 0 {
		return v
	}
	return string(decoded)
}

var (
	urlParamReplacer = strings.NewReplacer("+", "-", "/", "_", "=", ".")
	urlParamReverser = strings.NewReplacer("-", "+", "_", "/", ".", "=")
)
