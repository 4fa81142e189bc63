// Package player turns a stored video or a set of inline sources into the
// settings object consumed by the client-side player.
package player

import (
	"github.com/vidgallery/backend/internal/access"
	"github.com/vidgallery/backend/internal/models"
)

// Mode tells the rendering layer which kind of player to emit.
type Mode string

const (
	ModeVideoJS    Mode = "videojs"
	ModeIframe     Mode = "iframe"
	ModeEmbedCode  Mode = "embedcode"
	ModeRestricted Mode = "restricted"
	ModeEmpty      Mode = "empty"
)

// Request identifies what to play. Exactly one of VideoID and Inline must be set.
type Request struct {
	VideoID     int64
	Inline      Attributes
	Overrides   Overrides
	Viewer      access.Viewer
	ReferenceID string
	// PageURL is the URL the player is served from; used for the embed code.
	PageURL string
	// ConsentGiven is true once the viewer accepted third-party cookies.
	ConsentGiven bool
}

// Source is one playable rendition.
type Source struct {
	Format string `json:"format"`
	Type   string `json:"type"`
	Src    string `json:"src"`
	Label  string `json:"label,omitempty"`
}

// Chapter is a marker on the progress bar.
type Chapter struct {
	Time  int    `json:"time"`
	Label string `json:"label"`
}

// ShareButton is one social share link.
type ShareButton struct {
	Service string `json:"service"`
	URL     string `json:"url"`
	Icon    string `json:"icon"`
	Text    string `json:"text"`
}

type Download struct {
	URL string `json:"url"`
}

type Logo struct {
	Image    string `json:"image"`
	Link     string `json:"link"`
	Position string `json:"position"`
	Margin   int    `json:"margin"`
}

type Watermark struct {
	Text     string `json:"text"`
	Position string `json:"position"`
}

type ContextMenu struct {
	Content string `json:"content"`
}

type ControlBar struct {
	Children []string `json:"children"`
}

type YouTubeTech struct {
	IVLoadPolicy int `json:"iv_load_policy"`
	Playsinline  int `json:"playsinline"`
}

type VimeoTech struct {
	Playsinline int `json:"playsinline"`
}

// Options is the block handed to the player constructor as-is.
type Options struct {
	ControlBar                ControlBar   `json:"controlBar"`
	LiveUI                    bool         `json:"liveui"`
	TextTrackSettings         bool         `json:"textTrackSettings"`
	PlaybackRates             []float64    `json:"playbackRates"`
	TechCanOverridePoster     bool         `json:"techCanOverridePoster"`
	SuppressNotSupportedError bool         `json:"suppressNotSupportedError"`
	Autoplay                  bool         `json:"autoplay,omitempty"`
	TechOrder                 []string     `json:"techOrder,omitempty"`
	YouTube                   *YouTubeTech `json:"youtube,omitempty"`
	Vimeo                     *VimeoTech   `json:"vimeo2,omitempty"`
}

// Settings is the render-ready player configuration. Iframe and Sources are
// never both set.
type Settings struct {
	UID           string         `json:"uid,omitempty"`
	PostID        int64          `json:"post_id"`
	PostType      string         `json:"post_type"`
	CCLoadPolicy  int            `json:"cc_load_policy"`
	Hotkeys       int            `json:"hotkeys"`
	CookieConsent int            `json:"cookie_consent,omitempty"`
	Autoadvance   int            `json:"autoadvance,omitempty"`
	Player        *Options       `json:"player,omitempty"`
	Sources       []Source       `json:"sources,omitempty"`
	Iframe        string         `json:"iframe,omitempty"`
	Tracks        []models.Track `json:"tracks,omitempty"`
	Chapters      []Chapter      `json:"chapters,omitempty"`
	Start         *int           `json:"start,omitempty"`
	End           *int           `json:"end,omitempty"`
	Share         int            `json:"share,omitempty"`
	ShareButtons  []ShareButton  `json:"share_buttons,omitempty"`
	Embed         int            `json:"embed,omitempty"`
	EmbedCode     string         `json:"embed_code,omitempty"`
	Download      *Download      `json:"download,omitempty"`
	Logo          *Logo          `json:"logo,omitempty"`
	Watermark     *Watermark     `json:"watermark,omitempty"`
	ContextMenu   *ContextMenu   `json:"contextmenu,omitempty"`
}

// Attribute is an HTML attribute of the video element. An empty Value is
// rendered as a bare boolean attribute.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Container describes the responsive wrapper around the player.
type Container struct {
	MaxWidth      string  `json:"max_width"`
	PaddingBottom float64 `json:"padding_bottom"`
}

// Result is the outcome of a resolution.
type Result struct {
	Mode       Mode        `json:"mode"`
	Title      string      `json:"title,omitempty"`
	Poster     string      `json:"poster,omitempty"`
	Settings   *Settings   `json:"settings,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Container  Container   `json:"container"`
	EmbedHTML  string      `json:"embed_html,omitempty"`
	Message    string      `json:"message,omitempty"`
}
