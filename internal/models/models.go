package models

import "time"

// User represents an account that can sign in to watch restricted videos.
type User struct {
	ID        string
	Email     string
	Password  string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Video source types.
const (
	TypeDefault     = "default"
	TypeAdaptive    = "adaptive"
	TypeYouTube     = "youtube"
	TypeVimeo       = "vimeo"
	TypeDailymotion = "dailymotion"
	TypeRumble      = "rumble"
	TypeFacebook    = "facebook"
	TypeEmbedCode   = "embedcode"
)

// Video status values.
const (
	StatusPublish = "publish"
	StatusPrivate = "private"
)

// Video is a gallery entry together with its player configuration.
type Video struct {
	ID          int64
	Title       string
	Slug        string
	Description string
	AuthorID    string
	Status      string
	Type        string

	MP4            string
	WebM           string
	OGV            string
	HLS            string
	Dash           string
	YouTube        string
	Vimeo          string
	Dailymotion    string
	Rumble         string
	Facebook       string
	EmbedCode      string
	QualityLevel   string
	QualitySources []QualitySource

	Poster   string
	Tracks   []Track
	Chapters []ChapterMeta

	// AccessControl holds the per-video override; -1 defers to the site setting.
	AccessControl   int
	RestrictedRoles []string

	// Options overrides global player flags for this video only.
	Options map[string]int

	Duration  string
	Views     int64
	Likes     int64
	Dislikes  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Published reports whether the video is publicly listed. Rows written
// before statuses existed carry an empty status and count as published.
func (v Video) Published() bool {
	return v.Status == "" || v.Status == StatusPublish
}

// QualitySource is an additional progressive file labelled by quality.
type QualitySource struct {
	Quality string `json:"quality"`
	Src     string `json:"src"`
}

// Track is a subtitle or caption file.
type Track struct {
	Src     string `json:"src"`
	Label   string `json:"label"`
	SrcLang string `json:"srclang"`
}

// ChapterMeta is a chapter marker as entered by an editor.
type ChapterMeta struct {
	Time  string `json:"time"`
	Label string `json:"label"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Reaction values stored per viewer and video.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// ReactionCounts is the like/dislike tally of a video together with the
// requesting viewer's current reaction ("" when none).
type ReactionCounts struct {
	Likes    int64  `json:"likes"`
	Dislikes int64  `json:"dislikes"`
	Reaction string `json:"reaction"`
}
