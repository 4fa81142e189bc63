package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Settings is the site-wide configuration the player resolver reads from.
type Settings struct {
	Player         PlayerSettings        `yaml:"player" json:"player"`
	Restrictions   RestrictionSettings   `yaml:"restrictions" json:"restrictions"`
	Privacy        PrivacySettings       `yaml:"privacy" json:"privacy"`
	Branding       BrandingSettings      `yaml:"branding" json:"branding"`
	SocialShare    SocialShareSettings   `yaml:"socialshare" json:"socialshare"`
	FeaturedImages FeaturedImageSettings `yaml:"featured_images" json:"featured_images"`
	General        GeneralSettings       `yaml:"general" json:"general"`
	API            APISettings           `yaml:"api" json:"api"`
}

// PlayerSettings holds the global player defaults.
type PlayerSettings struct {
	Theme             string   `yaml:"theme" json:"theme"`
	Width             int      `yaml:"width" json:"width"`
	Ratio             float64  `yaml:"ratio" json:"ratio"`
	Autoplay          bool     `yaml:"autoplay" json:"autoplay"`
	Loop              bool     `yaml:"loop" json:"loop"`
	Muted             bool     `yaml:"muted" json:"muted"`
	Preload           string   `yaml:"preload" json:"preload"`
	Playsinline       bool     `yaml:"playsinline" json:"playsinline"`
	Controls          []string `yaml:"controls" json:"controls"`
	Hotkeys           bool     `yaml:"hotkeys" json:"hotkeys"`
	CCLoadPolicy      bool     `yaml:"cc_load_policy" json:"cc_load_policy"`
	QualityLevels     []string `yaml:"quality_levels" json:"quality_levels"`
	UseNativeControls []string `yaml:"use_native_controls" json:"use_native_controls"`
}

// HasControl reports whether the named control is enabled globally.
func (p PlayerSettings) HasControl(name string) bool {
	return slices.Contains(p.Controls, name)
}

// NativeControls reports whether the provider's own iframe player should be used.
func (p PlayerSettings) NativeControls(provider string) bool {
	return slices.Contains(p.UseNativeControls, provider)
}

// Flag returns the global value (0 or 1) of a player flag or control.
func (p PlayerSettings) Flag(key string) int {
	var on bool
	switch key {
	case "autoplay":
		on = p.Autoplay
	case "loop":
		on = p.Loop
	case "muted":
		on = p.Muted
	case "playsinline":
		on = p.Playsinline
	case "hotkeys":
		on = p.Hotkeys
	case "cc_load_policy":
		on = p.CCLoadPolicy
	default:
		on = p.HasControl(key)
	}
	if on {
		return 1
	}
	return 0
}

// RestrictionSettings configures site-wide access control.
type RestrictionSettings struct {
	Enabled             bool     `yaml:"enabled" json:"enabled"`
	AccessControl       int      `yaml:"access_control" json:"access_control"`
	RestrictedRoles     []string `yaml:"restricted_roles" json:"restricted_roles"`
	ManagerRoles        []string `yaml:"manager_roles" json:"manager_roles"`
	RestrictedMessage   string   `yaml:"restricted_message" json:"restricted_message"`
	ShowRestrictedLabel bool     `yaml:"show_restricted_label" json:"show_restricted_label"`
	LabelText           string   `yaml:"restricted_label_text" json:"restricted_label_text"`
	LabelBgColor        string   `yaml:"restricted_label_bg_color" json:"restricted_label_bg_color"`
	LabelTextColor      string   `yaml:"restricted_label_text_color" json:"restricted_label_text_color"`
}

// PrivacySettings controls the third-party cookie consent overlay.
type PrivacySettings struct {
	ShowConsent        bool     `yaml:"show_consent" json:"show_consent"`
	ConsentMessage     string   `yaml:"consent_message" json:"consent_message"`
	ConsentButtonLabel string   `yaml:"consent_button_label" json:"consent_button_label"`
	DisableCookies     []string `yaml:"disable_cookies" json:"disable_cookies"`
}

// BrandingSettings covers the logo, watermark and context menu overlays.
type BrandingSettings struct {
	ShowLogo          bool   `yaml:"show_logo" json:"show_logo"`
	LogoImage         string `yaml:"logo_image" json:"logo_image"`
	LogoLink          string `yaml:"logo_link" json:"logo_link"`
	LogoPosition      string `yaml:"logo_position" json:"logo_position"`
	LogoMargin        int    `yaml:"logo_margin" json:"logo_margin"`
	CopyrightText     string `yaml:"copyright_text" json:"copyright_text"`
	WatermarkText     string `yaml:"watermark_text" json:"watermark_text"`
	WatermarkPosition string `yaml:"watermark_position" json:"watermark_position"`
}

// SocialShareSettings lists the enabled share services.
type SocialShareSettings struct {
	Services []string `yaml:"services" json:"services"`
}

// FeaturedImageSettings controls importing provider thumbnails.
type FeaturedImageSettings struct {
	DownloadExternalImages bool `yaml:"download_external_images" json:"download_external_images"`
}

// GeneralSettings holds miscellaneous switches. DefaultRole is granted to
// accounts created through sign up.
type GeneralSettings struct {
	Lazyloading bool   `yaml:"lazyloading" json:"lazyloading"`
	DefaultRole string `yaml:"default_role" json:"default_role"`
}

// APISettings holds third-party credentials.
type APISettings struct {
	YouTubeAPIKey    string `yaml:"youtube_api_key" json:"youtube_api_key"`
	VimeoAccessToken string `yaml:"vimeo_access_token" json:"vimeo_access_token"`
}

// DefaultRole is the role of new accounts unless the settings name another.
const DefaultRole = "subscriber"

// DefaultRestrictedMessage is shown when a viewer may not watch a video.
const DefaultRestrictedMessage = "Sorry, but you do not have permission to view this video."

// DefaultSettings returns the hard-coded settings every other layer is merged onto.
func DefaultSettings() Settings {
	return Settings{
		Player: PlayerSettings{
			Theme:         "default",
			Ratio:         56.25,
			Preload:       "auto",
			Playsinline:   true,
			Controls:      []string{"playpause", "current", "progress", "duration", "tracks", "chapters", "speed", "quality", "volume", "fullscreen"},
			QualityLevels: []string{"360p", "480p", "720p", "1080p"},
		},
		Restrictions: RestrictionSettings{
			AccessControl:       2,
			ManagerRoles:        []string{"administrator", "editor"},
			RestrictedMessage:   DefaultRestrictedMessage,
			ShowRestrictedLabel: true,
			LabelText:           "restricted",
			LabelBgColor:        "#aaa",
			LabelTextColor:      "#fff",
		},
		Privacy: PrivacySettings{
			ConsentMessage:     "<strong>Please accept cookies to play this video</strong>. By accepting you will be accessing content from a service provided by an external third party.",
			ConsentButtonLabel: "I Agree",
		},
		Branding: BrandingSettings{
			LogoPosition: "bottomleft",
			LogoMargin:   15,
		},
		SocialShare: SocialShareSettings{
			Services: []string{"facebook", "twitter", "linkedin", "pinterest", "tumblr", "whatsapp", "email"},
		},
		FeaturedImages: FeaturedImageSettings{
			DownloadExternalImages: true,
		},
		General: GeneralSettings{
			DefaultRole: DefaultRole,
		},
	}
}

// SettingsSource provides read-only access to the current site settings.
type SettingsSource interface {
	Settings(ctx context.Context) (Settings, error)
}

// StaticSettings serves a fixed Settings value.
type StaticSettings Settings

// Settings implements SettingsSource.
func (s StaticSettings) Settings(context.Context) (Settings, error) {
	return Settings(s), nil
}

// LoadSettingsFile merges a YAML settings file over the defaults. A missing
// path returns the defaults unchanged.
func LoadSettingsFile(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings file %s: %w", path, err)
	}

	return settings, nil
}

// Clone returns a copy of s that shares no slices with it.
func (s Settings) Clone() Settings {
	out := s
	out.Player.Controls = slices.Clone(s.Player.Controls)
	out.Player.QualityLevels = slices.Clone(s.Player.QualityLevels)
	out.Player.UseNativeControls = slices.Clone(s.Player.UseNativeControls)
	out.Restrictions.RestrictedRoles = slices.Clone(s.Restrictions.RestrictedRoles)
	out.Restrictions.ManagerRoles = slices.Clone(s.Restrictions.ManagerRoles)
	out.Privacy.DisableCookies = slices.Clone(s.Privacy.DisableCookies)
	out.SocialShare.Services = slices.Clone(s.SocialShare.Services)
	return out
}

// ErrUnknownSection is returned by MergeSection for names that are not part
// of Settings.
var ErrUnknownSection = errors.New("unknown settings section")

// MergeSection decodes a JSON object over the named section. Keys missing
// from raw keep their current value.
func (s *Settings) MergeSection(name string, raw []byte) error {
	var target any
	switch name {
	case "player":
		target = &s.Player
	case "restrictions":
		target = &s.Restrictions
	case "privacy":
		target = &s.Privacy
	case "branding":
		target = &s.Branding
	case "socialshare":
		target = &s.SocialShare
	case "featured_images":
		target = &s.FeaturedImages
	case "general":
		target = &s.General
	case "api":
		target = &s.API
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode %s settings: %w", name, err)
	}
	return nil
}
