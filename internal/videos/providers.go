package videos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Provider names, matching the video types that use them.
const (
	ProviderYouTube     = "youtube"
	ProviderVimeo       = "vimeo"
	ProviderDailymotion = "dailymotion"
	ProviderRumble      = "rumble"
)

// YouTubeProvider resolves thumbnails by probing the public image CDN.
// YouTube exposes no duration without an API key, so Duration is always empty.
type YouTubeProvider struct {
	Client *Client
}

// Name implements Provider.
func (p *YouTubeProvider) Name() string { return ProviderYouTube }

// Lookup implements Provider.
func (p *YouTubeProvider) Lookup(ctx context.Context, raw string) (Metadata, error) {
	id := YouTubeID(raw)
	if id == "" {
		return Metadata{}, ErrInvalidURL
	}

	base := p.Client.Endpoints.YouTubeImages
	thumb := fmt.Sprintf("%s/%s/maxresdefault.jpg", base, id)

	code, err := p.Client.status(ctx, thumb)
	if err != nil || code != http.StatusOK {
		thumb = fmt.Sprintf("%s/%s/mqdefault.jpg", base, id)
	}

	return Metadata{VideoID: id, ThumbnailURL: thumb}, nil
}

// VimeoProvider combines the oEmbed, v2 and authenticated pictures APIs.
type VimeoProvider struct {
	Client      *Client
	AccessToken string
}

type vimeoOEmbed struct {
	VideoID      json64  `json:"video_id"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Duration     Seconds `json:"duration"`
	HTML         string  `json:"html"`
}

type vimeoV2Video struct {
	ThumbnailLarge string `json:"thumbnail_large"`
}

type vimeoPictures struct {
	Data []struct {
		Sizes []struct {
			Width int    `json:"width"`
			Link  string `json:"link"`
		} `json:"sizes"`
	} `json:"data"`
}

// Name implements Provider.
func (p *VimeoProvider) Name() string { return ProviderVimeo }

// Lookup implements Provider. A result is usable as soon as the video id is
// known, even when every thumbnail source failed.
func (p *VimeoProvider) Lookup(ctx context.Context, raw string) (Metadata, error) {
	var meta Metadata

	var oembed vimeoOEmbed
	endpoint := p.Client.Endpoints.VimeoOEmbed + "?url=" + url.QueryEscape(raw)
	oembedErr := p.Client.getJSON(ctx, endpoint, nil, &oembed)
	if oembedErr == nil {
		meta = Metadata{
			VideoID:      string(oembed.VideoID),
			ThumbnailURL: oembed.ThumbnailURL,
			Duration:     oembed.Duration,
			HTML:         oembed.HTML,
		}
	}

	if meta.VideoID == "" {
		meta.VideoID = vimeoNumericTail(raw)
	}
	if meta.VideoID == "" {
		if oembedErr != nil {
			return Metadata{}, fmt.Errorf("%w: %w", ErrNoMetadata, oembedErr)
		}
		return Metadata{}, ErrNoMetadata
	}

	var v2 []vimeoV2Video
	if err := p.Client.getJSON(ctx, fmt.Sprintf("%s/%s.json", p.Client.Endpoints.VimeoV2, meta.VideoID), nil, &v2); err == nil {
		if len(v2) > 0 && v2[0].ThumbnailLarge != "" {
			meta.ThumbnailURL = v2[0].ThumbnailLarge
		}
	}

	if meta.ThumbnailURL == "" && p.AccessToken != "" {
		meta.ThumbnailURL = p.privateThumbnail(ctx, meta.VideoID)
	}

	if meta.ThumbnailURL != "" {
		meta.ThumbnailURL = withQuery(meta.ThumbnailURL, "isnew", "1")
	}

	return meta, nil
}

// privateThumbnail walks the pictures API and returns the first size at
// least 400px wide, or the last size seen.
func (p *VimeoProvider) privateThumbnail(ctx context.Context, id string) string {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.AccessToken)

	var pictures vimeoPictures
	if err := p.Client.getJSON(ctx, fmt.Sprintf("%s/videos/%s/pictures", p.Client.Endpoints.VimeoAPI, id), header, &pictures); err != nil {
		return ""
	}

	var link string
	for _, item := range pictures.Data {
		for _, size := range item.Sizes {
			link = size.Link
			if size.Width >= 400 {
				return link
			}
		}
	}
	return link
}

// DailymotionProvider uses the public REST API.
type DailymotionProvider struct {
	Client *Client
}

type dailymotionVideo struct {
	ThumbnailLarge  string  `json:"thumbnail_large_url"`
	ThumbnailMedium string  `json:"thumbnail_medium_url"`
	Duration        Seconds `json:"duration"`
}

// Name implements Provider.
func (p *DailymotionProvider) Name() string { return ProviderDailymotion }

// Lookup implements Provider.
func (p *DailymotionProvider) Lookup(ctx context.Context, raw string) (Metadata, error) {
	id := DailymotionID(raw)
	if id == "" {
		return Metadata{}, ErrInvalidURL
	}

	var video dailymotionVideo
	endpoint := fmt.Sprintf("%s/video/%s?fields=thumbnail_large_url,thumbnail_medium_url,duration", p.Client.Endpoints.DailymotionAPI, url.PathEscape(id))
	if err := p.Client.getJSON(ctx, endpoint, nil, &video); err != nil {
		return Metadata{}, err
	}

	meta := Metadata{VideoID: id, ThumbnailURL: video.ThumbnailLarge, Duration: video.Duration}
	if meta.ThumbnailURL == "" {
		meta.ThumbnailURL = video.ThumbnailMedium
	}
	if meta.ThumbnailURL == "" {
		return Metadata{}, ErrNoMetadata
	}
	return meta, nil
}

// RumbleProvider uses Rumble's oEmbed endpoint.
type RumbleProvider struct {
	Client *Client
}

type rumbleOEmbed struct {
	ThumbnailURL string  `json:"thumbnail_url"`
	Duration     Seconds `json:"duration"`
	HTML         string  `json:"html"`
}

// Name implements Provider.
func (p *RumbleProvider) Name() string { return ProviderRumble }

// Lookup implements Provider.
func (p *RumbleProvider) Lookup(ctx context.Context, raw string) (Metadata, error) {
	var oembed rumbleOEmbed
	endpoint := p.Client.Endpoints.RumbleOEmbed + "?url=" + url.QueryEscape(raw)
	if err := p.Client.getJSON(ctx, endpoint, nil, &oembed); err != nil {
		return Metadata{}, err
	}
	if oembed.ThumbnailURL == "" {
		return Metadata{}, ErrNoMetadata
	}
	return Metadata{ThumbnailURL: oembed.ThumbnailURL, Duration: oembed.Duration, HTML: oembed.HTML}, nil
}

// json64 accepts ids encoded either as JSON numbers or strings.
type json64 string

func (j *json64) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*j = json64(unquoted)
		return nil
	}
	if string(data) == "null" {
		*j = ""
		return nil
	}
	if _, err := strconv.ParseInt(string(data), 10, 64); err != nil {
		return errors.New("video id is not numeric")
	}
	*j = json64(data)
	return nil
}

func withQuery(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
