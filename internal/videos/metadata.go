package videos

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
)

// Metadata captures what a third-party provider tells us about a video.
type Metadata struct {
	VideoID      string  `json:"video_id,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Duration     Seconds `json:"duration,omitempty"`
	HTML         string  `json:"html,omitempty"`
}

// Provider returns metadata for the supplied video URL. Implementations
// return ErrNoMetadata rather than an empty Metadata so callers never cache
// unusable results.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, url string) (Metadata, error)
}

// Seconds is a duration in whole seconds that decodes from JSON numbers or
// numeric strings, since providers disagree on the representation.
type Seconds int

// UnmarshalJSON implements json.Unmarshaler.
func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			*s = 0
			return nil
		}
		data = []byte(raw)
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = Seconds(math.Round(f))
	return nil
}
