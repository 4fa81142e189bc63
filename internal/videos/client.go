package videos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// Endpoints holds the provider API base URLs. Tests point them at httptest servers.
type Endpoints struct {
	VimeoOEmbed    string
	VimeoV2        string
	VimeoAPI       string
	DailymotionAPI string
	RumbleOEmbed   string
	YouTubeImages  string
}

// DefaultEndpoints returns the public provider APIs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		VimeoOEmbed:    "https://vimeo.com/api/oembed.json",
		VimeoV2:        "https://vimeo.com/api/v2/video",
		VimeoAPI:       "https://api.vimeo.com",
		DailymotionAPI: "https://api.dailymotion.com",
		RumbleOEmbed:   "https://rumble.com/api/Media/oembed.json",
		YouTubeImages:  "https://img.youtube.com/vi",
	}
}

// Client performs the HTTP round trips shared by every provider.
type Client struct {
	HTTP      *http.Client
	Endpoints Endpoints
	UserAgent string
}

// NewClient builds a Client with the given per-request timeout.
func NewClient(timeout time.Duration, endpoints Endpoints) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		Endpoints: endpoints,
		UserAgent: "vidgallery/1.0",
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return resp, nil
}

// getJSON decodes a 2xx JSON response into dst.
func (c *Client) getJSON(ctx context.Context, rawURL string, header http.Header, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, rawURL, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: %s returned %d", ErrProviderUnavailable, redact(rawURL), resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", redact(rawURL), err)
	}
	return nil
}

// status issues a GET and reports only the response code.
func (c *Client) status(ctx context.Context, rawURL string) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode, nil
}

// Fetch downloads a remote asset such as a thumbnail image.
func (c *Client) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("%w: %s returned %d", ErrProviderUnavailable, redact(rawURL), resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// redact drops the query string so tokens never reach the logs.
func redact(rawURL string) string {
	base, _, _ := strings.Cut(rawURL, "?")
	return base
}
