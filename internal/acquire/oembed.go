package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// oembedEndpoint is YouTube's public oEmbed API.
const oembedEndpoint = "https://www.youtube.com/oembed"

// oembedTimeout bounds the best-effort title lookup so a slow endpoint
// never stalls acquisition.
const oembedTimeout = 10 * time.Second

// TitleLookup resolves a human-readable title for a video id.
// Implementations may fail; callers substitute a synthetic title.
type TitleLookup interface {
	Title(ctx context.Context, videoID string) (string, error)
}

// OEmbedClient looks up YouTube video titles via the oEmbed API.
type OEmbedClient struct {
	client   httpDoer
	endpoint string
}

// OEmbedOption configures an OEmbedClient.
type OEmbedOption func(*OEmbedClient)

// WithOEmbedHTTPClient sets a custom HTTP client (for testing).
func WithOEmbedHTTPClient(c httpDoer) OEmbedOption {
	return func(o *OEmbedClient) {
		o.client = c
	}
}

// WithOEmbedEndpoint overrides the oEmbed endpoint URL (for testing).
func WithOEmbedEndpoint(u string) OEmbedOption {
	return func(o *OEmbedClient) {
		o.endpoint = u
	}
}

// NewOEmbedClient creates an oEmbed title lookup client.
func NewOEmbedClient(opts ...OEmbedOption) *OEmbedClient {
	c := &OEmbedClient{
		client:   &http.Client{Timeout: oembedTimeout},
		endpoint: oembedEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Title fetches the video title for a YouTube id.
func (c *OEmbedClient) Title(ctx context.Context, videoID string) (string, error) {
	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+videoID)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create oembed request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oembed returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse oembed response: %w", err)
	}
	if payload.Title == "" {
		return "", fmt.Errorf("oembed response has no title")
	}
	return payload.Title, nil
}
