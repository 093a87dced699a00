// Package genai is a minimal client for the Gemini generateContent API.
// It covers the two request shapes the transcription pipeline needs: a text
// prompt with an inline base64 audio part, and a text-only prompt. HTTP
// failures are classified into apierr sentinels at this boundary.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/clipscribe/clipscribe/internal/apierr"
)

// defaultBaseURL is the Gemini API host.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// audioMIMEType is the MIME type for MP3 artifacts.
const audioMIMEType = "audio/mpeg"

// requestTimeout bounds one generateContent call. Audio payloads are large
// and the model is slow, so this is generous.
const requestTimeout = 10 * time.Minute

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Gemini generateContent endpoint for one model.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  httpDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c httpDoer) Option {
	return func(g *Client) {
		g.client = c
	}
}

// WithBaseURL overrides the API host (for testing).
func WithBaseURL(u string) Option {
	return func(g *Client) {
		g.baseURL = u
	}
}

// NewClient creates a Gemini client for the given model.
func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// part is one content part of a generateContent request.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

// inlineData is a base64-encoded media part.
type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

// generateResponse is the subset of the response the pipeline consumes.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// errorResponse is the API's error envelope.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// TranscribeAudio submits the artifact's bytes inline with the instruction
// prompt and returns the generated text.
func (c *Client) TranscribeAudio(ctx context.Context, audioPath, prompt string) (string, error) {
	data, err := os.ReadFile(audioPath) // #nosec G304 -- audioPath comes from the artifact store
	if err != nil {
		return "", fmt.Errorf("failed to read audio file: %w", err)
	}

	return c.generate(ctx, []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MIMEType: audioMIMEType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}},
	})
}

// GenerateText submits a text-only prompt and returns the generated text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []part{{Text: prompt}})
}

// generate performs one generateContent call.
func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("request failed: %w: %v", apierr.ErrTimeout, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(resp.StatusCode, respBody)
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response has no candidates: %w", apierr.ErrBadRequest)
	}

	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// classifyHTTPError maps API error responses to apierr sentinels.
func classifyHTTPError(statusCode int, body []byte) error {
	var errResp errorResponse
	msg := ""
	if err := json.Unmarshal(body, &errResp); err == nil {
		msg = errResp.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", msg, apierr.ErrRateLimit)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, apierr.ErrAuthFailed)
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, apierr.ErrTimeout)
	case statusCode >= 500:
		return fmt.Errorf("%s: %w", msg, apierr.ErrServer)
	case statusCode >= 400:
		return fmt.Errorf("%s: %w", msg, apierr.ErrBadRequest)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, msg)
	}
}
