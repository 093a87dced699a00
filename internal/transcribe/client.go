// Package transcribe turns acquired audio artifacts into text through a
// remote inference service.
//
// Two strategies exist: direct-audio (upload the artifact's bytes with a
// fixed instruction prompt, retried with exponential backoff) and a
// metadata-only fallback (ask the service to transcribe by reference).
// Artifacts over the configured size limit are segmented and transcribed
// part by part; a failed part degrades to a placeholder line instead of
// failing the whole item.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipscribe/clipscribe/internal/acquire"
	"github.com/clipscribe/clipscribe/internal/apierr"
	"github.com/clipscribe/clipscribe/internal/genai"
	"github.com/clipscribe/clipscribe/internal/segment"
	"github.com/clipscribe/clipscribe/internal/store"
)

var (
	_ InferenceClient = (*genai.Client)(nil)
	_ Splitter        = (*segment.Segmenter)(nil)
)

// ErrTranscriptionFailed indicates the direct-audio strategy exhausted its
// retries. The wrapped error is the last attempt's failure.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Default retry policy for the direct-audio strategy: three attempts with
// 1s, 2s, 4s waits between them.
const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second
)

// InferenceClient is the boundary to the speech-capable inference service.
type InferenceClient interface {
	// TranscribeAudio submits an audio file with an instruction prompt and
	// returns the generated transcription text.
	TranscribeAudio(ctx context.Context, audioPath, prompt string) (string, error)

	// GenerateText submits a text-only prompt and returns the generated text.
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Splitter divides an audio file into bounded-duration parts.
type Splitter interface {
	Split(ctx context.Context, audioPath string, maxDuration time.Duration) ([]string, error)
}

// Result is one finished transcription.
type Result struct {
	Title         string
	Transcription string
}

// Client implements the multi-stage transcription strategy over an
// InferenceClient.
type Client struct {
	inference       InferenceClient
	splitter        Splitter
	store           *store.Store
	maxSizeBytes    int64
	segmentDuration time.Duration
	retry           apierr.RetryConfig
	log             zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryConfig overrides the direct-audio retry policy (for testing).
func WithRetryConfig(cfg apierr.RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient creates a transcription client. Artifacts larger than
// maxSizeBytes are routed through splitter at segmentDuration boundaries.
func NewClient(
	inference InferenceClient,
	splitter Splitter,
	st *store.Store,
	maxSizeBytes int64,
	segmentDuration time.Duration,
	log zerolog.Logger,
	opts ...ClientOption,
) *Client {
	c := &Client{
		inference:       inference,
		splitter:        splitter,
		store:           st,
		maxSizeBytes:    maxSizeBytes,
		segmentDuration: segmentDuration,
		retry: apierr.RetryConfig{
			MaxAttempts: defaultMaxAttempts,
			BaseDelay:   defaultBaseDelay,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe produces the transcription for one artifact. sourceURL is the
// original input URL, referenced by the metadata-only fallback. The caller
// keeps ownership of the artifact file; segment files created here are
// removed as soon as their transcription attempt finishes.
func (c *Client) Transcribe(ctx context.Context, art acquire.Artifact, sourceURL string) (Result, error) {
	size, err := c.store.Size(art.Path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: cannot stat artifact: %v", ErrTranscriptionFailed, err)
	}

	if size > c.maxSizeBytes {
		c.log.Info().
			Str("title", art.Title).
			Int64("size", size).
			Int64("limit", c.maxSizeBytes).
			Msg("artifact over size limit, segmenting")
		return c.transcribeSegmented(ctx, art)
	}
	return c.transcribeWhole(ctx, art, sourceURL)
}

// transcribeWhole runs the direct-audio strategy on the full artifact.
// If the very first attempt fails at submission level (a non-retryable
// rejection), it switches to the metadata-only fallback; fallback errors
// propagate directly. Retry exhaustion surfaces the last error.
func (c *Client) transcribeWhole(ctx context.Context, art acquire.Artifact, sourceURL string) (Result, error) {
	attempts := 0
	text, err := apierr.RetryWithBackoff(ctx, c.retry, func() (string, error) {
		attempts++
		return c.inference.TranscribeAudio(ctx, art.Path, wholeFilePrompt)
	}, apierr.Retryable)
	if err == nil {
		return Result{Title: art.Title, Transcription: text}, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Result{}, err
	}

	if attempts == 1 {
		// The submission itself was rejected; retrying the same payload
		// cannot help. Ask the service to transcribe by reference instead.
		c.log.Warn().Err(err).Str("title", art.Title).Msg("direct audio submission failed, falling back to metadata-only request")
		text, fbErr := c.inference.GenerateText(ctx, metadataPrompt(art.Title, art.SourceID, sourceURL))
		if fbErr != nil {
			return Result{}, fmt.Errorf("%w: metadata fallback: %v", ErrTranscriptionFailed, fbErr)
		}
		return Result{Title: art.Title, Transcription: text}, nil
	}

	return Result{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
}

// transcribeSegmented splits the artifact and runs the direct-audio strategy
// per segment. There is no metadata fallback at segment granularity: an
// exhausted segment contributes a placeholder line. Each segment file is
// deleted right after its attempt completes.
func (c *Client) transcribeSegmented(ctx context.Context, art acquire.Artifact) (Result, error) {
	parts, err := c.splitter.Split(ctx, art.Path, c.segmentDuration)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	for i, partPath := range parts {
		if err := ctx.Err(); err != nil {
			// Stop transcribing but still release the remaining segment files.
			for _, p := range parts[i:] {
				c.store.Remove(p)
			}
			return Result{}, err
		}

		partTitle := fmt.Sprintf("%s (part %d/%d)", art.Title, i+1, len(parts))
		c.log.Debug().Str("segment", partTitle).Msg("transcribing segment")

		text, err := apierr.RetryWithBackoff(ctx, c.retry, func() (string, error) {
			return c.inference.TranscribeAudio(ctx, partPath, segmentPrompt)
		}, apierr.Retryable)
		if err != nil {
			c.log.Warn().Err(err).Str("segment", partTitle).Msg("segment transcription failed, inserting placeholder")
			text = segmentFailurePlaceholder(i + 1)
		}

		b.WriteString(text)
		b.WriteString("\n\n")
		c.store.Remove(partPath)
	}

	return Result{Title: art.Title, Transcription: strings.TrimSpace(b.String())}, nil
}
