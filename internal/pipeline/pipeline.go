// Package pipeline orchestrates the full journey of a batch of URLs:
// classify, acquire audio, transcribe, clean up. URLs are processed
// sequentially and independently; one failure never aborts the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipscribe/clipscribe/internal/acquire"
	"github.com/clipscribe/clipscribe/internal/platform"
	"github.com/clipscribe/clipscribe/internal/store"
	"github.com/clipscribe/clipscribe/internal/transcribe"
)

// ErrUnsupportedURL indicates the input URL belongs to no supported platform.
var ErrUnsupportedURL = errors.New("unsupported URL")

// Transcriber produces a transcription for one acquired artifact.
type Transcriber interface {
	Transcribe(ctx context.Context, art acquire.Artifact, sourceURL string) (transcribe.Result, error)
}

// Success is one finished URL in a batch response.
type Success struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Transcription string `json:"transcription"`
}

// Failure is one failed URL in a batch response.
type Failure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Runner drives batches through the acquire and transcribe stages.
type Runner struct {
	store       *store.Store
	youtube     acquire.Acquirer
	twitter     acquire.Acquirer
	transcriber Transcriber
	urlTimeout  time.Duration
	log         zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithURLTimeout bounds the processing time of each individual URL.
// Zero disables the per-URL deadline.
func WithURLTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.urlTimeout = d
	}
}

// NewRunner creates a batch runner over the given acquirers and transcriber.
func NewRunner(
	st *store.Store,
	youtube, twitter acquire.Acquirer,
	transcriber Transcriber,
	log zerolog.Logger,
	opts ...Option,
) *Runner {
	r := &Runner{
		store:       st,
		youtube:     youtube,
		twitter:     twitter,
		transcriber: transcriber,
		log:         log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProcessBatch handles urls in order and returns per-URL outcomes, each
// slice ordered by input position. The temp store is cleared before the
// first URL so stale artifacts from interrupted runs never accumulate.
// A context cancellation stops the batch; already-finished results are
// still returned.
func (r *Runner) ProcessBatch(ctx context.Context, urls []string) ([]Success, []Failure) {
	r.store.Clear()

	var successes []Success
	var failures []Failure
	for _, url := range urls {
		if ctx.Err() != nil {
			failures = append(failures, Failure{URL: url, Error: ctx.Err().Error()})
			continue
		}

		res, err := r.processOne(ctx, url)
		if err != nil {
			r.log.Error().Err(err).Str("url", url).Msg("url failed")
			failures = append(failures, Failure{URL: url, Error: err.Error()})
			continue
		}
		successes = append(successes, Success{URL: url, Title: res.Title, Transcription: res.Transcription})
	}
	return successes, failures
}

// processOne runs one URL through classify, acquire, transcribe. The
// acquired artifact is removed on every exit path, success or failure.
func (r *Runner) processOne(ctx context.Context, url string) (transcribe.Result, error) {
	if r.urlTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.urlTimeout)
		defer cancel()
	}

	var acquirer acquire.Acquirer
	switch platform.Classify(url) {
	case platform.YouTube:
		acquirer = r.youtube
	case platform.TwitterX:
		acquirer = r.twitter
	default:
		return transcribe.Result{}, fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
	}

	r.log.Info().Str("url", url).Msg("acquiring audio")
	art, err := acquirer.Acquire(ctx, url)
	if err != nil {
		return transcribe.Result{}, err
	}
	defer r.store.Remove(art.Path)

	r.log.Info().Str("url", url).Str("title", art.Title).Msg("transcribing")
	res, err := r.transcriber.Transcribe(ctx, art, url)
	if err != nil {
		return transcribe.Result{}, err
	}
	return res, nil
}
