package acquire

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipscribe/clipscribe/internal/platform"
	"github.com/clipscribe/clipscribe/internal/store"
)

// TwitterAcquirer resolves Twitter/X broadcast and status URLs to local MP3
// artifacts by shelling out to yt-dlp.
type TwitterAcquirer struct {
	store      *store.Store
	ytdlpPath  string
	ffmpegPath string
	runner     toolRunner
	now        func() time.Time
	log        zerolog.Logger
}

// TwitterOption configures a TwitterAcquirer.
type TwitterOption func(*TwitterAcquirer)

// WithTwitterRunner sets the command runner (for testing).
func WithTwitterRunner(r toolRunner) TwitterOption {
	return func(a *TwitterAcquirer) {
		a.runner = r
	}
}

// WithTwitterClock sets the time source used to uniquify output paths (for testing).
func WithTwitterClock(now func() time.Time) TwitterOption {
	return func(a *TwitterAcquirer) {
		a.now = now
	}
}

// NewTwitterAcquirer creates a Twitter/X acquirer.
func NewTwitterAcquirer(st *store.Store, ytdlpPath, ffmpegPath string, log zerolog.Logger, opts ...TwitterOption) *TwitterAcquirer {
	a := &TwitterAcquirer{
		store:      st,
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		runner:     osCommandRunner{},
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ Acquirer = (*TwitterAcquirer)(nil)

// Acquire extracts the audio of a Twitter/X broadcast or status post.
func (a *TwitterAcquirer) Acquire(ctx context.Context, url string) (Artifact, error) {
	ref, err := platform.ParseTwitterURL(url)
	if err != nil {
		return Artifact{}, err
	}

	title := a.lookupTitle(ctx, url, ref.ID)

	// Remove any stale artifact or partial temp file at the deterministic
	// path so a retried acquisition starts clean.
	outputPath := a.store.Path(ref.Filename() + ".mp3")
	a.store.Remove(outputPath)
	a.store.Remove(strings.TrimSuffix(outputPath, ".mp3") + ".temp")

	// Uniquify the output path to avoid collisions across runs.
	uniqueBase := fmt.Sprintf("%s_%d", strings.TrimSuffix(outputPath, ".mp3"), a.now().UnixMilli())
	finalPath := uniqueBase + ".mp3"

	args := []string{
		url,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"-o", uniqueBase,
		"--ffmpeg-location", a.ffmpegPath,
		"--quiet", "--no-warnings", "--no-progress",
	}
	out, err := a.runner.CombinedOutput(ctx, a.ytdlpPath, args)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: yt-dlp failed: %v: %s", ErrAcquisitionFailed, err, firstLine(out))
	}
	if !a.store.Exists(finalPath) {
		return Artifact{}, fmt.Errorf("%w: audio file was not downloaded", ErrAcquisitionFailed)
	}

	return Artifact{Path: finalPath, Title: title, SourceID: ref.ID}, nil
}

// lookupTitle fetches the post title via yt-dlp, substituting a synthetic
// title on any failure. Lookup failure is never fatal.
func (a *TwitterAcquirer) lookupTitle(ctx context.Context, url, id string) string {
	out, err := a.runner.Output(ctx, a.ytdlpPath,
		[]string{"--skip-download", "--print", "title", url})
	if err == nil {
		if title := strings.TrimSpace(string(out)); title != "" {
			return title
		}
	} else {
		a.log.Debug().Err(err).Str("url", url).Msg("twitter title lookup failed, using synthetic title")
	}

	if id != "" {
		return fmt.Sprintf("Twitter/X Content (%s)", id)
	}
	return fmt.Sprintf("Twitter/X Content (%s)", a.now().Format("2006-01-02"))
}
