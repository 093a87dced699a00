package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clipscribe/clipscribe/internal/platform"
	"github.com/clipscribe/clipscribe/internal/store"
)

// mp3Bitrate is the fixed transcode bitrate for YouTube artifacts.
const mp3Bitrate = "128K"

// StreamSource enumerates and downloads a YouTube video's audio streams.
type StreamSource interface {
	// ListAudioStreams returns the available stream candidates for a video.
	ListAudioStreams(ctx context.Context, videoID string) ([]TrackCandidate, error)

	// Download fetches a stream transcoded to MP3 at outputPath. A nil track
	// requests the source's default best-audio filter.
	Download(ctx context.Context, videoID string, track *TrackCandidate, outputPath string) error
}

// YouTubeAcquirer resolves YouTube URLs to local MP3 artifacts.
type YouTubeAcquirer struct {
	store   *store.Store
	streams StreamSource
	titles  TitleLookup
	log     zerolog.Logger
}

// NewYouTubeAcquirer creates a YouTube acquirer over the given stream source
// and title lookup.
func NewYouTubeAcquirer(st *store.Store, streams StreamSource, titles TitleLookup, log zerolog.Logger) *YouTubeAcquirer {
	return &YouTubeAcquirer{store: st, streams: streams, titles: titles, log: log}
}

var _ Acquirer = (*YouTubeAcquirer)(nil)

// Acquire downloads the best audio track of a YouTube video into the store.
// Re-acquiring the same video within one store lifetime returns the cached
// artifact without a second download.
func (a *YouTubeAcquirer) Acquire(ctx context.Context, url string) (Artifact, error) {
	videoID, err := platform.ExtractYouTubeID(url)
	if err != nil {
		return Artifact{}, err
	}

	title := a.lookupTitle(ctx, videoID)

	outputPath := a.store.Path(videoID + ".mp3")
	if a.store.Exists(outputPath) {
		a.log.Debug().Str("video_id", videoID).Msg("audio already cached, skipping download")
		return Artifact{Path: outputPath, Title: title, SourceID: videoID}, nil
	}

	candidates, err := a.streams.ListAudioStreams(ctx, videoID)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
	}

	var track *TrackCandidate
	if selected, ok := SelectTrack(candidates); ok {
		track = &selected
		a.log.Debug().
			Str("video_id", videoID).
			Str("format_id", selected.FormatID).
			Str("track", selected.DisplayName).
			Msg("selected audio track")
	} else {
		a.log.Debug().Str("video_id", videoID).Msg("no audio-only candidates, using default filter")
	}

	if err := a.streams.Download(ctx, videoID, track, outputPath); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
	}
	if !a.store.Exists(outputPath) {
		return Artifact{}, fmt.Errorf("%w: audio file was not downloaded", ErrAcquisitionFailed)
	}

	return Artifact{Path: outputPath, Title: title, SourceID: videoID}, nil
}

// lookupTitle resolves the video title, substituting a synthetic one when the
// lookup fails. Lookup failure is never fatal.
func (a *YouTubeAcquirer) lookupTitle(ctx context.Context, videoID string) string {
	title, err := a.titles.Title(ctx, videoID)
	if err != nil {
		a.log.Debug().Err(err).Str("video_id", videoID).Msg("title lookup failed, using synthetic title")
		return "YouTube Video " + videoID
	}
	return title
}

// toolRunner combines the two command execution styles the yt-dlp source needs.
type toolRunner interface {
	commandRunner
	outputRunner
}

// YtdlpStreamSource implements StreamSource by shelling out to yt-dlp.
type YtdlpStreamSource struct {
	ytdlpPath  string
	ffmpegPath string
	runner     toolRunner
}

// YtdlpStreamSourceOption configures a YtdlpStreamSource.
type YtdlpStreamSourceOption func(*YtdlpStreamSource)

// WithStreamRunner sets the command runner (for testing).
func WithStreamRunner(r toolRunner) YtdlpStreamSourceOption {
	return func(s *YtdlpStreamSource) {
		s.runner = r
	}
}

// NewYtdlpStreamSource creates a stream source backed by the yt-dlp and
// ffmpeg binaries at the given paths.
func NewYtdlpStreamSource(ytdlpPath, ffmpegPath string, opts ...YtdlpStreamSourceOption) *YtdlpStreamSource {
	s := &YtdlpStreamSource{
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		runner:     osCommandRunner{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ StreamSource = (*YtdlpStreamSource)(nil)

// ytdlpFormat is the subset of yt-dlp's format JSON the selector needs.
type ytdlpFormat struct {
	FormatID   string  `json:"format_id"`
	Acodec     string  `json:"acodec"`
	Vcodec     string  `json:"vcodec"`
	Language   string  `json:"language"`
	FormatNote string  `json:"format_note"`
	ABR        float64 `json:"abr"`
}

// ListAudioStreams dumps the video's format table and maps it to candidates.
func (s *YtdlpStreamSource) ListAudioStreams(ctx context.Context, videoID string) ([]TrackCandidate, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID
	out, err := s.runner.Output(ctx, s.ytdlpPath,
		[]string{"-J", "--no-warnings", watchURL})
	if err != nil {
		return nil, fmt.Errorf("yt-dlp format dump failed: %w", err)
	}

	var info struct {
		Formats []ytdlpFormat `json:"formats"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp format dump: %w", err)
	}

	candidates := make([]TrackCandidate, 0, len(info.Formats))
	for _, f := range info.Formats {
		candidates = append(candidates, TrackCandidate{
			FormatID:    f.FormatID,
			AudioOnly:   hasCodec(f.Acodec) && !hasCodec(f.Vcodec),
			Language:    f.Language,
			IsDefault:   strings.Contains(strings.ToLower(f.FormatNote), "default"),
			DisplayName: f.FormatNote,
			Bitrate:     int(f.ABR),
		})
	}
	return candidates, nil
}

// hasCodec reports whether a yt-dlp codec field names a real codec.
func hasCodec(codec string) bool {
	return codec != "" && codec != "none"
}

// Download streams the chosen format and transcodes it to MP3 at outputPath.
func (s *YtdlpStreamSource) Download(ctx context.Context, videoID string, track *TrackCandidate, outputPath string) error {
	watchURL := "https://www.youtube.com/watch?v=" + videoID

	format := "bestaudio"
	if track != nil && track.FormatID != "" {
		format = track.FormatID
	}

	base := strings.TrimSuffix(outputPath, ".mp3")
	args := []string{
		watchURL,
		"-f", format,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", mp3Bitrate,
		"-o", base,
		"--ffmpeg-location", s.ffmpegPath,
		"--quiet", "--no-warnings", "--no-progress",
	}

	out, err := s.runner.CombinedOutput(ctx, s.ytdlpPath, args)
	if err != nil {
		return fmt.Errorf("yt-dlp download failed: %v: %s", err, firstLine(out))
	}
	return nil
}

// firstLine trims tool output to its first line for error messages.
func firstLine(out []byte) string {
	text := strings.TrimSpace(string(out))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return text
}
