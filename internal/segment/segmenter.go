// Package segment splits oversized audio artifacts into bounded-duration
// parts with ffmpeg's segment muxer. Stream copy only, no re-encode: parts
// cover the source contiguously up to the tool's boundary rounding.
package segment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrSegmentationFailed indicates ffmpeg exited non-zero or produced no parts.
var ErrSegmentationFailed = errors.New("audio segmentation failed")

// commandRunner executes external commands and returns their combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// dirReader lists directory entries.
type dirReader interface {
	ReadDir(name string) ([]os.DirEntry, error)
}

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are built by the segmenter, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// osDirReader implements dirReader using os.ReadDir.
type osDirReader struct{}

func (osDirReader) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

// Segmenter splits audio files into fixed-duration parts.
type Segmenter struct {
	ffmpegPath string
	cmd        commandRunner
	dir        dirReader
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithCommandRunner sets the command runner (for testing).
func WithCommandRunner(r commandRunner) Option {
	return func(s *Segmenter) {
		s.cmd = r
	}
}

// WithDirReader sets the directory lister (for testing).
func WithDirReader(d dirReader) Option {
	return func(s *Segmenter) {
		s.dir = d
	}
}

// New creates a Segmenter using the ffmpeg binary at ffmpegPath.
func New(ffmpegPath string, opts ...Option) *Segmenter {
	s := &Segmenter{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
		dir:        osDirReader{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split divides audioPath into sequentially-numbered parts of at most
// maxDuration each, written next to the source as {base}_part_NNN{ext}.
// Returned paths are sorted; fixed-width numeric suffixes make lexicographic
// order equal chronological order.
func (s *Segmenter) Split(ctx context.Context, audioPath string, maxDuration time.Duration) ([]string, error) {
	dir := filepath.Dir(audioPath)
	ext := filepath.Ext(audioPath)
	base := strings.TrimSuffix(filepath.Base(audioPath), ext)
	pattern := filepath.Join(dir, base+"_part_%03d"+ext)

	args := []string{
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", int(maxDuration.Seconds())),
		"-c", "copy",
		pattern,
	}
	out, err := s.cmd.CombinedOutput(ctx, s.ffmpegPath, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrSegmentationFailed, err, lastLine(out))
	}

	entries, err := s.dir.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot list segment output: %v", ErrSegmentationFailed, err)
	}

	var parts []string
	prefix := base + "_part_"
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			parts = append(parts, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(parts)

	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no parts", ErrSegmentationFailed)
	}
	return parts, nil
}

// lastLine trims ffmpeg's chatter to its final line, which carries the error.
func lastLine(out []byte) string {
	text := strings.TrimSpace(string(out))
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return text
}
