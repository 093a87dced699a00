package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipscribe/clipscribe/internal/acquire"
	"github.com/clipscribe/clipscribe/internal/apierr"
	"github.com/clipscribe/clipscribe/internal/pipeline"
	"github.com/clipscribe/clipscribe/internal/store"
	"github.com/clipscribe/clipscribe/internal/transcribe"
)

// sizedAcquirer materializes an artifact of a fixed byte size.
type sizedAcquirer struct {
	st   *store.Store
	size int
}

func (f *sizedAcquirer) Acquire(_ context.Context, _ string) (acquire.Artifact, error) {
	path := f.st.Path("abc12345678.mp3")
	file, err := os.Create(path)
	if err != nil {
		return acquire.Artifact{}, err
	}
	if err := file.Truncate(int64(f.size)); err != nil {
		file.Close()
		return acquire.Artifact{}, err
	}
	if err := file.Close(); err != nil {
		return acquire.Artifact{}, err
	}
	return acquire.Artifact{Path: path, Title: "E2E Video", SourceID: "abc12345678"}, nil
}

// echoInference returns a transcript naming the submitted file.
type echoInference struct {
	audioCalls int
}

func (f *echoInference) TranscribeAudio(_ context.Context, audioPath, _ string) (string, error) {
	f.audioCalls++
	return "transcript of " + filepath.Base(audioPath), nil
}

func (f *echoInference) GenerateText(context.Context, string) (string, error) {
	return "", apierr.ErrBadRequest
}

type countingSplitter struct {
	parts int
	calls int
}

func (f *countingSplitter) Split(_ context.Context, audioPath string, _ time.Duration) ([]string, error) {
	f.calls++
	dir := filepath.Dir(audioPath)
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	paths := make([]string, 0, f.parts)
	for i := 0; i < f.parts; i++ {
		p := filepath.Join(dir, fmt.Sprintf("%s_part_%03d.mp3", base, i))
		if err := os.WriteFile(p, []byte("segment"), 0o600); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// End-to-end batch flow with a real transcription client over fakes for the
// acquisition, splitting and inference boundaries.
func TestBatchEndToEnd(t *testing.T) {
	t.Parallel()

	const maxSize = 100 << 20

	run := func(t *testing.T, artifactSize int, splitter *countingSplitter) ([]pipeline.Success, []pipeline.Failure, *echoInference, *store.Store) {
		t.Helper()
		st := newTestStore(t)
		inf := &echoInference{}
		transcriber := transcribe.NewClient(inf, splitter, st, maxSize, 30*time.Minute, zerolog.Nop(),
			transcribe.WithRetryConfig(apierr.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}))
		runner := pipeline.NewRunner(st, &sizedAcquirer{st: st, size: artifactSize}, &fakeAcquirer{st: st}, transcriber, zerolog.Nop())
		successes, failures := runner.ProcessBatch(context.Background(), []string{"https://youtu.be/abc12345678"})
		return successes, failures, inf, st
	}

	t.Run("under the size limit transcribes whole", func(t *testing.T) {
		t.Parallel()
		splitter := &countingSplitter{parts: 3}
		successes, failures, inf, st := run(t, 50<<20, splitter)
		if len(failures) != 0 {
			t.Fatalf("failures = %+v", failures)
		}
		if len(successes) != 1 || successes[0].Transcription == "" {
			t.Fatalf("successes = %+v", successes)
		}
		if splitter.calls != 0 {
			t.Errorf("splitter ran for an under-limit artifact")
		}
		if inf.audioCalls != 1 {
			t.Errorf("audio calls = %d, want 1", inf.audioCalls)
		}
		assertStoreEmpty(t, st)
	})

	t.Run("over the size limit transcribes per segment in order", func(t *testing.T) {
		t.Parallel()
		splitter := &countingSplitter{parts: 3}
		successes, failures, inf, st := run(t, 300<<20, splitter)
		if len(failures) != 0 {
			t.Fatalf("failures = %+v", failures)
		}
		if len(successes) != 1 {
			t.Fatalf("successes = %+v", successes)
		}
		blocks := strings.Split(successes[0].Transcription, "\n\n")
		if len(blocks) != 3 {
			t.Fatalf("blocks = %q", blocks)
		}
		for i, block := range blocks {
			want := fmt.Sprintf("transcript of abc12345678_part_%03d.mp3", i)
			if block != want {
				t.Errorf("block %d = %q, want %q", i, block, want)
			}
		}
		if splitter.calls != 1 {
			t.Errorf("splitter calls = %d, want 1", splitter.calls)
		}
		if inf.audioCalls != 3 {
			t.Errorf("audio calls = %d, want 3", inf.audioCalls)
		}
		assertStoreEmpty(t, st)
	})
}

// assertStoreEmpty checks the cleanup invariant: no artifact or segment
// files survive a finished batch.
func assertStoreEmpty(t *testing.T, st *store.Store) {
	t.Helper()
	entries, err := os.ReadDir(st.Dir())
	if err != nil {
		t.Fatalf("read store dir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("leftover file in store: %s", e.Name())
	}
}
