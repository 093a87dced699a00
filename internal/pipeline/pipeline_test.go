package pipeline_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clipscribe/clipscribe/internal/acquire"
	"github.com/clipscribe/clipscribe/internal/pipeline"
	"github.com/clipscribe/clipscribe/internal/store"
	"github.com/clipscribe/clipscribe/internal/transcribe"
)

const (
	youtubeURL = "https://www.youtube.com/watch?v=abc12345678"
	twitterURL = "https://x.com/someone/status/1234567890"
	otherURL   = "https://vimeo.com/12345"
)

// fakeAcquirer materializes an artifact file in the store so cleanup
// behavior is observable.
type fakeAcquirer struct {
	st    *store.Store
	title string
	err   error
	calls []string
}

func (f *fakeAcquirer) Acquire(_ context.Context, url string) (acquire.Artifact, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return acquire.Artifact{}, f.err
	}
	path := f.st.Path(f.title + ".mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o600); err != nil {
		return acquire.Artifact{}, err
	}
	return acquire.Artifact{Path: path, Title: f.title, SourceID: "abc12345678"}, nil
}

type fakeTranscriber struct {
	text     string
	err      error
	gotPaths []string
	gotURLs  []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, art acquire.Artifact, sourceURL string) (transcribe.Result, error) {
	f.gotPaths = append(f.gotPaths, art.Path)
	f.gotURLs = append(f.gotURLs, sourceURL)
	if f.err != nil {
		return transcribe.Result{}, f.err
	}
	return transcribe.Result{Title: art.Title, Transcription: f.text}, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return st
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("routes by platform and reports in order", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		yt := &fakeAcquirer{st: st, title: "YT Video"}
		tw := &fakeAcquirer{st: st, title: "TW Clip"}
		tr := &fakeTranscriber{text: "words"}
		r := pipeline.NewRunner(st, yt, tw, tr, zerolog.Nop())

		successes, failures := r.ProcessBatch(context.Background(), []string{youtubeURL, twitterURL})
		if len(failures) != 0 {
			t.Fatalf("failures = %+v", failures)
		}
		if len(successes) != 2 {
			t.Fatalf("successes = %+v", successes)
		}
		if successes[0].Title != "YT Video" || successes[1].Title != "TW Clip" {
			t.Errorf("order wrong: %+v", successes)
		}
		if len(yt.calls) != 1 || len(tw.calls) != 1 {
			t.Errorf("acquirer calls: yt=%d tw=%d", len(yt.calls), len(tw.calls))
		}
		if tr.gotURLs[0] != youtubeURL || tr.gotURLs[1] != twitterURL {
			t.Errorf("source URLs passed through wrong: %v", tr.gotURLs)
		}
	})

	t.Run("one bad url does not abort the batch", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		yt := &fakeAcquirer{st: st, title: "YT Video"}
		tr := &fakeTranscriber{text: "words"}
		r := pipeline.NewRunner(st, yt, &fakeAcquirer{st: st}, tr, zerolog.Nop())

		successes, failures := r.ProcessBatch(context.Background(), []string{youtubeURL, otherURL, youtubeURL})
		if len(successes) != 2 {
			t.Fatalf("successes = %+v", successes)
		}
		if len(failures) != 1 {
			t.Fatalf("failures = %+v", failures)
		}
		if failures[0].URL != otherURL {
			t.Errorf("failure url = %q", failures[0].URL)
		}
	})

	t.Run("acquisition failure reported per url", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		yt := &fakeAcquirer{st: st, err: acquire.ErrAcquisitionFailed}
		r := pipeline.NewRunner(st, yt, &fakeAcquirer{st: st}, &fakeTranscriber{}, zerolog.Nop())

		successes, failures := r.ProcessBatch(context.Background(), []string{youtubeURL})
		if len(successes) != 0 || len(failures) != 1 {
			t.Fatalf("successes=%+v failures=%+v", successes, failures)
		}
	})

	t.Run("removes artifact after success", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		yt := &fakeAcquirer{st: st, title: "YT Video"}
		tr := &fakeTranscriber{text: "words"}
		r := pipeline.NewRunner(st, yt, &fakeAcquirer{st: st}, tr, zerolog.Nop())

		if _, failures := r.ProcessBatch(context.Background(), []string{youtubeURL}); len(failures) != 0 {
			t.Fatalf("failures = %+v", failures)
		}
		if _, err := os.Stat(tr.gotPaths[0]); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("artifact %s not cleaned up", tr.gotPaths[0])
		}
	})

	t.Run("removes artifact after transcription failure", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		yt := &fakeAcquirer{st: st, title: "YT Video"}
		tr := &fakeTranscriber{err: transcribe.ErrTranscriptionFailed}
		r := pipeline.NewRunner(st, yt, &fakeAcquirer{st: st}, tr, zerolog.Nop())

		successes, failures := r.ProcessBatch(context.Background(), []string{youtubeURL})
		if len(successes) != 0 || len(failures) != 1 {
			t.Fatalf("successes=%+v failures=%+v", successes, failures)
		}
		if _, err := os.Stat(tr.gotPaths[0]); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("artifact %s not cleaned up", tr.gotPaths[0])
		}
	})

	t.Run("clears the store before processing", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		stale := st.Path("stale.mp3")
		if err := os.WriteFile(stale, []byte("leftover"), 0o600); err != nil {
			t.Fatalf("write stale: %v", err)
		}
		r := pipeline.NewRunner(st, &fakeAcquirer{st: st}, &fakeAcquirer{st: st}, &fakeTranscriber{}, zerolog.Nop())

		r.ProcessBatch(context.Background(), nil)
		if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("stale artifact survived batch start")
		}
	})

	t.Run("cancelled context fails remaining urls", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		yt := &fakeAcquirer{st: st, title: "YT Video"}
		r := pipeline.NewRunner(st, yt, &fakeAcquirer{st: st}, &fakeTranscriber{}, zerolog.Nop())

		successes, failures := r.ProcessBatch(ctx, []string{youtubeURL, youtubeURL})
		if len(successes) != 0 || len(failures) != 2 {
			t.Fatalf("successes=%+v failures=%+v", successes, failures)
		}
		if len(yt.calls) != 0 {
			t.Errorf("acquirer ran under cancelled context")
		}
	})
}
