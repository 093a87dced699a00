// Package acquire resolves platform URLs to local audio artifacts.
//
// Each supported platform has its own Acquirer; both write MP3 artifacts
// into the injected artifact store. Title lookups are best-effort and never
// fatal: a failed lookup substitutes a synthetic title.
package acquire

import (
	"context"
	"errors"
)

// Artifact is a locally stored audio file produced by acquisition.
// It is owned by the pipeline run that created it and must be deleted on
// every exit path of that run.
type Artifact struct {
	Path     string
	Title    string
	SourceID string
}

// Acquirer resolves one URL to a local audio artifact.
type Acquirer interface {
	Acquire(ctx context.Context, url string) (Artifact, error)
}

// ErrAcquisitionFailed indicates audio download or transcoding failed.
// The wrapped error carries the underlying tool or stream message.
var ErrAcquisitionFailed = errors.New("audio acquisition failed")
