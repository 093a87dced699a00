package acquire

import (
	"context"
	"net/http"
	"os/exec"
)

// commandRunner executes external commands and returns their combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// outputRunner executes external commands and returns stdout only,
// for tools whose stdout is the answer (yt-dlp --print).
type outputRunner interface {
	Output(ctx context.Context, name string, args []string) ([]byte, error)
}

// httpDoer abstracts the HTTP client for metadata lookups.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// osCommandRunner implements commandRunner and outputRunner using os/exec.
type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are built by the acquirers, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

func (osCommandRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are built by the acquirers, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}
