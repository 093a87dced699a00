// Package apierr provides shared error sentinels and retry infrastructure
// for the inference-service clients. Provider-specific failures are
// classified into these sentinels at the adapter boundary, so callers can
// decide retryability with errors.Is without knowing which provider ran.
package apierr

import "errors"

// Sentinel errors for inference API failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrServer indicates a transient 5xx response from the service.
	ErrServer = errors.New("server error")
)

// Retryable reports whether an error is transient and worth another attempt.
// Rate limits, timeouts, and server errors retry; auth and client errors do not.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServer)
}
