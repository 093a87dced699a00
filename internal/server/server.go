// Package server exposes the transcription pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipscribe/clipscribe/internal/pipeline"
)

// BatchRunner processes a batch of URLs and reports per-URL outcomes.
type BatchRunner interface {
	ProcessBatch(ctx context.Context, urls []string) ([]pipeline.Success, []pipeline.Failure)
}

var _ BatchRunner = (*pipeline.Runner)(nil)

type transcribeRequest struct {
	URLs []string `json:"urls"`
}

type transcribeResponse struct {
	Results        []pipeline.Success `json:"results"`
	Errors         []pipeline.Failure `json:"errors"`
	TotalProcessed int                `json:"totalProcessed"`
	SuccessCount   int                `json:"successCount"`
	ErrorCount     int                `json:"errorCount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the transcription API and, optionally, a static frontend.
type Server struct {
	httpServer *http.Server
	runner     BatchRunner
	log        zerolog.Logger
}

// Option configures a Server.
type Option func(*Server, *http.ServeMux)

// WithStaticDir serves the given directory at the root path.
func WithStaticDir(dir string) Option {
	return func(_ *Server, mux *http.ServeMux) {
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	}
}

// New creates a Server listening on addr.
func New(addr string, runner BatchRunner, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{runner: runner, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", s.handleTranscribe)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	for _, opt := range opts {
		opt(s, mux)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.withRecovery(s.withLogging(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped request handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.URLs) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "urls must be a non-empty array"})
		return
	}

	successes, failures := s.runner.ProcessBatch(r.Context(), req.URLs)
	if successes == nil {
		successes = []pipeline.Success{}
	}
	if failures == nil {
		failures = []pipeline.Failure{}
	}
	s.writeJSON(w, http.StatusOK, transcribeResponse{
		Results:        successes,
		Errors:         failures,
		TotalProcessed: len(req.URLs),
		SuccessCount:   len(successes),
		ErrorCount:     len(failures),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

// withLogging records method, path, status and duration for each request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// withRecovery converts handler panics into 500 responses.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
