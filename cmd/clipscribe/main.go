package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clipscribe/clipscribe/internal/acquire"
	"github.com/clipscribe/clipscribe/internal/config"
	"github.com/clipscribe/clipscribe/internal/genai"
	"github.com/clipscribe/clipscribe/internal/pipeline"
	"github.com/clipscribe/clipscribe/internal/segment"
	"github.com/clipscribe/clipscribe/internal/server"
	"github.com/clipscribe/clipscribe/internal/store"
	"github.com/clipscribe/clipscribe/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const shutdownGrace = 10 * time.Second

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:     "clipscribe",
		Short:   "Transcribe audio from video and social media URLs",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the transcription HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.New(cfg.TempDir, log)
	if err != nil {
		return fmt.Errorf("init temp store: %w", err)
	}

	youtube := acquire.NewYouTubeAcquirer(
		st,
		acquire.NewYtdlpStreamSource(cfg.YtdlpPath, cfg.FFmpegPath),
		acquire.NewOEmbedClient(),
		log,
	)
	twitter := acquire.NewTwitterAcquirer(st, cfg.YtdlpPath, cfg.FFmpegPath, log)

	inference, err := newInferenceClient(cfg)
	if err != nil {
		return err
	}
	transcriber := transcribe.NewClient(
		inference,
		segment.New(cfg.FFmpegPath),
		st,
		cfg.MaxSizeBytes,
		cfg.SegmentDuration,
		log,
	)

	var runnerOpts []pipeline.Option
	if cfg.URLTimeout > 0 {
		runnerOpts = append(runnerOpts, pipeline.WithURLTimeout(cfg.URLTimeout))
	}
	runner := pipeline.NewRunner(st, youtube, twitter, transcriber, log, runnerOpts...)

	var srvOpts []server.Option
	if cfg.StaticDir != "" {
		srvOpts = append(srvOpts, server.WithStaticDir(cfg.StaticDir))
	}
	srv := server.New(fmt.Sprintf(":%d", cfg.Port), runner, log, srvOpts...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newInferenceClient picks the transcription backend from configuration.
func newInferenceClient(cfg config.Config) (transcribe.InferenceClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return genai.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case config.ProviderOpenAI:
		return transcribe.NewOpenAIClient(cfg.OpenAIAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
	}
}
