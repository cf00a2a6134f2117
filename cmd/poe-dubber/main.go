package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MimeLyc/poe-dubber/internal/config"
	"github.com/MimeLyc/poe-dubber/internal/dub"
	"github.com/MimeLyc/poe-dubber/internal/httpapi"
	"github.com/MimeLyc/poe-dubber/internal/llm"
	"github.com/MimeLyc/poe-dubber/internal/media"
	"github.com/MimeLyc/poe-dubber/internal/speech"
	"github.com/MimeLyc/poe-dubber/internal/storage"
	"github.com/MimeLyc/poe-dubber/internal/transcribe"
	"github.com/MimeLyc/poe-dubber/internal/translator"
	"github.com/MimeLyc/poe-dubber/pkg/log"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to load .env: %v", err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))
	defer func() {
		_ = log.GetLogger().Sync()
	}()
	log.Info("Config: %s", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := buildPipeline(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize pipeline: %v", err)
	}

	srv := httpapi.NewServer(pipeline, cfg.HTTP.AccessKey)
	if err := runWithComponents(ctx, cfg, srv); err != nil {
		log.Fatal("Server stopped: %v", err)
	}
	log.Info("Server stopped")
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*dub.Pipeline, error) {
	if err := os.MkdirAll(cfg.Jobs.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir %s: %w", cfg.Jobs.WorkDir, err)
	}

	ffmpeg := media.NewFFmpeg(cfg.Jobs.FFmpegPath)
	if path, err := ffmpeg.CheckAvailable(); err != nil {
		log.Warn("ffmpeg not found, every dubbing request will fail: %v", err)
	} else {
		log.Info("Using ffmpeg at %s", path)
	}

	transcriber, err := transcribe.NewClient(transcribe.Config{
		APIKey:  cfg.OpenAI.APIKey,
		APIURL:  cfg.OpenAI.APIURL,
		Model:   cfg.OpenAI.TranscriptionModel,
		Timeout: cfg.OpenAI.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription client: %w", err)
	}

	chat, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		APIURL:      cfg.OpenAI.APIURL,
		Model:       cfg.OpenAI.TranslationModel,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("translation client: %w", err)
	}

	synthesizer, err := speech.NewClient(speech.Config{
		APIKey:       cfg.ElevenLabs.APIKey,
		APIURL:       cfg.ElevenLabs.APIURL,
		VoiceID:      cfg.ElevenLabs.VoiceID,
		ModelID:      cfg.ElevenLabs.ModelID,
		OutputFormat: cfg.ElevenLabs.OutputFormat,
		Timeout:      cfg.ElevenLabs.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	opts := []dub.Option{
		dub.WithWorkDir(cfg.Jobs.WorkDir),
		dub.WithCleanup(cfg.Jobs.Cleanup),
	}

	if cfg.Minio.Enabled() {
		publisher, err := storage.NewMinioPublisher(storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		if err := publisher.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		opts = append(opts, dub.WithPublisher(publisher))
		log.Info("Publishing outputs to bucket %s", cfg.Minio.Bucket)
	}

	return dub.NewPipeline(ffmpeg, transcriber, translator.New(chat), synthesizer, opts...), nil
}

// runWithComponents serves HTTP until ctx is cancelled, then shuts the
// server down gracefully.
func runWithComponents(ctx context.Context, cfg *config.Config, httpSrv httpServer) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
