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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexiqai/reader-gateway/internal/analysis"
	"github.com/lexiqai/reader-gateway/internal/api"
	"github.com/lexiqai/reader-gateway/internal/audio"
	"github.com/lexiqai/reader-gateway/internal/config"
	"github.com/lexiqai/reader-gateway/internal/observability"
	"github.com/lexiqai/reader-gateway/internal/stream"
	"github.com/lexiqai/reader-gateway/internal/stt"
	"github.com/lexiqai/reader-gateway/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("default_locale", cfg.DefaultLocale).
		Bool("recognition_enabled", cfg.RecognitionEnabled()).
		Bool("synthesis_enabled", cfg.SynthesisEnabled()).
		Str("analysis_url", cfg.AnalysisServiceURL).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Reader Gateway starting")

	recognizer := stt.NewDeepgramRecognizer(cfg)
	cartesia := tts.NewCartesiaClient(cfg)

	var analysisClient *analysis.Client
	if client, err := analysis.NewClient(cfg); err == nil {
		analysisClient = client
		defer analysisClient.Close()
	} else if !errors.Is(err, analysis.ErrNotConfigured) {
		logger.Warn().Err(err).Msg("Analysis service unavailable, readiness will report it")
	}

	// Cancelled by server.Shutdown so open voice streams end with it.
	streamsCtx, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()

	deps := stream.Dependencies{
		Config:      cfg,
		Recognizer:  recognizer,
		BaseContext: streamsCtx,
	}
	if cartesia.Enabled() {
		deps.NewSynthesizer = func(sink tts.AudioSink) tts.Synthesizer {
			return cartesia.NewSynthesizer(sink)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/annotate", api.AnnotateHandler())
	mux.HandleFunc("/languages", api.LanguagesHandler(cfg.DefaultLocale))
	mux.HandleFunc("/streams/voice", stream.Handler(deps))

	mux.HandleFunc("/health", observability.HealthCheckHandler())

	checks := []observability.DependencyCheck{
		{Name: "deepgram", Check: recognizer.Healthy, Optional: !cfg.RecognitionEnabled()},
		{Name: "cartesia", Check: cartesia.Healthy, Optional: true},
	}
	if analysisClient != nil {
		checks = append(checks, observability.DependencyCheck{Name: "analysis", Check: analysisClient.HealthCheck})
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks...))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// WriteTimeout is left unset: voice streams are long-lived and the
	// stream package sets its own per-frame write deadlines.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	server.RegisterOnShutdown(stopStreams)

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/streams/voice", cfg.Port)).
			Str("playback_encoding", cfg.PlaybackEncoding).
			Int("playback_bytes_per_second", audio.BytesPerSecond(cfg.PlaybackSampleRate, cfg.PlaybackEncoding)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
