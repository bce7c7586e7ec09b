package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/feedback"
	"interviewcoach/internal/httpapi"
	"interviewcoach/internal/observability"
	"interviewcoach/internal/transcription"
	"interviewcoach/internal/upstream/openai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()

	shutdownTracing, err := observability.InitTracing(cfg.TracingStdout, os.Stdout)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	if !cfg.HasTranscriptionCredential() {
		logger.Warn("TRANSCRIPTION_API_KEY not set, /transcribe will return mock transcriptions")
	}
	if !cfg.HasCompletionCredential() {
		logger.Warn("COMPLETION_API_KEY not set, /feedback will return simulated feedback")
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	upstreamHTTPClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: transport}
	transcriptionClient := openai.New(cfg.TranscriptionBaseURL, cfg.TranscriptionAPIKey, upstreamHTTPClient, openai.WithObserver(metrics.ObserveUpstream))
	completionClient := openai.New(cfg.CompletionBaseURL, cfg.CompletionAPIKey, upstreamHTTPClient, openai.WithObserver(metrics.ObserveUpstream))

	transcriptionService := transcription.New(transcriptionClient, cfg.TranscriptionModel, cfg.TranscriptionTimeout, cfg.HasTranscriptionCredential(), logger)
	feedbackGateway := feedback.NewGateway(completionClient, cfg.FeedbackTimeout, logger)
	feedbackService := feedback.New(feedbackGateway, cfg.FeedbackModel, cfg.HasCompletionCredential(), logger)

	handler := httpapi.NewServer(cfg, logger, httpapi.Dependencies{
		Transcription:  transcriptionService,
		Feedback:       feedbackService,
		Upstream:       completionClient,
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.ListenAddr, "feedback_model", cfg.FeedbackModel, "transcription_model", cfg.TranscriptionModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
