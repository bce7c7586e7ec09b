package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/feedback"
	"interviewcoach/internal/gateway"
	"interviewcoach/internal/model"
	"interviewcoach/internal/transcription"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type TranscriptionService interface {
	Transcribe(ctx context.Context, job *transcription.Job) (transcription.Result, error)
}

type FeedbackService interface {
	Generate(ctx context.Context, req feedback.Request) (feedback.Result, error)
}

type UpstreamChecker interface {
	CheckModels(ctx context.Context) error
}

type MetricsObserver interface {
	ObserveHTTP(route, method string, status int, duration time.Duration)
	IncTranscriptionDegraded()
	ObserveFeedback(mode, outcome string)
	AddFeedbackTokens(prompt, completion int)
}

type Dependencies struct {
	Transcription  TranscriptionService
	Feedback       FeedbackService
	Upstream       UpstreamChecker
	Metrics        MetricsObserver
	MetricsHandler http.Handler
}

type server struct {
	cfg          config.Config
	logger       *slog.Logger
	transcriber  TranscriptionService
	feedback     FeedbackService
	upstream     UpstreamChecker
	metrics      MetricsObserver
	metricsRoute http.Handler
}

type ctxKey string

const (
	requestIDHeader  = "X-Request-Id"
	requestIDContext = ctxKey("request_id")
	maxJSONBodyBytes = 1 << 20
	audioField       = "audio"
	healthText       = "Interview Coach API is running"
)

func NewServer(cfg config.Config, logger *slog.Logger, deps Dependencies) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Transcription == nil || deps.Feedback == nil || deps.Upstream == nil {
		panic("httpapi: all dependencies are required")
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		transcriber:  deps.Transcription,
		feedback:     deps.Feedback,
		upstream:     deps.Upstream,
		metrics:      deps.Metrics,
		metricsRoute: deps.MetricsHandler,
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.metricsRoute != nil {
		r.Handle("/metrics", s.metricsRoute)
	}

	r.Post("/transcribe", s.handleTranscribe)
	r.Post("/feedback", s.handleFeedback)

	return r
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, healthText)
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{OK: true})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.HasCompletionCredential() {
		writeJSON(w, http.StatusOK, model.ReadyResponse{OK: true, ServiceName: "InterviewCoach"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.upstream.CheckModels(ctx); err != nil {
		s.logger.Warn("readiness check failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		s.writeError(w, r, http.StatusServiceUnavailable, "Upstream check failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, model.ReadyResponse{OK: true, ServiceName: "InterviewCoach"})
}

func (s *server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(min(s.cfg.MaxUploadBytes, 8<<20)); err != nil {
		cleanupMultipartForm(r.MultipartForm)
		s.handleMultipartReadError(w, r, err)
		return
	}
	defer cleanupMultipartForm(r.MultipartForm)

	file, header, err := r.FormFile(audioField)
	if err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}
	defer func() { _ = file.Close() }()

	job, err := transcription.NewJob(s.cfg.UploadDir, file, header.Filename)
	if err != nil {
		s.logger.Error("failed to spool audio upload", "request_id", requestIDFromContext(r.Context()), "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "Failed to process audio file", err.Error())
		return
	}
	defer s.releaseJob(r, job)

	result, err := s.transcriber.Transcribe(r.Context(), job)
	if err != nil {
		s.logger.Error("transcription failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "Error transcribing audio", err.Error())
		return
	}
	if result.Degraded && s.metrics != nil {
		s.metrics.IncTranscriptionDegraded()
	}

	writeJSON(w, http.StatusOK, model.TranscriptionResponse{Text: result.Text})
}

func (s *server) releaseJob(r *http.Request, job *transcription.Job) {
	if err := job.Release(); err != nil {
		s.logger.Error("failed to delete temp audio file",
			"request_id", requestIDFromContext(r.Context()),
			"path", job.AudioFilePath,
			"error", err,
		)
	}
}

func (s *server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var req model.FeedbackRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}
	if err := ensureBodyFullyConsumed(decoder); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Transcription) == "" {
		s.writeError(w, r, http.StatusBadRequest, "No transcription provided", nil)
		return
	}

	mode := feedback.ParseMode(req.FeedbackType)
	result, err := s.feedback.Generate(r.Context(), feedback.Request{
		Question:   req.Question,
		Transcript: req.Transcription,
		Mode:       mode,
	})
	if err != nil {
		s.writeFeedbackError(w, r, mode, err)
		return
	}

	outcome := "success"
	if result.Simulated {
		outcome = "simulated"
	}
	if s.metrics != nil {
		s.metrics.ObserveFeedback(string(mode), outcome)
		if result.Usage != nil {
			s.metrics.AddFeedbackTokens(result.Usage.PromptTokens, result.Usage.CompletionTokens)
		}
	}

	writeRawJSON(w, http.StatusOK, result.Body)
}

func (s *server) writeFeedbackError(w http.ResponseWriter, r *http.Request, mode feedback.Mode, err error) {
	var (
		validationErr *feedback.ValidationError
		gwErr         *gateway.Error
	)
	outcome := "error"
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveFeedback(string(mode), outcome)
		}
	}()

	switch {
	case errors.As(err, &validationErr):
		outcome = "validation"
		s.writeError(w, r, http.StatusBadRequest, validationErr.Error(), model.ValidationDetails{
			WordCount:          validationErr.WordCount,
			UniqueWordCount:    validationErr.UniqueWordCount,
			MinWordCount:       feedback.MinWordCount,
			MinUniqueWordCount: feedback.MinUniqueWordCount,
		})
	case errors.Is(err, feedback.ErrBudgetExhausted):
		outcome = "budget"
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &gwErr):
		outcome = string(gwErr.Kind)
		s.writeError(w, r, gwErr.HTTPStatus, gwErr.Message, gwErr.RawDetails)
	default:
		s.logger.Error("feedback failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "Failed to get feedback", err.Error())
	}
}

func (s *server) handleMultipartReadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		s.writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("Audio upload exceeds %d bytes", s.cfg.MaxUploadBytes), nil)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		s.writeError(w, r, http.StatusBadRequest, "No audio file provided", nil)
	default:
		s.writeError(w, r, http.StatusBadRequest, "Invalid multipart form data", nil)
	}
}

func (s *server) handleJSONDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "JSON body too large", nil)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "Invalid JSON body", nil)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, message string, details any) {
	writeJSON(w, status, model.ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: requestIDFromContext(r.Context()),
	})
}

func (s *server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContext, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		duration := time.Since(started)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, status, duration)
		}

		s.logger.Info("http_request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
		)
	})
}

func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "request_id", requestIDFromContext(r.Context()), "panic", rec)
				s.writeError(w, r, http.StatusInternalServerError, "Internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeRawJSON forwards an upstream body without re-encoding it.
func writeRawJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func ensureBodyFullyConsumed(decoder *json.Decoder) error {
	var extra any
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("multiple JSON values")
		}
		return err
	}
	return nil
}

func cleanupMultipartForm(form *multipart.Form) {
	if form != nil {
		_ = form.RemoveAll()
	}
}

func requestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDContext).(string)
	return value
}
