package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"interviewcoach/internal/gateway"
)

const (
	// MockText is returned when no transcription credential is configured.
	MockText = "This is a simulated transcription. Configure a transcription API key to transcribe your recorded answers."
	// FallbackText is returned when the upstream call fails.
	FallbackText = "Transcription failed. Please try recording your answer again or type it instead."
)

type Client interface {
	Transcribe(ctx context.Context, file io.Reader, fileName, model string) (string, error)
}

// Job is one uploaded recording spooled to disk. The creator owns the file
// and must call Release on every path.
type Job struct {
	AudioFilePath string
	FileName      string

	once sync.Once
	err  error
}

// NewJob copies src into a new temp file under dir.
func NewJob(dir string, src io.Reader, fileName string) (*Job, error) {
	ext := filepath.Ext(filepath.Base(fileName))
	f, err := os.CreateTemp(dir, "answer-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp audio file: %w", err)
	}
	job := &Job{AudioFilePath: f.Name(), FileName: fileName}

	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = job.Release()
		return nil, fmt.Errorf("write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = job.Release()
		return nil, fmt.Errorf("close temp audio file: %w", err)
	}
	return job, nil
}

// Release deletes the temp file. It is safe to call more than once.
func (j *Job) Release() error {
	j.once.Do(func() {
		if err := os.Remove(j.AudioFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			j.err = err
		}
	})
	return j.err
}

type Result struct {
	Text string
	// Degraded marks MockText or FallbackText answers.
	Degraded bool
}

type Service struct {
	client        Client
	model         string
	timeout       time.Duration
	hasCredential bool
	logger        *slog.Logger
	tracer        trace.Tracer
	Policy        gateway.Policy
}

func New(client Client, model string, timeout time.Duration, hasCredential bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:        client,
		model:         strings.TrimSpace(model),
		timeout:       timeout,
		hasCredential: hasCredential,
		logger:        logger,
		tracer:        otel.Tracer("interviewcoach/transcription"),
		Policy:        gateway.SoftFail,
	}
}

// Transcribe sends the job's file upstream once. Under SoftFail only local
// file errors are returned; upstream failures become FallbackText.
func (s *Service) Transcribe(ctx context.Context, job *Job) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "transcription.transcribe")
	defer span.End()
	span.SetAttributes(attribute.String("model", s.model), attribute.String("policy", s.Policy.String()))

	if !s.hasCredential {
		s.logger.Warn("transcription api key not configured, returning mock transcription")
		return Result{Text: MockText, Degraded: true}, nil
	}

	file, err := os.Open(job.AudioFilePath)
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	fileName := job.FileName
	if fileName == "" {
		fileName = "audio.webm"
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.client.Transcribe(ctx, file, fileName, s.model)
	if err != nil {
		gwErr := gateway.Translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(gwErr.Kind))
		s.logger.Error("transcription upstream call failed",
			"kind", gwErr.Kind,
			"policy", s.Policy.String(),
			"error", err,
		)
		if s.Policy == gateway.SoftFail {
			return Result{Text: FallbackText, Degraded: true}, nil
		}
		return Result{}, gwErr
	}
	return Result{Text: strings.TrimSpace(text)}, nil
}
