package config

import (
	"errors"
	"os"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr           string
	TranscriptionBaseURL string
	TranscriptionAPIKey  string
	TranscriptionModel   string
	CompletionBaseURL    string
	CompletionAPIKey     string
	FeedbackModel        string
	RequestTimeout       time.Duration
	TranscriptionTimeout time.Duration
	FeedbackTimeout      time.Duration
	MaxUploadBytes       int64
	UploadDir            string
	LogLevel             string
	TracingStdout        bool
}

type envConfig struct {
	ListenAddr                  string `env:"LISTEN_ADDR" envDefault:":3001"`
	TranscriptionBaseURL        string `env:"TRANSCRIPTION_BASE_URL" envDefault:"https://api.openai.com/v1"`
	TranscriptionAPIKey         string `env:"TRANSCRIPTION_API_KEY"`
	TranscriptionModel          string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
	CompletionBaseURL           string `env:"COMPLETION_BASE_URL" envDefault:"https://api.openai.com/v1"`
	CompletionAPIKey            string `env:"COMPLETION_API_KEY"`
	FeedbackModel               string `env:"FEEDBACK_MODEL" envDefault:"gpt-4"`
	RequestTimeoutSeconds       int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"60"`
	TranscriptionTimeoutSeconds int    `env:"TRANSCRIPTION_TIMEOUT_SECONDS" envDefault:"30"`
	FeedbackTimeoutSeconds      int    `env:"FEEDBACK_TIMEOUT_SECONDS" envDefault:"55"`
	MaxUploadBytes              int64  `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	UploadDir                   string `env:"UPLOAD_DIR"`
	LogLevel                    string `env:"LOG_LEVEL" envDefault:"info"`
	TracingStdout               bool   `env:"TRACING_STDOUT" envDefault:"false"`
}

// Load reads the process environment once. Missing API keys are not an
// error: the gateways fall back to mock or simulated responses.
func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	uploadDir := strings.TrimSpace(raw.UploadDir)
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}

	cfg := Config{
		ListenAddr:           strings.TrimSpace(raw.ListenAddr),
		TranscriptionBaseURL: strings.TrimRight(strings.TrimSpace(raw.TranscriptionBaseURL), "/"),
		TranscriptionAPIKey:  strings.TrimSpace(raw.TranscriptionAPIKey),
		TranscriptionModel:   strings.TrimSpace(raw.TranscriptionModel),
		CompletionBaseURL:    strings.TrimRight(strings.TrimSpace(raw.CompletionBaseURL), "/"),
		CompletionAPIKey:     strings.TrimSpace(raw.CompletionAPIKey),
		FeedbackModel:        strings.TrimSpace(raw.FeedbackModel),
		RequestTimeout:       time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		TranscriptionTimeout: time.Duration(raw.TranscriptionTimeoutSeconds) * time.Second,
		FeedbackTimeout:      time.Duration(raw.FeedbackTimeoutSeconds) * time.Second,
		MaxUploadBytes:       raw.MaxUploadBytes,
		UploadDir:            uploadDir,
		LogLevel:             strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		TracingStdout:        raw.TracingStdout,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.TranscriptionBaseURL == "" {
		return errors.New("TRANSCRIPTION_BASE_URL must not be empty")
	}
	if c.CompletionBaseURL == "" {
		return errors.New("COMPLETION_BASE_URL must not be empty")
	}
	if c.TranscriptionModel == "" {
		return errors.New("TRANSCRIPTION_MODEL must not be empty")
	}
	if c.FeedbackModel == "" {
		return errors.New("FEEDBACK_MODEL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.TranscriptionTimeout <= 0 {
		return errors.New("TRANSCRIPTION_TIMEOUT_SECONDS must be > 0")
	}
	if c.FeedbackTimeout <= 0 {
		return errors.New("FEEDBACK_TIMEOUT_SECONDS must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.UploadDir == "" {
		return errors.New("UPLOAD_DIR must not be empty")
	}
	return nil
}

// HasTranscriptionCredential reports whether real transcription calls can be made.
func (c Config) HasTranscriptionCredential() bool {
	return c.TranscriptionAPIKey != ""
}

// HasCompletionCredential reports whether real feedback calls can be made.
func (c Config) HasCompletionCredential() bool {
	return c.CompletionAPIKey != ""
}
