package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"LISTEN_ADDR", "TRANSCRIPTION_BASE_URL", "TRANSCRIPTION_API_KEY", "TRANSCRIPTION_MODEL",
		"COMPLETION_BASE_URL", "COMPLETION_API_KEY", "FEEDBACK_MODEL", "UPLOAD_DIR",
		"REQUEST_TIMEOUT_SECONDS", "TRANSCRIPTION_TIMEOUT_SECONDS", "FEEDBACK_TIMEOUT_SECONDS",
		"MAX_UPLOAD_BYTES", "LOG_LEVEL", "TRACING_STDOUT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.ListenAddr)
	assert.Equal(t, "https://api.openai.com/v1", cfg.CompletionBaseURL)
	assert.Equal(t, "whisper-1", cfg.TranscriptionModel)
	assert.Equal(t, "gpt-4", cfg.FeedbackModel)
	assert.Equal(t, 30*time.Second, cfg.TranscriptionTimeout)
	assert.Equal(t, os.TempDir(), cfg.UploadDir)
	assert.False(t, cfg.HasCompletionCredential())
	assert.False(t, cfg.HasTranscriptionCredential())
}

func TestLoadTrimsAndNormalizes(t *testing.T) {
	t.Setenv("COMPLETION_BASE_URL", " http://upstream.local/v1/ ")
	t.Setenv("COMPLETION_API_KEY", "  sk-test ")
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("TRACING_STDOUT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://upstream.local/v1", cfg.CompletionBaseURL)
	assert.Equal(t, "sk-test", cfg.CompletionAPIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TracingStdout)
	assert.True(t, cfg.HasCompletionCredential())
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("FEEDBACK_TIMEOUT_SECONDS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEEDBACK_TIMEOUT_SECONDS")
}

func TestValidate(t *testing.T) {
	valid := Config{
		ListenAddr:           ":3001",
		TranscriptionBaseURL: "http://a",
		CompletionBaseURL:    "http://b",
		TranscriptionModel:   "whisper-1",
		FeedbackModel:        "gpt-4",
		RequestTimeout:       time.Second,
		TranscriptionTimeout: time.Second,
		FeedbackTimeout:      time.Second,
		MaxUploadBytes:       1,
		UploadDir:            "/tmp",
	}
	require.NoError(t, valid.Validate())

	noUpload := valid
	noUpload.MaxUploadBytes = 0
	assert.EqualError(t, noUpload.Validate(), "MAX_UPLOAD_BYTES must be > 0")

	noModel := valid
	noModel.FeedbackModel = ""
	assert.EqualError(t, noModel.Validate(), "FEEDBACK_MODEL must not be empty")
}
