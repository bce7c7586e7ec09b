package transcription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewcoach/internal/gateway"
	"interviewcoach/internal/upstream/openai"
)

type fakeClient struct {
	calls    int
	fileBody string
	fileName string
	model    string
	text     string
	err      error
}

func (f *fakeClient) Transcribe(_ context.Context, file io.Reader, fileName, model string) (string, error) {
	f.calls++
	body, _ := io.ReadAll(file)
	f.fileBody = string(body)
	f.fileName = fileName
	f.model = model
	return f.text, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newJob(t *testing.T, body string) *Job {
	t.Helper()
	job, err := NewJob(t.TempDir(), strings.NewReader(body), "answer.webm")
	require.NoError(t, err)
	t.Cleanup(func() { _ = job.Release() })
	return job
}

func TestNewJobSpoolsAndReleases(t *testing.T) {
	dir := t.TempDir()
	job, err := NewJob(dir, strings.NewReader("audio-bytes"), "../../answer.webm")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(job.AudioFilePath, dir))
	assert.True(t, strings.HasSuffix(job.AudioFilePath, ".webm"))
	data, err := os.ReadFile(job.AudioFilePath)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))

	require.NoError(t, job.Release())
	require.NoError(t, job.Release())
	_, err = os.Stat(job.AudioFilePath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNewJobFailsForMissingDir(t *testing.T) {
	_, err := NewJob("/nonexistent/dir/for/test", strings.NewReader("x"), "a.wav")
	require.Error(t, err)
}

func TestTranscribeSuccess(t *testing.T) {
	client := &fakeClient{text: "  I led the launch.  "}
	svc := New(client, "whisper-1", time.Second, true, discardLogger())

	res, err := svc.Transcribe(context.Background(), newJob(t, "audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "I led the launch."}, res)
	assert.Equal(t, "audio-bytes", client.fileBody)
	assert.Equal(t, "answer.webm", client.fileName)
	assert.Equal(t, "whisper-1", client.model)
}

func TestTranscribeWithoutCredentialReturnsMock(t *testing.T) {
	client := &fakeClient{}
	svc := New(client, "whisper-1", time.Second, false, discardLogger())

	res, err := svc.Transcribe(context.Background(), newJob(t, "audio"))
	require.NoError(t, err)
	assert.Equal(t, Result{Text: MockText, Degraded: true}, res)
	assert.Zero(t, client.calls)
}

func TestTranscribeSoftFailsOnUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server exploded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc := New(openai.New(ts.URL, "key", ts.Client()), "whisper-1", time.Second, true, discardLogger())
	assert.Equal(t, gateway.SoftFail, svc.Policy)

	res, err := svc.Transcribe(context.Background(), newJob(t, "audio"))
	require.NoError(t, err)
	assert.Equal(t, Result{Text: FallbackText, Degraded: true}, res)
}

func TestTranscribeSoftFailsOnNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	svc := New(openai.New(url, "key", nil), "whisper-1", time.Second, true, discardLogger())

	res, err := svc.Transcribe(context.Background(), newJob(t, "audio"))
	require.NoError(t, err)
	assert.Equal(t, FallbackText, res.Text)
	assert.True(t, res.Degraded)
}

func TestTranscribeHardFailPolicyReturnsGatewayError(t *testing.T) {
	client := &fakeClient{err: &openai.Error{StatusCode: http.StatusTooManyRequests, Body: "slow down"}}
	svc := New(client, "whisper-1", time.Second, true, discardLogger())
	svc.Policy = gateway.HardFail

	_, err := svc.Transcribe(context.Background(), newJob(t, "audio"))
	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, gateway.KindRateLimited, gwErr.Kind)
}

func TestTranscribeReturnsLocalFileError(t *testing.T) {
	client := &fakeClient{}
	svc := New(client, "whisper-1", time.Second, true, discardLogger())

	job := newJob(t, "audio")
	require.NoError(t, job.Release())

	_, err := svc.Transcribe(context.Background(), job)
	require.Error(t, err)
	assert.Zero(t, client.calls)
}
