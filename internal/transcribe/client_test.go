package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVEfake"), 0o644))
	return path
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&Config{APIKey: "k", APIURL: "u"}).Validate())
	assert.ErrorContains(t, (&Config{APIURL: "u"}).Validate(), "API key")
	assert.ErrorContains(t, (&Config{APIKey: "k"}).Validate(), "API URL")
	assert.ErrorContains(t, (&Config{APIKey: "k", APIURL: "u", Timeout: -1}).Validate(), "timeout")
}

func TestNewClient_DefaultModel(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{APIKey: "k", APIURL: "https://api.openai.com/v1"})
	require.NoError(t, err)
	assert.Equal(t, "whisper-1", c.model)

	_, err = NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	audio := writeAudio(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Empty(t, r.FormValue("language"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "job.wav", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "RIFF....WAVEfake", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Hello world"}`))
	}))
	defer server.Close()

	c, err := NewClient(Config{APIKey: "test-key", APIURL: server.URL + "/v1/"})
	require.NoError(t, err)

	text, err := c.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestTranscribe_APIError(t *testing.T) {
	t.Parallel()

	audio := writeAudio(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	c, err := NewClient(Config{APIKey: "bad", APIURL: server.URL})
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), audio)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestTranscribe_MissingFile(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	c, err := NewClient(Config{APIKey: "k", APIURL: server.URL})
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.Zero(t, calls)
}
