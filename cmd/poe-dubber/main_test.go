package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MimeLyc/poe-dubber/internal/config"
	"github.com/MimeLyc/poe-dubber/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHTTP struct {
	listenCalled chan struct{}
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	listenErr    error
	addr         string
	shutdowns    int
}

func newFakeHTTP() *fakeHTTP {
	return &fakeHTTP{
		listenCalled: make(chan struct{}),
		shutdownCh:   make(chan struct{}),
	}
}

func (f *fakeHTTP) ListenAndServe(addr string) error {
	f.addr = addr
	close(f.listenCalled)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.shutdownCh
	return http.ErrServerClosed
}

func (f *fakeHTTP) Shutdown(context.Context) error {
	f.shutdownOnce.Do(func() {
		f.shutdowns++
		close(f.shutdownCh)
	})
	return nil
}

func TestMain_StartsAndStopsHTTP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{HTTP: config.HTTPConfig{Addr: "127.0.0.1:0"}}
	httpSrv := newFakeHTTP()

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- runWithComponents(ctx, cfg, httpSrv)
	}()

	select {
	case <-httpSrv.listenCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("http server did not start")
	}

	cancel()

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runWithComponents did not exit after cancellation")
	}

	assert.Equal(t, "127.0.0.1:0", httpSrv.addr)
	assert.Equal(t, 1, httpSrv.shutdowns)
}

func TestMain_ListenFailureStopsRun(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{Addr: ":1"}}
	httpSrv := newFakeHTTP()
	httpSrv.listenErr = errors.New("address already in use")

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- runWithComponents(context.Background(), cfg, httpSrv)
	}()

	select {
	case err := <-doneCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "address already in use")
	case <-time.After(2 * time.Second):
		t.Fatal("runWithComponents did not exit after listen failure")
	}
}

func TestBuildPipeline(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "jobs")
	cfg := &config.Config{
		OpenAI: config.OpenAIConfig{
			APIKey:             "sk-test",
			APIURL:             "http://127.0.0.1:1/v1",
			TranscriptionModel: "whisper-1",
			TranslationModel:   "gpt-4o-mini",
		},
		ElevenLabs: config.ElevenLabsConfig{
			APIKey:  "xi-test",
			APIURL:  "http://127.0.0.1:1",
			VoiceID: config.DefaultVoiceID,
		},
		Jobs: config.JobsConfig{
			FFmpegPath: "ffmpeg",
			WorkDir:    workDir,
			Cleanup:    job.CleanupKeep,
		},
	}

	p, err := buildPipeline(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.DirExists(t, workDir)
}
