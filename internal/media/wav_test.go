package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSilentWAV(t *testing.T, path string, sampleRate, seconds int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           make([]int, sampleRate*seconds),
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestWAVDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.wav")
	writeSilentWAV(t, path, 16000, 2)

	d, err := WAVDuration(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d.Seconds(), 0.05)
}

func TestWAVDuration_NotAWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_dub.wav")
	require.NoError(t, os.WriteFile(path, []byte("ID3 mp3 bytes"), 0o644))

	_, err := WAVDuration(path)
	assert.Error(t, err)
}

func TestWAVDuration_Missing(t *testing.T) {
	_, err := WAVDuration(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
