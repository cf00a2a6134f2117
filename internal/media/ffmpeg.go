package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/MimeLyc/poe-dubber/pkg/log"
)

const defaultFFmpegCmd = "ffmpeg"

type FFmpeg struct {
	ffmpegCmd string
	runner    commandRunner
}

// NewFFmpeg returns an ffmpeg invoker. An empty path uses "ffmpeg" from PATH.
func NewFFmpeg(ffmpegPath string) *FFmpeg {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = defaultFFmpegCmd
	}
	return &FFmpeg{
		ffmpegCmd: ffmpegPath,
		runner:    execRunner{},
	}
}

// CheckAvailable resolves the ffmpeg binary and returns its full path.
func (ff *FFmpeg) CheckAvailable() (string, error) {
	path, err := exec.LookPath(ff.ffmpegCmd)
	if err != nil {
		return "", fmt.Errorf("missing dependency: %s is not installed or not on PATH: %w", ff.ffmpegCmd, err)
	}
	return path, nil
}

// ExtractAudio writes the audio track of videoPath to audioPath.
// The codec follows ffmpeg's defaults for the destination extension; an
// existing destination is overwritten.
func (ff *FFmpeg) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	return ff.run(ctx, extractAudioArgs(videoPath, audioPath))
}

// Remux combines the first video stream of videoPath, copied without
// re-encoding, with the first audio stream of audioPath. The output stops at
// the end of the shorter stream.
func (ff *FFmpeg) Remux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	return ff.run(ctx, remuxArgs(videoPath, audioPath, outputPath))
}

func (ff *FFmpeg) run(ctx context.Context, args []string) error {
	log.Debug("Run %s %s", ff.ffmpegCmd, strings.Join(args, " "))
	return ff.runner.Run(ctx, ff.ffmpegCmd, args...)
}

func extractAudioArgs(videoPath, audioPath string) []string {
	return []string{
		"-y",            // overwrite output
		"-i", videoPath, // source video
		audioPath,
	}
}

func remuxArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0", // video from the original upload
		"-map", "1:a:0", // audio from the synthesized track
		"-c:v", "copy", // no video re-encode
		"-shortest", // cut at the shorter stream
		outputPath,
	}
}
