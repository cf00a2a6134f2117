// Package job names the files that belong to one dubbing request.
package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	inputVideoSuffix     = ".mp4"
	extractedAudioSuffix = ".wav"
	dubbedAudioSuffix    = "_dub.wav"
	outputVideoSuffix    = "_output.mp4"
)

// Job is the set of files derived from one request id.
// Each file is written once by one pipeline step and read by the next.
type Job struct {
	ID             string
	Dir            string
	InputVideo     string
	ExtractedAudio string
	DubbedAudio    string
	OutputVideo    string
}

// New derives the job file paths for id inside dir.
// With dir "." (or empty) the paths are bare file names.
func New(dir, id string) Job {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return Job{
		ID:             id,
		Dir:            dir,
		InputVideo:     filepath.Join(dir, id+inputVideoSuffix),
		ExtractedAudio: filepath.Join(dir, id+extractedAudioSuffix),
		DubbedAudio:    filepath.Join(dir, id+dubbedAudioSuffix),
		OutputVideo:    filepath.Join(dir, id+outputVideoSuffix),
	}
}

// NewID generates a job identifier. UUIDv7 keeps ids time ordered on disk;
// a random v4 id is used when v7 generation fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Files returns every job file in pipeline order.
func (j Job) Files() []string {
	return []string{j.InputVideo, j.ExtractedAudio, j.DubbedAudio, j.OutputVideo}
}

// Intermediates returns every job file except the output video.
func (j Job) Intermediates() []string {
	return lo.Without(j.Files(), j.OutputVideo)
}

// Remove deletes paths, ignoring files that do not exist.
func Remove(paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// CleanupPolicy decides which job files are deleted once a request ends.
type CleanupPolicy string

const (
	// CleanupKeep never deletes job files.
	CleanupKeep CleanupPolicy = "keep"
	// CleanupFailed deletes every job file of a failed request.
	CleanupFailed CleanupPolicy = "failed"
	// CleanupIntermediate deletes every job file of a failed request and
	// everything but the output video of a successful one.
	CleanupIntermediate CleanupPolicy = "intermediate"
)

func ParseCleanupPolicy(raw string) (CleanupPolicy, error) {
	switch policy := CleanupPolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case "":
		return CleanupKeep, nil
	case CleanupKeep, CleanupFailed, CleanupIntermediate:
		return policy, nil
	default:
		return "", fmt.Errorf("invalid cleanup policy %q (expected keep, failed, or intermediate)", raw)
	}
}

// Disposable returns the files of j that policy removes for the given outcome.
func (p CleanupPolicy) Disposable(j Job, succeeded bool) []string {
	switch p {
	case CleanupFailed:
		if succeeded {
			return nil
		}
		return j.Files()
	case CleanupIntermediate:
		if succeeded {
			return j.Intermediates()
		}
		return j.Files()
	default:
		return nil
	}
}
