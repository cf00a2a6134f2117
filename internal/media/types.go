package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// ErrToolNotFound reports a media binary that could not be started at all
var ErrToolNotFound = errors.New("media tool not found")

// Toolkit is the subset of ffmpeg the dubbing pipeline needs.
type Toolkit interface {
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
	Remux(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// ExitError reports a media tool that ran but exited non-zero.
// The tool's diagnostic output is discarded, so the exit code is all there is.
type ExitError struct {
	Command  string
	Args     []string
	ExitCode int
	Err      error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// execRunner runs commands with stdout and stderr discarded.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	// nil Stdout/Stderr connect the child to the null device

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Command:  name,
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Err:      err,
		}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("run %s: %w: %w", name, ErrToolNotFound, err)
	}
	return fmt.Errorf("run %s: %w", name, err)
}
