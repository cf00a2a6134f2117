package dub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/poe-dubber/internal/media"
	"github.com/MimeLyc/poe-dubber/pkg/log"
)

// Stage names one step of the dubbing pipeline
type Stage string

const (
	StageUpload     Stage = "upload"
	StageExtract    Stage = "extract"
	StageTranscribe Stage = "transcribe"
	StageTranslate  Stage = "translate"
	StageSynthesize Stage = "synthesize"
	StageRemux      Stage = "remux"
	StagePublish    Stage = "publish"
)

type ErrorType int

const (
	ErrFileWrite ErrorType = iota
	ErrMedia
	ErrAPI
	ErrConfig
	ErrCanceled
	ErrUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ErrFileWrite:
		return "FileWrite"
	case ErrMedia:
		return "Media"
	case ErrAPI:
		return "API"
	case ErrConfig:
		return "Config"
	case ErrCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// PipelineError is a failure of a single pipeline stage
type PipelineError struct {
	Stage   Stage
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(stage Stage, errorType ErrorType, message string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func WrapError(err error, stage Stage, errorType ErrorType, message string) *PipelineError {
	e := NewError(stage, errorType, message)
	e.Cause = err
	return e
}

func (e *PipelineError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s/%s] %s", e.Stage, e.Type, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	e.Context[key] = value
	return e
}

func IsErrorType(err error, errorType ErrorType) bool {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Type == errorType
	}
	return false
}

// StageOf returns the failed stage, or "" when err is not a pipeline error
func StageOf(err error) Stage {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Stage
	}
	return ""
}

// classify picks the error type for a collaborator failure.
// A cancelled request wins over the error it caused: a killed ffmpeg
// also reports a non-zero exit.
func classify(ctx context.Context, err error, fallback ErrorType) ErrorType {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCanceled
	}
	var exitErr *media.ExitError
	if errors.As(err, &exitErr) {
		return ErrMedia
	}
	if errors.Is(err, media.ErrToolNotFound) {
		return ErrConfig
	}
	return fallback
}

// Advice returns an operator hint for the error type
func Advice(err *PipelineError) string {
	switch err.Type {
	case ErrFileWrite:
		return "Please ensure the work directory exists and has write permissions"
	case ErrMedia:
		return "Please check that ffmpeg is installed and the upload is a readable video with an audio track"
	case ErrAPI:
		return "Please check the API keys, network connectivity and the provider's service status"
	case ErrConfig:
		return "Please check that FFMPEG_PATH points to an installed ffmpeg binary"
	case ErrCanceled:
		return "The client went away or the request deadline passed before the job finished"
	default:
		return "Please review detailed error information and check relevant configuration"
	}
}

// logFailure writes the error with its advice to the log
func logFailure(jobID string, err error) {
	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		log.Error("Job %s failed: %v", jobID, err)
		return
	}
	log.Error("Job %s failed at %s: %v\n advice: %s", jobID, pErr.Stage, err, Advice(pErr))
}

// safeExecute converts a panic inside fn into an Unknown pipeline error
func safeExecute(stage *Stage, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(*stage, ErrUnknown, fmt.Sprintf("runtime error: %v", r))
		}
	}()

	return fn()
}
