package dub

import (
	"context"

	"github.com/MimeLyc/poe-dubber/internal/media"
)

// MediaToolkit extracts and remuxes audio tracks
type MediaToolkit = media.Toolkit

// Transcriber turns an audio file into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Translator translates text into a free-form target language
type Translator interface {
	Translate(ctx context.Context, text string, targetLanguage string) (string, error)
}

// Synthesizer renders text to audio bytes
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Publisher copies a finished file somewhere reachable and returns its URL
type Publisher interface {
	Publish(ctx context.Context, objectName, filePath string) (string, error)
}

// Request is one dubbing job
type Request struct {
	Video          []byte
	TargetLanguage string
}

// Result describes a finished job.
// OutputURL is only set when a Publisher is configured.
type Result struct {
	JobID          string
	OutputVideo    string
	TargetLanguage string
	OutputURL      string
}
