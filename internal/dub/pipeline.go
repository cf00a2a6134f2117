// Package dub runs the extract, transcribe, translate, synthesize and remux
// steps that turn an uploaded video into a dubbed one.
package dub

import (
	"context"
	"os"
	"time"

	"github.com/MimeLyc/poe-dubber/internal/job"
	"github.com/MimeLyc/poe-dubber/internal/media"
	"github.com/MimeLyc/poe-dubber/internal/storage"
	"github.com/MimeLyc/poe-dubber/pkg/log"
)

const filePerm = 0o644

// Pipeline executes dubbing jobs. It holds no per-job state and may be
// shared by concurrent requests; each run works on its own job files.
type Pipeline struct {
	media       MediaToolkit
	transcriber Transcriber
	translator  Translator
	synthesizer Synthesizer
	publisher   Publisher

	workDir string
	cleanup job.CleanupPolicy
	newID   func() string
}

type Option func(*Pipeline)

// WithWorkDir sets the directory job files are written to
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) {
		p.workDir = dir
	}
}

// WithCleanup sets which job files are deleted after a run
func WithCleanup(policy job.CleanupPolicy) Option {
	return func(p *Pipeline) {
		p.cleanup = policy
	}
}

// WithPublisher uploads the output video after a successful remux
func WithPublisher(publisher Publisher) Option {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

// WithIDGenerator replaces job.NewID
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

func NewPipeline(
	toolkit MediaToolkit,
	transcriber Transcriber,
	translator Translator,
	synthesizer Synthesizer,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		media:       toolkit,
		transcriber: transcriber,
		translator:  translator,
		synthesizer: synthesizer,
		workDir:     ".",
		cleanup:     job.CleanupKeep,
		newID:       job.NewID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every step of one job in order. The first failing step
// aborts the job and is reported as a *PipelineError.
func (p *Pipeline) Run(ctx context.Context, req Request) (res Result, err error) {
	j := job.New(p.workDir, p.newID())
	started := time.Now()
	log.Info("Job %s started: %d bytes, target language %q", j.ID, len(req.Video), req.TargetLanguage)

	defer func() {
		p.cleanupFiles(j, err == nil)
		if err != nil {
			logFailure(j.ID, err)
			return
		}
		log.Info("Job %s done in %s: %s", j.ID, time.Since(started).Round(time.Millisecond), res.OutputVideo)
	}()

	stage := StageUpload
	err = safeExecute(&stage, func() error {
		return p.run(ctx, j, req, &stage, &res)
	})
	return res, err
}

// run advances *stage before each step so that a panic is attributed to it
func (p *Pipeline) run(ctx context.Context, j job.Job, req Request, stage *Stage, res *Result) error {
	if err := os.WriteFile(j.InputVideo, req.Video, filePerm); err != nil {
		return WrapError(err, StageUpload, ErrFileWrite, "failed to store uploaded video").
			WithContext("path", j.InputVideo)
	}
	log.Debug("Job %s: stored upload at %s", j.ID, j.InputVideo)

	*stage = StageExtract
	if err := p.media.ExtractAudio(ctx, j.InputVideo, j.ExtractedAudio); err != nil {
		return WrapError(err, StageExtract, classify(ctx, err, ErrUnknown), "failed to extract audio").
			WithContext("video", j.InputVideo)
	}
	if d, err := media.WAVDuration(j.ExtractedAudio); err != nil {
		log.Warn("Job %s: could not read extracted audio header: %v", j.ID, err)
	} else {
		log.Info("Job %s: extracted %s of audio", j.ID, d.Round(time.Millisecond))
	}

	*stage = StageTranscribe
	transcript, err := p.transcriber.Transcribe(ctx, j.ExtractedAudio)
	if err != nil {
		return WrapError(err, StageTranscribe, classify(ctx, err, ErrAPI), "failed to transcribe audio").
			WithContext("audio", j.ExtractedAudio)
	}
	log.Info("Job %s: transcribed %d characters", j.ID, len(transcript))

	*stage = StageTranslate
	translated, err := p.translator.Translate(ctx, transcript, req.TargetLanguage)
	if err != nil {
		return WrapError(err, StageTranslate, classify(ctx, err, ErrAPI), "failed to translate transcript").
			WithContext("target_language", req.TargetLanguage)
	}
	log.Info("Job %s: translated into %q, %d characters", j.ID, req.TargetLanguage, len(translated))

	*stage = StageSynthesize
	audio, err := p.synthesizer.Synthesize(ctx, translated)
	if err != nil {
		return WrapError(err, StageSynthesize, classify(ctx, err, ErrAPI), "failed to synthesize speech")
	}
	if err := os.WriteFile(j.DubbedAudio, audio, filePerm); err != nil {
		return WrapError(err, StageSynthesize, ErrFileWrite, "failed to store synthesized speech").
			WithContext("path", j.DubbedAudio)
	}
	log.Info("Job %s: synthesized %d bytes of speech", j.ID, len(audio))

	*stage = StageRemux
	// the original upload keeps its video stream, the dub replaces its audio
	if err := p.media.Remux(ctx, j.InputVideo, j.DubbedAudio, j.OutputVideo); err != nil {
		return WrapError(err, StageRemux, classify(ctx, err, ErrUnknown), "failed to remux dubbed video").
			WithContext("video", j.InputVideo).
			WithContext("audio", j.DubbedAudio)
	}

	res.JobID = j.ID
	res.OutputVideo = j.OutputVideo
	res.TargetLanguage = req.TargetLanguage

	if p.publisher == nil {
		return nil
	}
	*stage = StagePublish
	url, err := p.publisher.Publish(ctx, storage.ObjectName(j.ID, j.OutputVideo), j.OutputVideo)
	if err != nil {
		*res = Result{}
		return WrapError(err, StagePublish, classify(ctx, err, ErrAPI), "failed to publish output video")
	}
	res.OutputURL = url
	return nil
}

func (p *Pipeline) cleanupFiles(j job.Job, succeeded bool) {
	disposable := p.cleanup.Disposable(j, succeeded)
	if len(disposable) == 0 {
		return
	}
	if err := job.Remove(disposable); err != nil {
		log.Warn("Job %s: cleanup incomplete: %v", j.ID, err)
		return
	}
	log.Debug("Job %s: removed %d files (%s policy)", j.ID, len(disposable), p.cleanup)
}
