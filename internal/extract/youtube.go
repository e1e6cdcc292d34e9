package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/clobrano/contentaudit/internal/audio"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/logger"
	"github.com/clobrano/contentaudit/internal/youtube"
)

// CaptionSource returns the published captions of a video.
type CaptionSource interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// AudioSource reads metadata and downloads the audio track of a video URL.
type AudioSource interface {
	Metadata(ctx context.Context, videoURL string) (youtube.Metadata, error)
	DownloadAudio(ctx context.Context, videoURL, dir string) (string, error)
}

// TranscriptRecorder is told which path produced a transcript.
type TranscriptRecorder interface {
	TranscriptPath(path string)
}

type videoState string

const (
	stateTranscript videoState = "transcript"
	stateMetadata   videoState = "metadata"
	stateDownload   videoState = "download"
	stateNormalize  videoState = "normalize"
	stateTranscribe videoState = "transcribe"
	stateValidate   videoState = "validate"
	stateDone       videoState = "done"
	stateFailed     videoState = "failed"
)

type transition struct {
	ok   videoState
	fail videoState
}

// videoTransitions is the whole control flow of video extraction. Caption
// failure is the only edge that does not lead to stateFailed, and no state
// ever copies metadata into the transcript.
var videoTransitions = map[videoState]transition{
	stateTranscript: {ok: stateValidate, fail: stateMetadata},
	stateMetadata:   {ok: stateDownload, fail: stateFailed},
	stateDownload:   {ok: stateNormalize, fail: stateFailed},
	stateNormalize:  {ok: stateTranscribe, fail: stateFailed},
	stateTranscribe: {ok: stateValidate, fail: stateFailed},
	stateValidate:   {ok: stateDone, fail: stateFailed},
}

// videoRun is the state of one extraction. It owns the scratch directory.
type videoRun struct {
	url        string
	videoID    string
	dir        string
	sourcePath string
	audioPath  string
	transcript string
	source     string
	err        error
}

func (r *videoRun) cleanup() {
	if r.dir != "" {
		os.RemoveAll(r.dir)
	}
}

// YouTube extracts a transcript from YouTube and other video platforms:
// captions first, then the audio track through the transcriber.
type YouTube struct {
	guard       Guard
	tempDir     string
	captions    CaptionSource
	audioSource AudioSource
	normalizer  audio.Normalizer
	transcriber audio.Transcriber
	recorder    TranscriptRecorder
	log         *zap.Logger
}

type YouTubeDeps struct {
	Captions    CaptionSource
	Audio       AudioSource
	Normalizer  audio.Normalizer
	Transcriber audio.Transcriber
	Recorder    TranscriptRecorder
}

func NewYouTube(guard Guard, tempDir string, deps YouTubeDeps, log *zap.Logger) *YouTube {
	return &YouTube{
		guard:       guard,
		tempDir:     tempDir,
		captions:    deps.Captions,
		audioSource: deps.Audio,
		normalizer:  deps.Normalizer,
		transcriber: deps.Transcriber,
		recorder:    deps.Recorder,
		log:         logger.OrNop(log),
	}
}

// Extract handles a YouTube URL. An URL without a recognizable video ID
// fails immediately.
func (y *YouTube) Extract(ctx context.Context, videoURL string) (Outcome, error) {
	id, err := youtube.VideoID(videoURL)
	if err != nil {
		return Outcome{}, failure.Wrap(failure.InvalidURL, err, "Invalid YouTube URL.")
	}
	return y.run(ctx, &videoRun{url: videoURL, videoID: id}, stateTranscript)
}

// ExtractPlatform handles other video platforms, which have no caption
// endpoint and go straight to the audio path.
func (y *YouTube) ExtractPlatform(ctx context.Context, videoURL string) (Outcome, error) {
	return y.run(ctx, &videoRun{url: videoURL}, stateMetadata)
}

func (y *YouTube) run(ctx context.Context, r *videoRun, start videoState) (Outcome, error) {
	defer r.cleanup()

	state := start
	for state != stateDone && state != stateFailed {
		err := y.step(ctx, r, state)
		next := videoTransitions[state]
		switch {
		case err == nil:
			state = next.ok
		case ctx.Err() != nil:
			r.err = stepError(ctx, err, failure.Timeout, "Video processing was cancelled")
			state = stateFailed
		default:
			if next.fail != stateFailed {
				y.log.Info("Video step failed, falling back",
					zap.String("url", r.url),
					zap.String("state", string(state)),
					zap.String("next", string(next.fail)),
					zap.Error(err),
				)
			}
			r.err = err
			state = next.fail
		}
	}

	if state == stateFailed {
		return Outcome{}, r.err
	}
	if y.recorder != nil {
		y.recorder.TranscriptPath(r.source)
	}
	return Outcome{ExtractedText: r.transcript, Transcript: r.transcript, Source: "video " + r.source}, nil
}

func (y *YouTube) step(ctx context.Context, r *videoRun, state videoState) error {
	switch state {
	case stateTranscript:
		return y.fetchCaptions(ctx, r)
	case stateMetadata:
		return y.checkMetadata(ctx, r)
	case stateDownload:
		return y.download(ctx, r)
	case stateNormalize:
		return y.normalize(ctx, r)
	case stateTranscribe:
		return y.transcribe(ctx, r)
	case stateValidate:
		return y.validate(r)
	}
	return fmt.Errorf("unknown video state %q", state)
}

func (y *YouTube) fetchCaptions(ctx context.Context, r *videoRun) error {
	if y.captions == nil {
		return errors.New("no caption source configured")
	}
	stepCtx, cancel := context.WithTimeout(ctx, y.guard.Limits().CaptionTimeout)
	defer cancel()

	text, err := y.captions.Fetch(stepCtx, r.videoID)
	if err != nil {
		return err
	}
	r.transcript = strings.TrimSpace(text)
	r.source = "captions"
	return nil
}

func (y *YouTube) checkMetadata(ctx context.Context, r *videoRun) error {
	stepCtx, cancel := context.WithTimeout(ctx, y.guard.Limits().DownloadTimeout)
	defer cancel()

	md, err := y.audioSource.Metadata(stepCtx, r.url)
	if err != nil {
		return stepError(stepCtx, err, failure.FetchFailed, "Video information could not be retrieved")
	}

	maxDuration := y.guard.Limits().MaxYouTubeDuration
	if md.IsLive {
		return failure.New(failure.UnsupportedFormat, "Live streams cannot be audited.")
	}
	if md.Duration > maxDuration.Seconds() {
		return failure.New(failure.TooLarge,
			fmt.Sprintf("Video duration exceeds %.0f minutes.", maxDuration.Minutes()))
	}
	return nil
}

func (y *YouTube) download(ctx context.Context, r *videoRun) error {
	dir, err := makeScratchDir(y.tempDir, "contentaudit-video-*")
	if err != nil {
		return err
	}
	r.dir = dir

	stepCtx, cancel := context.WithTimeout(ctx, y.guard.Limits().DownloadTimeout)
	defer cancel()

	path, err := y.audioSource.DownloadAudio(stepCtx, r.url, r.dir)
	if err != nil {
		return stepError(stepCtx, err, failure.FetchFailed, "Failed to download audio")
	}
	r.sourcePath = path
	return nil
}

func (y *YouTube) normalize(ctx context.Context, r *videoRun) error {
	path, err := y.normalizer.Normalize(ctx, r.sourcePath, r.dir)
	if err != nil {
		return stepError(ctx, err, failure.TranscriptionFailed, "Audio conversion failed")
	}

	info, err := os.Stat(path)
	if err != nil {
		return failure.Wrap(failure.TranscriptionFailed, err, "Converted audio is missing")
	}
	if err := y.guard.Audio(info.Size()); err != nil {
		return err
	}
	r.audioPath = path
	return nil
}

func (y *YouTube) transcribe(ctx context.Context, r *videoRun) error {
	data, err := os.ReadFile(r.audioPath)
	if err != nil {
		return failure.Wrap(failure.TranscriptionFailed, err, "Converted audio could not be read")
	}

	text, err := y.transcriber.Transcribe(ctx, data, audio.NormalizedMIME)
	if err != nil {
		return stepError(ctx, err, failure.TranscriptionFailed, "Audio transcription failed")
	}
	r.transcript = strings.TrimSpace(text)
	r.source = "audio"
	return nil
}

func (y *YouTube) validate(r *videoRun) error {
	if charCount(r.transcript) < y.guard.Limits().MinTranscriptChars {
		return failure.New(failure.TranscriptTooShort, "Transcript unavailable or too short.")
	}
	return nil
}
