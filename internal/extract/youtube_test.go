package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clobrano/contentaudit/internal/audio"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/youtube"
)

const videoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type videoFixture struct {
	tmp         string
	captions    *fakeCaptions
	source      *fakeAudioSource
	normalizer  *fakeNormalizer
	transcripts []string
	transcript  string
	transErr    error
	recorder    *recorder
}

func newVideoFixture(t *testing.T) *videoFixture {
	return &videoFixture{
		tmp:        t.TempDir(),
		captions:   &fakeCaptions{err: youtube.ErrNoCaptions},
		source:     &fakeAudioSource{md: youtube.Metadata{Duration: 120}},
		normalizer: &fakeNormalizer{size: 100},
		transcript: longText(200),
		recorder:   &recorder{},
	}
}

func (f *videoFixture) strategy() *YouTube {
	return NewYouTube(NewGuard(testLimits()), f.tmp, YouTubeDeps{
		Captions:   f.captions,
		Audio:      f.source,
		Normalizer: f.normalizer,
		Transcriber: audio.TranscriberFunc(func(_ context.Context, data []byte, mimeType string) (string, error) {
			f.transcripts = append(f.transcripts, mimeType)
			return f.transcript, f.transErr
		}),
		Recorder: f.recorder,
	}, nil)
}

func TestYouTube_CaptionsSucceed(t *testing.T) {
	f := newVideoFixture(t)
	f.captions = &fakeCaptions{text: longText(80)}

	out, err := f.strategy().Extract(context.Background(), videoURL)
	require.NoError(t, err)
	assert.Equal(t, longText(80), out.ExtractedText)
	assert.Equal(t, out.ExtractedText, out.Transcript)
	assert.Zero(t, f.source.mdCalls, "audio path must not run when captions succeed")
	assert.Equal(t, []string{"captions"}, f.recorder.paths)
	requireEmptyDir(t, f.tmp)
}

func TestYouTube_FallsBackToAudio(t *testing.T) {
	f := newVideoFixture(t)

	out, err := f.strategy().Extract(context.Background(), videoURL)
	require.NoError(t, err)
	assert.Equal(t, longText(200), out.ExtractedText)
	assert.Equal(t, longText(200), out.Transcript)
	assert.Equal(t, 1, f.captions.calls)
	assert.Equal(t, 1, f.source.mdCalls)
	assert.Equal(t, 1, f.source.dlCalls)
	assert.Equal(t, []string{audio.NormalizedMIME}, f.transcripts)
	assert.Equal(t, []string{"audio"}, f.recorder.paths)
	requireEmptyDir(t, f.tmp)
}

func TestYouTube_InvalidURL(t *testing.T) {
	f := newVideoFixture(t)
	_, err := f.strategy().Extract(context.Background(), "https://www.youtube.com/channel/UC123")
	assert.True(t, failure.Is(err, failure.InvalidURL))
	assert.Zero(t, f.captions.calls)
}

func TestYouTube_StageFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *videoFixture)
		kind  failure.Kind
	}{
		{
			name:  "metadata",
			setup: func(f *videoFixture) { f.source.mdErr = errors.New("video unavailable") },
			kind:  failure.FetchFailed,
		},
		{
			name:  "too long",
			setup: func(f *videoFixture) { f.source.md.Duration = 601 },
			kind:  failure.TooLarge,
		},
		{
			name:  "live",
			setup: func(f *videoFixture) { f.source.md.IsLive = true },
			kind:  failure.UnsupportedFormat,
		},
		{
			name:  "download",
			setup: func(f *videoFixture) { f.source.dlErr = errors.New("HTTP Error 410") },
			kind:  failure.FetchFailed,
		},
		{
			name:  "normalize",
			setup: func(f *videoFixture) { f.normalizer.err = errors.New("ffmpeg exited 1") },
			kind:  failure.TranscriptionFailed,
		},
		{
			name:  "normalized audio too large",
			setup: func(f *videoFixture) { f.normalizer.size = 513 },
			kind:  failure.TooLarge,
		},
		{
			name:  "transcribe",
			setup: func(f *videoFixture) { f.transErr = errors.New("quota exceeded") },
			kind:  failure.TranscriptionFailed,
		},
		{
			name:  "transcript too short",
			setup: func(f *videoFixture) { f.transcript = "too short" },
			kind:  failure.TranscriptTooShort,
		},
		{
			name:  "captions too short",
			setup: func(f *videoFixture) { f.captions = &fakeCaptions{text: "tiny"} },
			kind:  failure.TranscriptTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVideoFixture(t)
			tt.setup(f)

			out, err := f.strategy().Extract(context.Background(), videoURL)
			require.Error(t, err)
			assert.Equal(t, tt.kind, failure.KindOf(err), err.Error())
			assert.Equal(t, Outcome{}, out)
			assert.Empty(t, f.recorder.paths)
			requireEmptyDir(t, f.tmp)
		})
	}
}

func TestYouTube_NeverUsesMetadataAsTranscript(t *testing.T) {
	f := newVideoFixture(t)
	f.source.md = youtube.Metadata{Title: "Miracle cure! Buy now, limited offer, guaranteed results for everyone", Duration: 60}
	f.transErr = errors.New("transcriber down")

	_, err := f.strategy().Extract(context.Background(), videoURL)
	assert.True(t, failure.Is(err, failure.TranscriptionFailed))
}

func TestYouTube_CancelledContext(t *testing.T) {
	f := newVideoFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.captions.err = context.Canceled
	cancel()

	_, err := f.strategy().Extract(ctx, videoURL)
	require.Error(t, err)
	assert.Zero(t, f.source.mdCalls, "no fallback after cancellation")
	requireEmptyDir(t, f.tmp)
}

func TestYouTube_PlatformSkipsCaptions(t *testing.T) {
	f := newVideoFixture(t)

	out, err := f.strategy().ExtractPlatform(context.Background(), "https://vimeo.com/123456")
	require.NoError(t, err)
	assert.Equal(t, longText(200), out.Transcript)
	assert.Zero(t, f.captions.calls)
	requireEmptyDir(t, f.tmp)
}

func TestVideoTransitions(t *testing.T) {
	// Only the caption step may fall back.
	for state, tr := range videoTransitions {
		if state == stateTranscript {
			assert.Equal(t, stateMetadata, tr.fail)
			continue
		}
		assert.Equal(t, stateFailed, tr.fail, string(state))
	}

	// Both paths end in validation.
	assert.Equal(t, stateValidate, videoTransitions[stateTranscript].ok)
	assert.Equal(t, stateValidate, videoTransitions[stateTranscribe].ok)
	assert.Equal(t, stateDone, videoTransitions[stateValidate].ok)
}
