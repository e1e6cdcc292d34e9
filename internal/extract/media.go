package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/clobrano/contentaudit/internal/audio"
	"github.com/clobrano/contentaudit/internal/detect"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/logger"
	"github.com/clobrano/contentaudit/internal/models"
	"github.com/clobrano/contentaudit/internal/ocr"
)

// Media transcribes uploaded audio and video. There is no text fallback:
// a failed transcription ends the extraction.
type Media struct {
	guard       Guard
	transcriber audio.Transcriber
	log         *zap.Logger
}

func NewMedia(guard Guard, transcriber audio.Transcriber, log *zap.Logger) *Media {
	return &Media{guard: guard, transcriber: transcriber, log: logger.OrNop(log)}
}

func (m *Media) Extract(ctx context.Context, f *models.UploadedFile) (Outcome, error) {
	mimeType := detect.ResolveMIME(f)
	if err := m.guard.Media(f, mimeType); err != nil {
		return Outcome{}, err
	}

	m.log.Debug("Transcribing media", zap.String("mime", mimeType), zap.Int("bytes", len(f.Data)))
	text, err := m.transcriber.Transcribe(ctx, f.Data, mimeType)
	if err != nil {
		return Outcome{}, stepError(ctx, err, failure.TranscriptionFailed, "Audio transcription failed")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, failure.New(failure.NoContent, "No speech could be transcribed from the media file.")
	}

	return Outcome{ExtractedText: text, Transcript: text, Source: "media transcription"}, nil
}

// Image runs OCR. Blank OCR output is a failure, never empty content.
type Image struct {
	guard  Guard
	engine ocr.Engine
}

func NewImage(guard Guard, engine ocr.Engine) *Image {
	return &Image{guard: guard, engine: engine}
}

func (i *Image) Extract(ctx context.Context, f *models.UploadedFile) (Outcome, error) {
	if err := i.guard.Image(f); err != nil {
		return Outcome{}, err
	}

	text, err := i.engine.Recognize(ctx, f.Data, detect.ResolveMIME(f))
	if err != nil {
		return Outcome{}, stepError(ctx, err, failure.ExtractionFailed, "Text recognition failed")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, failure.New(failure.NoReadableText, "No readable text was found in the image.")
	}

	return Outcome{ExtractedText: text, Source: "image OCR"}, nil
}
