// Package audio holds the speech-to-text collaborators and the ffmpeg
// normalizer used by the media and YouTube extractors.
package audio

import (
	"context"
	"strings"
)

// Transcriber turns audio or video bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, data []byte, mimeType string) (string, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return f(ctx, data, mimeType)
}

// mediaExtensions is the allow-list of media types accepted for
// transcription and the file extension each is written with.
var mediaExtensions = map[string]string{
	"audio/mpeg":      "mp3",
	"audio/mp3":       "mp3",
	"audio/wav":       "wav",
	"audio/x-wav":     "wav",
	"audio/wave":      "wav",
	"audio/webm":      "webm",
	"audio/ogg":       "ogg",
	"audio/m4a":       "m4a",
	"audio/x-m4a":     "m4a",
	"audio/mp4":       "m4a",
	"audio/aac":       "aac",
	"audio/flac":      "flac",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
	"video/mpeg":      "mpeg",
}

// Supported reports whether mimeType is on the transcription allow-list.
func Supported(mimeType string) bool {
	_, ok := mediaExtensions[normalize(mimeType)]
	return ok
}

// Extension returns the file extension for a supported media type, or
// "mp3" when the type is unknown.
func Extension(mimeType string) string {
	if ext, ok := mediaExtensions[normalize(mimeType)]; ok {
		return ext
	}
	return "mp3"
}

func normalize(mimeType string) string {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}
