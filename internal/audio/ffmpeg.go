package audio

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/clobrano/contentaudit/internal/execx"
)

// NormalizedMIME is the MIME type of every file Normalize produces.
const NormalizedMIME = "audio/mpeg"

// Normalizer re-encodes arbitrary media into one canonical audio format.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath, outputDir string) (string, error)
}

// FFmpeg re-encodes to mono 16 kHz MP3, which keeps speech intelligible
// and files small enough for the transcription size limit.
type FFmpeg struct {
	runner execx.Runner
}

func NewFFmpeg(runner execx.Runner) *FFmpeg {
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	return &FFmpeg{runner: runner}
}

func (f *FFmpeg) Normalize(ctx context.Context, inputPath, outputDir string) (string, error) {
	outputPath := filepath.Join(outputDir, "normalized.mp3")
	args := []string{
		"-y",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-codec:a", "libmp3lame",
		"-b:a", "64k",
		outputPath,
	}
	if _, err := f.runner.Run(ctx, "ffmpeg", args...); err != nil {
		return "", fmt.Errorf("failed to normalize audio: %w", err)
	}
	return outputPath, nil
}
