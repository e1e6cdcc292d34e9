package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/clobrano/contentaudit/internal/execx"
)

// ErrNoAudio is returned when yt-dlp exits cleanly but leaves no file.
var ErrNoAudio = errors.New("yt-dlp produced no audio file")

// Metadata is the subset of yt-dlp's info JSON the audit looks at.
type Metadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	IsLive   bool    `json:"is_live"`
}

// YtDlp wraps the yt-dlp CLI.
type YtDlp struct {
	runner execx.Runner
}

func NewYtDlp(runner execx.Runner) *YtDlp {
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	return &YtDlp{runner: runner}
}

// Metadata fetches video info without downloading anything.
func (y *YtDlp) Metadata(ctx context.Context, videoURL string) (Metadata, error) {
	out, err := y.runner.Run(ctx, "yt-dlp",
		"--dump-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		videoURL,
	)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to fetch metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(out, &md); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return md, nil
}

// DownloadAudio saves the best audio-only stream into dir and returns its
// path. The extension is whatever container yt-dlp picked.
func (y *YtDlp) DownloadAudio(ctx context.Context, videoURL, dir string) (string, error) {
	template := filepath.Join(dir, "source.%(ext)s")
	_, err := y.runner.Run(ctx, "yt-dlp",
		"-f", "bestaudio/best",
		"-o", template,
		"--no-playlist",
		"--no-warnings",
		"--no-part",
		videoURL,
	)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "source.*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNoAudio
	}
	return matches[0], nil
}
