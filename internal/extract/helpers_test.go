package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clobrano/contentaudit/internal/config"
	"github.com/clobrano/contentaudit/internal/youtube"
)

func testLimits() config.Limits {
	l := config.DefaultLimits()
	l.MaxTextLength = 1000
	l.MaxMediaSize = 1024
	l.MaxImageSize = 1024
	l.MaxDocumentSize = 1024
	l.MaxAudioSize = 512
	l.FetchTimeout = 2 * time.Second
	l.CaptionTimeout = time.Second
	l.DownloadTimeout = 2 * time.Second
	return l
}

func longText(n int) string {
	return strings.Repeat("a", n)
}

type fakeCaptions struct {
	text  string
	err   error
	calls int
}

func (f *fakeCaptions) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeAudioSource struct {
	md          youtube.Metadata
	mdErr       error
	dlErr       error
	mdCalls     int
	dlCalls     int
	downloadDir string
}

func (f *fakeAudioSource) Metadata(_ context.Context, _ string) (youtube.Metadata, error) {
	f.mdCalls++
	return f.md, f.mdErr
}

func (f *fakeAudioSource) DownloadAudio(_ context.Context, _ string, dir string) (string, error) {
	f.dlCalls++
	f.downloadDir = dir
	path := filepath.Join(dir, "source.webm")
	if err := os.WriteFile(path, []byte("raw audio"), 0644); err != nil {
		return "", err
	}
	if f.dlErr != nil {
		return "", f.dlErr
	}
	return path, nil
}

type fakeNormalizer struct {
	size  int
	err   error
	calls int
}

func (f *fakeNormalizer) Normalize(_ context.Context, _ string, outputDir string) (string, error) {
	f.calls++
	path := filepath.Join(outputDir, "normalized.mp3")
	if err := os.WriteFile(path, make([]byte, f.size), 0644); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	return path, nil
}

type recorder struct {
	paths []string
}

func (r *recorder) TranscriptPath(path string) {
	r.paths = append(r.paths, path)
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "temporary files left behind")
}
