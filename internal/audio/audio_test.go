package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	name string
	args []string
	run  func(args []string) error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	if f.run != nil {
		return nil, f.run(args)
	}
	return nil, nil
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("audio/mpeg"))
	assert.True(t, Supported("Video/MP4; codecs=avc1"))
	assert.False(t, Supported("image/png"))
	assert.False(t, Supported(""))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "mov", Extension("video/quicktime"))
	assert.Equal(t, "wav", Extension("audio/x-wav"))
	assert.Equal(t, "mp3", Extension("application/octet-stream"))
}

func TestWhisperCLI_Transcribe(t *testing.T) {
	tmp := t.TempDir()
	runner := &fakeRunner{run: func(args []string) error {
		out := argAfter(args, "--output_dir")
		return os.WriteFile(filepath.Join(out, "input.txt"), []byte("  spoken words \n"), 0600)
	}}
	w := NewWhisperCLI(runner, "base", "2", "", tmp)

	text, err := w.Transcribe(context.Background(), []byte("audio"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "spoken words", text)
	assert.Equal(t, "whisper", runner.name)
	assert.Equal(t, "base", argAfter(runner.args, "--model"))
	assert.Equal(t, "2", argAfter(runner.args, "--threads"))
	assert.Equal(t, ".wav", filepath.Ext(runner.args[0]))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory must be removed")
}

func TestWhisperCLI_RunnerError(t *testing.T) {
	tmp := t.TempDir()
	runner := &fakeRunner{run: func([]string) error { return errors.New("whisper failed") }}
	w := NewWhisperCLI(runner, "base", "", "", tmp)

	_, err := w.Transcribe(context.Background(), []byte("audio"), "audio/mpeg")
	require.Error(t, err)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFFmpeg_Normalize(t *testing.T) {
	runner := &fakeRunner{}
	f := NewFFmpeg(runner)

	out, err := f.Normalize(context.Background(), "/tmp/in.webm", "/tmp/work")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/work/normalized.mp3", out)
	assert.Equal(t, "ffmpeg", runner.name)
	assert.Equal(t, "/tmp/in.webm", argAfter(runner.args, "-i"))
	assert.Equal(t, "libmp3lame", argAfter(runner.args, "-codec:a"))
}
