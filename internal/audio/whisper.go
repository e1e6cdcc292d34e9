package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clobrano/contentaudit/internal/execx"
)

// WhisperCLI transcribes with the local openai-whisper command.
type WhisperCLI struct {
	runner   execx.Runner
	model    string
	threads  string
	modelDir string
	tempDir  string
}

func NewWhisperCLI(runner execx.Runner, model, threads, modelDir, tempDir string) *WhisperCLI {
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	return &WhisperCLI{
		runner:   runner,
		model:    model,
		threads:  threads,
		modelDir: modelDir,
		tempDir:  tempDir,
	}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	// Create temp directory for this transcription
	workDir, err := os.MkdirTemp(w.tempDir, "contentaudit-whisper-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, "input."+Extension(mimeType))
	if err := os.WriteFile(audioPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}

	args := []string{
		audioPath,
		"--model", w.model,
		"--output_format", "txt",
		"--output_dir", workDir,
		"--device", "cpu", // Explicitly use CPU to avoid GPU memory issues
		"--fp16", "False", // Disable FP16 on CPU to suppress warning
	}

	// Limit CPU threads if configured (helps reduce memory usage)
	if w.threads != "" {
		args = append(args, "--threads", w.threads)
	}
	if w.modelDir != "" {
		args = append(args, "--model_dir", w.modelDir)
	}

	if _, err := w.runner.Run(ctx, "whisper", args...); err != nil {
		return "", err
	}

	// Whisper names the output after the input file
	transcriptPath := filepath.Join(workDir, "input.txt")
	transcript, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}

	return strings.TrimSpace(string(transcript)), nil
}
