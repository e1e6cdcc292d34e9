// Package ocr reads text out of images.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"github.com/clobrano/contentaudit/internal/execx"
)

// Engine returns the text visible in an image. An empty string is a valid
// answer; callers decide whether it is acceptable.
type Engine interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Tesseract shells out to the tesseract CLI.
type Tesseract struct {
	runner  execx.Runner
	lang    string
	tempDir string
}

func NewTesseract(runner execx.Runner, lang, tempDir string) *Tesseract {
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{runner: runner, lang: lang, tempDir: tempDir}
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte, _ string) (string, error) {
	f, err := os.CreateTemp(t.tempDir, "contentaudit-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(image); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	out, err := t.runner.Run(ctx, "tesseract", filepath.Clean(path), "stdout", "-l", t.lang)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

const ocrPrompt = `Extract all text visible in this image exactly as written. Return only the text, with no commentary. If there is no text, return nothing.`

// Gemini uses a multimodal Gemini model as the OCR engine.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(client *genai.Client, model string) *Gemini {
	return &Gemini{client: client, model: model}
}

func (g *Gemini) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(ocrPrompt),
		}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini OCR error: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
