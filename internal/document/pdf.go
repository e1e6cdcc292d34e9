package document

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/clobrano/contentaudit/internal/execx"
)

// PDF extracts text with poppler's pdftotext.
type PDF struct {
	runner  execx.Runner
	tempDir string
}

func NewPDF(runner execx.Runner, tempDir string) *PDF {
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	return &PDF{runner: runner, tempDir: tempDir}
}

func (p *PDF) Extract(ctx context.Context, data []byte, _ string) (string, error) {
	if !strings.HasPrefix(string(data[:min(len(data), 5)]), "%PDF-") {
		return "", ErrInvalidDocument
	}

	f, err := os.CreateTemp(p.tempDir, "contentaudit-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	out, err := p.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
