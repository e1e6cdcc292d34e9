// Package document extracts plain text from uploaded documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for MIME types no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// mimeLegacyWord is the binary Word 97-2003 format, which has no
// extractor.
const mimeLegacyWord = "application/msword"

// ErrInvalidDocument is returned when the bytes do not parse as the
// declared format.
var ErrInvalidDocument = errors.New("invalid document")

// Extractor returns the text of a document.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Router dispatches on MIME type to one extractor per format family. The
// set of extractors is fixed when the Router is built.
type Router struct {
	PDF   Extractor
	Word  Extractor
	Plain Extractor
}

func NewRouter(pdf, word, plain Extractor) *Router {
	return &Router{PDF: pdf, Word: word, Plain: plain}
}

func (r *Router) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(mimeType), mimeLegacyWord) {
		return "", fmt.Errorf("%w: legacy Word .doc, save it as .docx", ErrUnsupportedFormat)
	}
	ex := r.pick(mimeType)
	if ex == nil {
		return "", ErrUnsupportedFormat
	}
	return ex.Extract(ctx, data, mimeType)
}

func (r *Router) pick(mimeType string) Extractor {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "pdf"):
		return r.PDF
	case strings.Contains(m, "wordprocessingml"):
		return r.Word
	case strings.HasPrefix(m, "text/plain"):
		return r.Plain
	}
	return nil
}
